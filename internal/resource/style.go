package resource

import "go.uber.org/zap"

// StyleEntry is one <item> of a style. Attr is the attribute name as written,
// possibly prefixed ("android:textColor"); Resolver resolves that prefix.
type StyleEntry struct {
	Attr     string
	Value    string
	Resolver *NamespaceResolver
}

// AttrKey identifies an attribute by namespace and local name.
type AttrKey struct {
	Namespace Namespace
	Name      string
}

// StyleItem is a style: an optional parent and a table of attribute values.
type StyleItem struct {
	valueBase
	parent  string
	entries []StyleEntry
	index   map[AttrKey]int
}

// NewStyle builds a style item. When two entries resolve to the same
// attribute the first one is kept; a conflicting value is logged.
func NewStyle(c Common, source *SourceFile, resolver *NamespaceResolver, parent string, entries []StyleEntry, log *zap.Logger) *StyleItem {
	s := &StyleItem{
		valueBase: newValueBase(c, source, resolver),
		parent:    parent,
		entries:   make([]StyleEntry, 0, len(entries)),
		index:     make(map[AttrKey]int, len(entries)),
	}
	for _, e := range entries {
		if e.Resolver == nil {
			e.Resolver = s.resolver
		}
		key, resolved := s.keyOf(e)
		if !resolved {
			if log == nil {
				log = zap.NewNop()
			}
			log.Warn("unresolved attribute prefix in style item",
				zap.String("style", s.name),
				zap.String("attr", e.Attr),
			)
		}
		if i, dup := s.index[key]; dup {
			if first := s.entries[i]; first.Value != e.Value {
				if log == nil {
					log = zap.NewNop()
				}
				log.Warn("conflicting style item definitions, keeping first",
					zap.String("style", s.name),
					zap.String("attr", e.Attr),
					zap.String("kept", first.Value),
					zap.String("dropped", e.Value),
					zap.String("config", s.Configuration().String()),
				)
			}
			continue
		}
		s.index[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

// keyOf keys an entry by its resolved attribute. An entry whose prefix
// cannot be resolved keeps the name as written, so it never collides with
// an unprefixed attribute of the same local name.
func (s *StyleItem) keyOf(e StyleEntry) (AttrKey, bool) {
	ns, name, ok := e.Resolver.Lookup(e.Attr, s.ns)
	if !ok {
		return AttrKey{Namespace: s.ns, Name: e.Attr}, false
	}
	return AttrKey{Namespace: ns, Name: name}, true
}

func (s *StyleItem) Kind() Kind    { return KindStyle }
func (s *StyleItem) Value() string { return s.parent }

// Parent returns the parent style reference as written, empty when absent.
func (s *StyleItem) Parent() string { return s.parent }

// Entries returns the entries in definition order. The slice must not be
// modified.
func (s *StyleItem) Entries() []StyleEntry { return s.entries }

// Entry looks up the value set for an attribute.
func (s *StyleItem) Entry(ns Namespace, name string) (StyleEntry, bool) {
	i, ok := s.index[AttrKey{Namespace: ns, Name: name}]
	if !ok {
		return StyleEntry{}, false
	}
	return s.entries[i], true
}

// StyleableItem is an ordered list of attribute references. References may
// be loose (no format) or point at a canonical AttrItem.
type StyleableItem struct {
	valueBase
	attrs []*AttrItem
}

// NewStyleable builds a styleable item.
func NewStyleable(c Common, source *SourceFile, resolver *NamespaceResolver, attrs []*AttrItem) *StyleableItem {
	return &StyleableItem{
		valueBase: newValueBase(c, source, resolver),
		attrs:     append([]*AttrItem(nil), attrs...),
	}
}

func (s *StyleableItem) Kind() Kind    { return KindStyleable }
func (s *StyleableItem) Value() string { return "" }

// Attrs returns the attribute references in order. The slice must not be
// modified.
func (s *StyleableItem) Attrs() []*AttrItem { return s.attrs }

// WithAttrs returns a copy of s with a different attribute list. All other
// fields are shared with s.
func (s *StyleableItem) WithAttrs(attrs []*AttrItem) *StyleableItem {
	cp := *s
	cp.attrs = append([]*AttrItem(nil), attrs...)
	return &cp
}
