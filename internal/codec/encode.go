package codec

import (
	"fmt"
	"io"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// Styleable attribute reference tags.
const (
	attrBackRef byte = 0
	attrInline  byte = 1
)

// encoder collects the dictionary tables of the selected items.
type encoder struct {
	ns resource.Namespace

	items []resource.Item
	order map[resource.Item]int

	configs   []*resource.Configuration
	configIdx map[*resource.Configuration]int

	sources   []*resource.SourceFile
	sourceIdx map[*resource.SourceFile]int

	resolvers   []*resource.NamespaceResolver
	resolverIdx map[*resource.NamespaceResolver]int
}

// Stats summarises an encoded stream.
type Stats struct {
	Configurations int
	SourceFiles    int
	Resolvers      int
	Items          int
	Bytes          int64
}

// Encode writes the header and the items of r whose configuration passes
// filter. r is only iterated, never modified, so Encode may run while other
// goroutines read r.
func Encode(out io.Writer, r *repo.Repository, h Header, filter resource.ConfigFilter) (Stats, error) {
	if filter == nil {
		filter = resource.AllConfigs()
	}
	e := &encoder{
		ns:          r.Namespace(),
		order:       make(map[resource.Item]int),
		configIdx:   make(map[*resource.Configuration]int),
		sourceIdx:   make(map[*resource.SourceFile]int),
		resolverIdx: make(map[*resource.NamespaceResolver]int),
	}
	r.Each(func(it resource.Item) bool {
		if filter(it.Configuration()) {
			e.order[it] = len(e.items)
			e.items = append(e.items, it)
		}
		return true
	})
	for _, it := range e.items {
		e.collect(it)
	}

	w := NewWriter(out)
	h.write(w)

	w.Int(len(e.configs))
	for _, c := range e.configs {
		w.String(c.Qualifier)
	}
	w.Int(len(e.sources))
	for _, s := range e.sources {
		w.String(s.Path)
		w.Int(e.configIdx[s.Config])
	}
	w.Int(len(e.resolvers))
	for _, res := range e.resolvers {
		pairs := res.Pairs()
		w.Int(len(pairs))
		for _, p := range pairs {
			w.String(p.Prefix)
			w.String(p.URI)
		}
	}
	w.Int(len(e.items))
	for i, it := range e.items {
		if err := e.writeItem(w, i, it); err != nil {
			return Stats{}, err
		}
	}
	if err := w.Flush(); err != nil {
		return Stats{}, fmt.Errorf("codec: write: %w", err)
	}
	return Stats{
		Configurations: len(e.configs),
		SourceFiles:    len(e.sources),
		Resolvers:      len(e.resolvers),
		Items:          len(e.items),
		Bytes:          w.Len(),
	}, nil
}

func (e *encoder) addConfig(c *resource.Configuration) {
	if _, ok := e.configIdx[c]; ok {
		return
	}
	e.configIdx[c] = len(e.configs)
	e.configs = append(e.configs, c)
}

func (e *encoder) addSource(s *resource.SourceFile) {
	if _, ok := e.sourceIdx[s]; ok {
		return
	}
	e.addConfig(s.Config)
	e.sourceIdx[s] = len(e.sources)
	e.sources = append(e.sources, s)
}

func (e *encoder) addResolver(res *resource.NamespaceResolver) {
	if _, ok := e.resolverIdx[res]; ok {
		return
	}
	e.resolverIdx[res] = len(e.resolvers)
	e.resolvers = append(e.resolvers, res)
}

type valueItem interface {
	Source() *resource.SourceFile
	Resolver() *resource.NamespaceResolver
}

func (e *encoder) collect(it resource.Item) {
	if f, ok := it.(*resource.FileItem); ok {
		e.addConfig(f.Configuration())
		return
	}
	v := it.(valueItem)
	e.addSource(v.Source())
	e.addResolver(v.Resolver())
	switch x := it.(type) {
	case *resource.StyleItem:
		for _, entry := range x.Entries() {
			e.addResolver(entry.Resolver)
		}
	case *resource.StyleableItem:
		for _, a := range x.Attrs() {
			if _, written := e.order[a]; !written {
				e.addSource(a.Source())
				e.addResolver(a.Resolver())
			}
		}
	}
}

func (e *encoder) writeItem(w *Writer, pos int, it resource.Item) error {
	w.Byte(byte(it.Kind()))
	w.Int(int(it.Type()))
	w.String(it.Name())
	w.Int(int(it.Visibility()))

	if f, ok := it.(*resource.FileItem); ok {
		w.Int(e.configIdx[f.Configuration()])
		w.String(f.Path())
		return nil
	}
	v := it.(valueItem)
	w.Int(e.sourceIdx[v.Source()])
	w.Int(e.resolverIdx[v.Resolver()])

	switch x := it.(type) {
	case *resource.ValueItem:
		w.String(x.Value())
	case *resource.ArrayItem:
		w.Int(len(x.Elements()))
		for _, el := range x.Elements() {
			w.String(el)
		}
		w.Int(x.DefaultIndex())
	case *resource.PluralsItem:
		w.Int(len(x.Quantities()))
		for _, q := range x.Quantities() {
			w.String(q.Arity)
			w.String(q.Value)
		}
	case *resource.AttrItem:
		writeAttrDef(w, x)
	case *resource.StyleItem:
		w.String(x.Parent())
		w.Int(len(x.Entries()))
		for _, entry := range x.Entries() {
			w.String(entry.Attr)
			w.String(entry.Value)
			w.Int(e.resolverIdx[entry.Resolver])
		}
	case *resource.StyleableItem:
		w.Int(len(x.Attrs()))
		for _, a := range x.Attrs() {
			if ref, ok := e.order[a]; ok && ref < pos {
				w.Byte(attrBackRef)
				w.Int(ref)
				continue
			}
			w.Byte(attrInline)
			e.writeInlineAttr(w, a)
		}
	default:
		return fmt.Errorf("codec: unsupported item %T", it)
	}
	return nil
}

func (e *encoder) writeInlineAttr(w *Writer, a *resource.AttrItem) {
	w.String(a.Name())
	if a.Namespace() == e.ns {
		w.String("")
	} else {
		w.String(a.Namespace().URI())
	}
	w.Int(int(a.Visibility()))
	w.Int(e.sourceIdx[a.Source()])
	w.Int(e.resolverIdx[a.Resolver()])
	writeAttrDef(w, a)
}

func writeAttrDef(w *Writer, a *resource.AttrItem) {
	w.Uvarint(uint64(a.Formats()))
	w.String(a.Description())
	w.String(a.Group())
	w.Int(len(a.Symbols()))
	for _, s := range a.Symbols() {
		w.String(s.Name)
		w.String(s.Description)
		if s.HasValue {
			w.Byte(1)
			w.Varint(s.Value)
		} else {
			w.Byte(0)
		}
	}
}
