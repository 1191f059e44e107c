package resource

// Owner is the repository an item belongs to. Items keep a plain reference;
// the repository outlives every item it holds.
type Owner interface {
	Namespace() Namespace
	LibraryName() string
}

// Item is one named, typed, namespaced, configuration-scoped definition.
// Items are immutable once constructed.
type Item interface {
	Kind() Kind
	Type() Type
	Name() string
	Namespace() Namespace
	Visibility() Visibility
	Configuration() *Configuration
	Owner() Owner
	// Value is the scalar rendering of the payload: the path of a file item,
	// the text of a simple value, the default element of an array, the
	// "other" quantity of plurals, and the parent of a style.
	Value() string
}

// Common carries the fields shared by every variant.
type Common struct {
	Type       Type
	Name       string
	Namespace  Namespace
	Visibility Visibility
	Owner      Owner
}

type base struct {
	typ   Type
	name  string
	ns    Namespace
	vis   Visibility
	owner Owner
}

func newBase(c Common) base {
	ns := c.Namespace
	if ns.IsZero() && c.Owner != nil {
		ns = c.Owner.Namespace()
	}
	if ns.IsZero() {
		ns = ResAuto
	}
	return base{typ: c.Type, name: c.Name, ns: ns, vis: c.Visibility, owner: c.Owner}
}

func (b *base) Type() Type             { return b.typ }
func (b *base) Name() string           { return b.name }
func (b *base) Namespace() Namespace   { return b.ns }
func (b *base) Visibility() Visibility { return b.vis }
func (b *base) Owner() Owner           { return b.owner }

// SourceFile is a values file that defines one or more value items. It is
// shared by those items and carries their configuration.
type SourceFile struct {
	Path   string
	Config *Configuration
}

// FileItem is a resource whose value is an entire file.
type FileItem struct {
	base
	config *Configuration
	path   string
}

// NewFile builds a file-based item. path is the virtual path of the file.
func NewFile(c Common, config *Configuration, path string) *FileItem {
	return &FileItem{base: newBase(c), config: config, path: path}
}

func (f *FileItem) Kind() Kind                    { return KindFile }
func (f *FileItem) Configuration() *Configuration { return f.config }
func (f *FileItem) Value() string                 { return f.path }

// Path returns the virtual path of the backing file.
func (f *FileItem) Path() string { return f.path }

// valueBase is shared by the items defined inside a values file.
type valueBase struct {
	base
	source   *SourceFile
	resolver *NamespaceResolver
}

func newValueBase(c Common, source *SourceFile, resolver *NamespaceResolver) valueBase {
	if resolver == nil {
		resolver = EmptyResolver
	}
	return valueBase{base: newBase(c), source: source, resolver: resolver}
}

// Configuration is always the configuration of the defining source file.
func (v *valueBase) Configuration() *Configuration { return v.source.Config }

// Source returns the values file that defines the item.
func (v *valueBase) Source() *SourceFile { return v.source }

// Resolver returns the namespace declarations in scope at the definition.
func (v *valueBase) Resolver() *NamespaceResolver { return v.resolver }

// ValueItem is a resource with a single scalar value.
type ValueItem struct {
	valueBase
	value string
}

// NewValue builds a simple value item.
func NewValue(c Common, source *SourceFile, resolver *NamespaceResolver, value string) *ValueItem {
	return &ValueItem{valueBase: newValueBase(c, source, resolver), value: value}
}

func (v *ValueItem) Kind() Kind    { return KindValue }
func (v *ValueItem) Value() string { return v.value }

// ArrayItem is an ordered list of string values.
type ArrayItem struct {
	valueBase
	elements     []string
	defaultIndex int
}

// NewArray builds an array item. defaultIndex selects the element returned
// by Value; it is clamped to the element range.
func NewArray(c Common, source *SourceFile, resolver *NamespaceResolver, elements []string, defaultIndex int) *ArrayItem {
	if defaultIndex < 0 || defaultIndex >= len(elements) {
		defaultIndex = 0
	}
	return &ArrayItem{
		valueBase:    newValueBase(c, source, resolver),
		elements:     append([]string(nil), elements...),
		defaultIndex: defaultIndex,
	}
}

func (a *ArrayItem) Kind() Kind { return KindArray }

func (a *ArrayItem) Value() string {
	if len(a.elements) == 0 {
		return ""
	}
	return a.elements[a.defaultIndex]
}

// Elements returns the array elements. The slice must not be modified.
func (a *ArrayItem) Elements() []string { return a.elements }

// DefaultIndex returns the index of the element returned by Value.
func (a *ArrayItem) DefaultIndex() int { return a.defaultIndex }

// Quantity is one plural bucket.
type Quantity struct {
	Arity string
	Value string
}

// PluralArities lists the quantity buckets in canonical order.
var PluralArities = []string{"zero", "one", "two", "few", "many", "other"}

// PluralsItem holds one string per quantity bucket.
type PluralsItem struct {
	valueBase
	quantities []Quantity
}

// NewPlurals builds a plurals item.
func NewPlurals(c Common, source *SourceFile, resolver *NamespaceResolver, quantities []Quantity) *PluralsItem {
	return &PluralsItem{
		valueBase:  newValueBase(c, source, resolver),
		quantities: append([]Quantity(nil), quantities...),
	}
}

func (p *PluralsItem) Kind() Kind { return KindPlurals }

// Value returns the "other" bucket, or the first one when there is none.
func (p *PluralsItem) Value() string {
	if v, ok := p.Quantity("other"); ok {
		return v
	}
	if len(p.quantities) > 0 {
		return p.quantities[0].Value
	}
	return ""
}

// Quantity returns the string for an arity.
func (p *PluralsItem) Quantity(arity string) (string, bool) {
	for _, q := range p.quantities {
		if q.Arity == arity {
			return q.Value, true
		}
	}
	return "", false
}

// Quantities returns the buckets in definition order. The slice must not be
// modified.
func (p *PluralsItem) Quantities() []Quantity { return p.quantities }
