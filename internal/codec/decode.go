package codec

import (
	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	strings StringCache
}

// WithStringCache interns decoded strings through c.
func WithStringCache(c StringCache) DecodeOption {
	return func(cfg *decodeConfig) { cfg.strings = c }
}

type decoder struct {
	r      *Reader
	target *repo.Repository

	configs   []*resource.Configuration
	sources   []*resource.SourceFile
	resolvers []*resource.NamespaceResolver
	items     []resource.Item
}

// Decode checks the header of data against want and adds the decoded items
// to target, which must be in its load phase. The dictionary tables are
// rebuilt through target's intern tables before any item, so a decoded
// repository shares structure exactly like a freshly loaded one. On error
// target holds a partial batch and must be discarded.
func Decode(data []byte, want Header, target *repo.Repository, opts ...DecodeOption) error {
	var cfg decodeConfig
	for _, o := range opts {
		o(&cfg)
	}
	d := &decoder{r: NewReader(data, cfg.strings), target: target}
	if err := d.r.ExpectHeader(want); err != nil {
		return err
	}
	if err := d.readConfigs(); err != nil {
		return err
	}
	if err := d.readSources(); err != nil {
		return err
	}
	if err := d.readResolvers(); err != nil {
		return err
	}
	if err := d.readItems(); err != nil {
		return err
	}
	if d.r.Remaining() != 0 {
		return d.r.malformed("trailing bytes after items")
	}
	return nil
}

func (d *decoder) readConfigs() error {
	n, err := d.r.Count()
	if err != nil {
		return err
	}
	d.configs = make([]*resource.Configuration, n)
	for i := range d.configs {
		q, err := d.r.String()
		if err != nil {
			return err
		}
		if d.configs[i], err = d.target.Configuration(q); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readSources() error {
	n, err := d.r.Count()
	if err != nil {
		return err
	}
	d.sources = make([]*resource.SourceFile, n)
	for i := range d.sources {
		path, err := d.r.String()
		if err != nil {
			return err
		}
		ci, err := d.r.Index(len(d.configs), "configuration")
		if err != nil {
			return err
		}
		if d.sources[i], err = d.target.SourceFile(path, d.configs[ci]); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readResolvers() error {
	n, err := d.r.Count()
	if err != nil {
		return err
	}
	d.resolvers = make([]*resource.NamespaceResolver, n)
	for i := range d.resolvers {
		np, err := d.r.Count()
		if err != nil {
			return err
		}
		pairs := make([]resource.PrefixURI, np)
		for j := range pairs {
			if pairs[j].Prefix, err = d.r.String(); err != nil {
				return err
			}
			if pairs[j].URI, err = d.r.String(); err != nil {
				return err
			}
		}
		if d.resolvers[i], err = d.target.Resolver(pairs); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readItems() error {
	n, err := d.r.Count()
	if err != nil {
		return err
	}
	d.items = make([]resource.Item, 0, n)
	for i := 0; i < n; i++ {
		it, err := d.readItem()
		if err != nil {
			return err
		}
		if err := d.target.AddItem(it); err != nil {
			return err
		}
		d.items = append(d.items, it)
	}
	return nil
}

func (d *decoder) readCommon() (resource.Kind, resource.Common, error) {
	start := d.r.Offset()
	kb, err := d.r.Byte()
	if err != nil {
		return 0, resource.Common{}, err
	}
	kind := resource.Kind(kb)
	if !kind.Valid() {
		return 0, resource.Common{}, &FormatError{Offset: start, Reason: "unknown item discriminator"}
	}
	t, err := d.r.Index(resource.NumTypes, "resource type")
	if err != nil {
		return 0, resource.Common{}, err
	}
	if !kind.Allows(resource.Type(t)) {
		return 0, resource.Common{}, &FormatError{Offset: start, Reason: "item kind does not match resource type"}
	}
	name, err := d.r.String()
	if err != nil {
		return 0, resource.Common{}, err
	}
	vis, err := d.readVisibility()
	if err != nil {
		return 0, resource.Common{}, err
	}
	return kind, resource.Common{
		Type:       resource.Type(t),
		Name:       name,
		Namespace:  d.target.Namespace(),
		Visibility: vis,
		Owner:      d.target,
	}, nil
}

func (d *decoder) readVisibility() (resource.Visibility, error) {
	v, err := d.r.Index(int(resource.Public)+1, "visibility")
	return resource.Visibility(v), err
}

func (d *decoder) readValueRefs() (*resource.SourceFile, *resource.NamespaceResolver, error) {
	si, err := d.r.Index(len(d.sources), "source file")
	if err != nil {
		return nil, nil, err
	}
	ri, err := d.r.Index(len(d.resolvers), "resolver")
	if err != nil {
		return nil, nil, err
	}
	return d.sources[si], d.resolvers[ri], nil
}

func (d *decoder) readItem() (resource.Item, error) {
	kind, c, err := d.readCommon()
	if err != nil {
		return nil, err
	}
	if kind == resource.KindFile {
		ci, err := d.r.Index(len(d.configs), "configuration")
		if err != nil {
			return nil, err
		}
		path, err := d.r.String()
		if err != nil {
			return nil, err
		}
		return resource.NewFile(c, d.configs[ci], path), nil
	}

	src, res, err := d.readValueRefs()
	if err != nil {
		return nil, err
	}
	switch kind {
	case resource.KindValue:
		v, err := d.r.String()
		if err != nil {
			return nil, err
		}
		return resource.NewValue(c, src, res, v), nil
	case resource.KindArray:
		elems, err := d.readStrings()
		if err != nil {
			return nil, err
		}
		def, err := d.r.Int()
		if err != nil {
			return nil, err
		}
		return resource.NewArray(c, src, res, elems, def), nil
	case resource.KindPlurals:
		n, err := d.r.Count()
		if err != nil {
			return nil, err
		}
		qs := make([]resource.Quantity, n)
		for i := range qs {
			if qs[i].Arity, err = d.r.String(); err != nil {
				return nil, err
			}
			if qs[i].Value, err = d.r.String(); err != nil {
				return nil, err
			}
		}
		return resource.NewPlurals(c, src, res, qs), nil
	case resource.KindAttr:
		def, err := d.readAttrDef()
		if err != nil {
			return nil, err
		}
		return resource.NewAttr(c, src, res, def), nil
	case resource.KindStyle:
		return d.readStyle(c, src, res)
	case resource.KindStyleable:
		return d.readStyleable(c, src, res)
	}
	return nil, d.r.malformed("unknown item discriminator")
}

func (d *decoder) readStrings() ([]string, error) {
	n, err := d.r.Count()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = d.r.String(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) readAttrDef() (resource.AttrDef, error) {
	var def resource.AttrDef
	f, err := d.r.Uvarint()
	if err != nil {
		return def, err
	}
	def.Formats = resource.AttrFormat(f)
	if def.Description, err = d.r.String(); err != nil {
		return def, err
	}
	if def.Group, err = d.r.String(); err != nil {
		return def, err
	}
	n, err := d.r.Count()
	if err != nil {
		return def, err
	}
	def.Symbols = make([]resource.AttrSymbol, n)
	for i := range def.Symbols {
		s := &def.Symbols[i]
		if s.Name, err = d.r.String(); err != nil {
			return def, err
		}
		if s.Description, err = d.r.String(); err != nil {
			return def, err
		}
		flag, err := d.r.Byte()
		if err != nil {
			return def, err
		}
		switch flag {
		case 0:
		case 1:
			s.HasValue = true
			if s.Value, err = d.r.Varint(); err != nil {
				return def, err
			}
		default:
			return def, d.r.malformed("bad symbol value flag")
		}
	}
	return def, nil
}

func (d *decoder) readStyle(c resource.Common, src *resource.SourceFile, res *resource.NamespaceResolver) (resource.Item, error) {
	parent, err := d.r.String()
	if err != nil {
		return nil, err
	}
	n, err := d.r.Count()
	if err != nil {
		return nil, err
	}
	entries := make([]resource.StyleEntry, n)
	for i := range entries {
		if entries[i].Attr, err = d.r.String(); err != nil {
			return nil, err
		}
		if entries[i].Value, err = d.r.String(); err != nil {
			return nil, err
		}
		ri, err := d.r.Index(len(d.resolvers), "resolver")
		if err != nil {
			return nil, err
		}
		entries[i].Resolver = d.resolvers[ri]
	}
	return resource.NewStyle(c, src, res, parent, entries, d.target.Logger()), nil
}

func (d *decoder) readStyleable(c resource.Common, src *resource.SourceFile, res *resource.NamespaceResolver) (resource.Item, error) {
	n, err := d.r.Count()
	if err != nil {
		return nil, err
	}
	attrs := make([]*resource.AttrItem, n)
	for i := range attrs {
		tag, err := d.r.Byte()
		if err != nil {
			return nil, err
		}
		switch tag {
		case attrBackRef:
			ref, err := d.r.Index(len(d.items), "item")
			if err != nil {
				return nil, err
			}
			a, ok := d.items[ref].(*resource.AttrItem)
			if !ok {
				return nil, d.r.malformed("styleable reference to non-attr item")
			}
			attrs[i] = a
		case attrInline:
			if attrs[i], err = d.readInlineAttr(); err != nil {
				return nil, err
			}
		default:
			return nil, d.r.malformed("bad styleable attr tag")
		}
	}
	return resource.NewStyleable(c, src, res, attrs), nil
}

func (d *decoder) readInlineAttr() (*resource.AttrItem, error) {
	name, err := d.r.String()
	if err != nil {
		return nil, err
	}
	uri, err := d.r.String()
	if err != nil {
		return nil, err
	}
	ns := d.target.Namespace()
	if uri != "" {
		var ok bool
		if ns, ok = resource.NamespaceFromURI(uri); !ok {
			return nil, d.r.malformed("unknown attr namespace")
		}
	}
	vis, err := d.readVisibility()
	if err != nil {
		return nil, err
	}
	src, res, err := d.readValueRefs()
	if err != nil {
		return nil, err
	}
	def, err := d.readAttrDef()
	if err != nil {
		return nil, err
	}
	return resource.NewAttr(resource.Common{
		Type:       resource.Attr,
		Name:       name,
		Namespace:  ns,
		Visibility: vis,
		Owner:      d.target,
	}, src, res, def), nil
}
