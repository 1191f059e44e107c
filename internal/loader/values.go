package loader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// valuesParser turns one values XML file into items. Tokens are read raw so
// prefixes stay as written; the file's xmlns declarations become its
// namespace resolver.
type valuesParser struct {
	r    *repo.Repository
	log  *zap.Logger
	path string
	cfg  *resource.Configuration
	dec  *xml.Decoder

	src *resource.SourceFile
	res *resource.NamespaceResolver

	// comments seen since the last element at the current level.
	comments []string
	group    string

	items []resource.Item
}

func parseValues(r *repo.Repository, log *zap.Logger, path string, cfg *resource.Configuration, data []byte) ([]resource.Item, error) {
	p := &valuesParser{
		r:    r,
		log:  log,
		path: path,
		cfg:  cfg,
		dec:  xml.NewDecoder(bytes.NewReader(data)),
	}
	if err := p.parse(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.items, nil
}

func (p *valuesParser) next() (xml.Token, error) {
	tok, err := p.dec.RawToken()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (p *valuesParser) parse() error {
	var root xml.StartElement
	for {
		tok, err := p.dec.RawToken()
		if errors.Is(err, io.EOF) {
			return errors.New("no <resources> element")
		}
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se.Copy()
			break
		}
	}
	if root.Name.Local != "resources" {
		return fmt.Errorf("root element <%s>, want <resources>", root.Name.Local)
	}
	if err := p.begin(root); err != nil {
		return err
	}
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment:
			p.comment(string(t))
		case xml.StartElement:
			desc := p.description()
			if err := p.element(t.Copy(), desc); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *valuesParser) begin(root xml.StartElement) error {
	var pairs []resource.PrefixURI
	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" {
			pairs = append(pairs, resource.PrefixURI{Prefix: a.Name.Local, URI: a.Value})
		}
	}
	var err error
	if p.res, err = p.r.Resolver(pairs); err != nil {
		return err
	}
	p.src, err = p.r.SourceFile(p.path, p.cfg)
	return err
}

func isFence(c string) bool {
	return c != "" && strings.Trim(c, "=") == ""
}

// comment records a top-level comment. A single comment fenced by "====="
// comment lines names the group of the attrs that follow.
func (p *valuesParser) comment(text string) {
	c := strings.TrimSpace(text)
	n := len(p.comments)
	if isFence(c) && n >= 2 && isFence(p.comments[n-2]) && !isFence(p.comments[n-1]) {
		p.group = p.comments[n-1]
		p.comments = p.comments[:0]
		return
	}
	p.comments = append(p.comments, c)
}

// description returns the comment immediately preceding the current
// element and resets the comment run.
func (p *valuesParser) description() string {
	defer func() { p.comments = p.comments[:0] }()
	if n := len(p.comments); n > 0 && !isFence(p.comments[n-1]) {
		return p.comments[n-1]
	}
	return ""
}

func attrValue(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (p *valuesParser) common(t resource.Type, name string) resource.Common {
	return resource.Common{
		Type:       t,
		Name:       name,
		Visibility: p.r.DefaultVisibility(t, name),
		Owner:      p.r,
	}
}

func (p *valuesParser) element(se xml.StartElement, desc string) error {
	tag := se.Name.Local
	name := attrValue(se, "name")
	t, ok := resource.ParseType(tag)
	if tag == "item" {
		t, ok = resource.ParseType(attrValue(se, "type"))
	}
	if se.Name.Space != "" || !ok || name == "" {
		p.log.Debug("skipping values element",
			zap.String("path", p.path),
			zap.String("element", tag),
			zap.String("name", name),
		)
		return p.skip()
	}
	switch t {
	case resource.Array:
		return p.array(se, name)
	case resource.Plurals:
		return p.plurals(name)
	case resource.Attr:
		if strings.Contains(name, ":") {
			// A prefixed top-level attr only refers to a definition elsewhere.
			return p.skip()
		}
		a, err := p.attr(p.common(resource.Attr, name), se, desc)
		if err != nil {
			return err
		}
		p.items = append(p.items, a)
		return nil
	case resource.Style:
		return p.style(se, name)
	case resource.Styleable:
		return p.styleable(name)
	}
	text, err := p.text()
	if err != nil {
		return err
	}
	p.items = append(p.items, resource.NewValue(p.common(t, name), p.src, p.res, text))
	return nil
}

// skip consumes the rest of the current element.
func (p *valuesParser) skip() error {
	for depth := 1; depth > 0; {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// text consumes the rest of the current element and returns its character
// data, including that of nested markup such as <xliff:g>.
func (p *valuesParser) text() (string, error) {
	var b strings.Builder
	for depth := 1; depth > 0; {
		tok, err := p.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// children calls fn for each child element with the comment preceding it.
// fn must consume the child completely.
func (p *valuesParser) children(fn func(se xml.StartElement, comment string) error) error {
	var comment string
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment:
			comment = strings.TrimSpace(string(t))
		case xml.StartElement:
			if err := fn(t.Copy(), comment); err != nil {
				return err
			}
			comment = ""
		case xml.EndElement:
			return nil
		}
	}
}

func (p *valuesParser) array(se xml.StartElement, name string) error {
	def := 0
	for _, a := range se.Attr {
		if a.Name.Local == "index" && a.Name.Space != "" {
			def, _ = strconv.Atoi(a.Value)
		}
	}
	var elems []string
	err := p.children(func(child xml.StartElement, _ string) error {
		if child.Name.Local != "item" {
			return p.skip()
		}
		v, err := p.text()
		elems = append(elems, v)
		return err
	})
	if err != nil {
		return err
	}
	p.items = append(p.items, resource.NewArray(p.common(resource.Array, name), p.src, p.res, elems, def))
	return nil
}

func (p *valuesParser) plurals(name string) error {
	var qs []resource.Quantity
	err := p.children(func(child xml.StartElement, _ string) error {
		q := attrValue(child, "quantity")
		if child.Name.Local != "item" || q == "" {
			return p.skip()
		}
		v, err := p.text()
		qs = append(qs, resource.Quantity{Arity: q, Value: v})
		return err
	})
	if err != nil {
		return err
	}
	p.items = append(p.items, resource.NewPlurals(p.common(resource.Plurals, name), p.src, p.res, qs))
	return nil
}

// attr parses an attr element and its enum or flag children.
func (p *valuesParser) attr(c resource.Common, se xml.StartElement, desc string) (*resource.AttrItem, error) {
	def := resource.AttrDef{
		Formats:     resource.ParseAttrFormat(attrValue(se, "format")),
		Description: desc,
		Group:       p.group,
	}
	err := p.children(func(child xml.StartElement, comment string) error {
		var f resource.AttrFormat
		switch child.Name.Local {
		case "enum":
			f = resource.FormatEnum
		case "flag":
			f = resource.FormatFlags
		default:
			return p.skip()
		}
		def.Formats |= f
		sym := resource.AttrSymbol{Name: attrValue(child, "name"), Description: comment}
		if v := attrValue(child, "value"); v != "" {
			n, err := parseSymbolValue(v)
			if err != nil {
				p.log.Warn("bad attr symbol value",
					zap.String("path", p.path),
					zap.String("attr", c.Name),
					zap.String("symbol", sym.Name),
					zap.String("value", v),
				)
			} else {
				sym.Value, sym.HasValue = n, true
			}
		}
		def.Symbols = append(def.Symbols, sym)
		return p.skip()
	})
	if err != nil {
		return nil, err
	}
	return resource.NewAttr(c, p.src, p.res, def), nil
}

// parseSymbolValue accepts decimal and 0x-prefixed values. Hex values up to
// 32 bits are read as unsigned, matching how flag masks are written.
func parseSymbolValue(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		return int64(v), err
	}
	return strconv.ParseInt(s, 10, 64)
}

func (p *valuesParser) style(se xml.StartElement, name string) error {
	var entries []resource.StyleEntry
	err := p.children(func(child xml.StartElement, _ string) error {
		attr := attrValue(child, "name")
		if child.Name.Local != "item" || attr == "" {
			return p.skip()
		}
		v, err := p.text()
		entries = append(entries, resource.StyleEntry{Attr: attr, Value: v})
		return err
	})
	if err != nil {
		return err
	}
	p.items = append(p.items, resource.NewStyle(p.common(resource.Style, name), p.src, p.res,
		attrValue(se, "parent"), entries, p.log))
	return nil
}

// styleable parses a declare-styleable. Attrs that declare a format in the
// repository namespace are also top-level attr definitions; the others are
// loose references.
func (p *valuesParser) styleable(name string) error {
	var attrs []*resource.AttrItem
	err := p.children(func(child xml.StartElement, comment string) error {
		qualified := attrValue(child, "name")
		if child.Name.Local != "attr" || qualified == "" {
			return p.skip()
		}
		ns, local := p.res.Resolve(qualified, p.r.Namespace())
		c := resource.Common{Type: resource.Attr, Name: local, Namespace: ns, Owner: p.r}
		if ns == p.r.Namespace() {
			c.Visibility = p.r.DefaultVisibility(resource.Attr, local)
		}
		a, err := p.attr(c, child, comment)
		if err != nil {
			return err
		}
		if !a.Loose() && ns == p.r.Namespace() {
			p.items = append(p.items, a)
		}
		attrs = append(attrs, a)
		return nil
	})
	if err != nil {
		return err
	}
	p.items = append(p.items, resource.NewStyleable(p.common(resource.Styleable, name), p.src, p.res, attrs))
	return nil
}
