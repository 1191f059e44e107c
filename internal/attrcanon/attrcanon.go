// Package attrcanon replaces loose attr references inside styleables with
// the repository's canonical attr definitions.
//
// A styleable may mention an attr without declaring its format; the real
// definition then lives elsewhere. When the repository holds an attr with
// the same namespace and name whose description and group agree with the
// loose mention, the mention is swapped for that definition. Otherwise it
// is left as it is.
package attrcanon

import (
	"go.uber.org/zap"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// Lookup returns the items of type attr with the given namespace and name.
type Lookup func(ns resource.Namespace, name string) []resource.Item

// RepoLookup adapts a repository to Lookup.
func RepoLookup(r *repo.Repository) Lookup {
	return func(ns resource.Namespace, name string) []resource.Item {
		return r.Items(ns, resource.Attr, name)
	}
}

// Styleable returns s with each loose attr replaced by its canonical
// definition. s itself is never modified; when nothing matches, s is
// returned as is.
func Styleable(s *resource.StyleableItem, lookup Lookup) *resource.StyleableItem {
	attrs := s.Attrs()
	var out []*resource.AttrItem
	for i, a := range attrs {
		if !a.Loose() {
			continue
		}
		c := canonical(a, lookup)
		if c == nil {
			continue
		}
		if out == nil {
			out = make([]*resource.AttrItem, len(attrs))
			copy(out, attrs)
		}
		out[i] = c
	}
	if out == nil {
		return s
	}
	return s.WithAttrs(out)
}

func canonical(loose *resource.AttrItem, lookup Lookup) *resource.AttrItem {
	for _, it := range lookup(loose.Namespace(), loose.Name()) {
		a, ok := it.(*resource.AttrItem)
		if !ok || a == loose {
			continue
		}
		if a.Description() == loose.Description() && a.Group() == loose.Group() {
			return a
		}
	}
	return nil
}

// Apply canonicalizes every styleable of a frozen repository and returns
// how many were replaced. It must run before r is shared with readers.
func Apply(r *repo.Repository) (int, error) {
	lookup := RepoLookup(r)
	n, err := r.Rewrite(resource.Styleable, func(it resource.Item) resource.Item {
		s, ok := it.(*resource.StyleableItem)
		if !ok {
			return it
		}
		return Styleable(s, lookup)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.Logger().Debug("canonicalized styleables",
			zap.Int("count", n),
			zap.String("library", r.LibraryName()),
		)
	}
	return n, nil
}
