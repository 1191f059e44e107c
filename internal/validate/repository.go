// Package validate checks a loaded repository for definitions that parse
// but would be rejected or misbehave at build time:
//
//   - Every item has a non-empty name.
//   - No (type, name, configuration) is defined twice. IDs are exempt since
//     the same ID is commonly declared in several files.
//   - Plurals use known arities and define "other".
//   - Styles do not inherit from themselves, directly or through a cycle.
//   - Styleables list each attr once, and every attr has a name.
//   - Attr symbols have unique names.
//
// Issues are aggregated into a single error.
package validate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"resrepo/internal/graph"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// Repository returns nil if r looks fine, or a single aggregated error
// describing all the issues found.
func Repository(r *repo.Repository) error {
	var errs errlist
	check(r, &errs)
	return errs.err()
}

// Issues returns the issues found in r, one message per issue.
func Issues(r *repo.Repository) []string {
	var errs errlist
	check(r, &errs)
	return errs.msgs
}

func check(r *repo.Repository, errs *errlist) {
	type key struct {
		t      resource.Type
		name   string
		config string
	}
	seen := make(map[key]string)

	r.Each(func(it resource.Item) bool {
		prefix := label(it)
		if strings.TrimSpace(it.Name()) == "" {
			errs.add("%s: name must be non-empty", prefix)
		}
		if it.Type() != resource.ID {
			k := key{it.Type(), it.Name(), it.Configuration().Qualifier}
			where := origin(it)
			if first, dup := seen[k]; dup {
				errs.add("%s: duplicate definition in %s (first in %s)", prefix, where, first)
			} else {
				seen[k] = where
			}
		}
		switch v := it.(type) {
		case *resource.PluralsItem:
			plurals(prefix, v, errs)
		case *resource.StyleItem:
			if name, local := graph.ParentName(v.Parent()); local && name == v.Name() {
				errs.add("%s: style must not be its own parent", prefix)
			}
		case *resource.StyleableItem:
			styleable(prefix, v, errs)
		case *resource.AttrItem:
			symbols(prefix, v, errs)
		}
		return true
	})

	for _, c := range graph.StyleParents(r).Cycles() {
		if len(c) == 1 {
			// Reported above as a self parent.
			continue
		}
		errs.add("style inheritance cycle: %s", strings.Join(c, " -> "))
	}
}

func plurals(prefix string, p *resource.PluralsItem, errs *errlist) {
	for _, q := range p.Quantities() {
		if !slices.Contains(resource.PluralArities, q.Arity) {
			errs.add("%s: unknown quantity %q", prefix, q.Arity)
		}
	}
	if _, ok := p.Quantity("other"); !ok {
		errs.add("%s: quantity \"other\" is required", prefix)
	}
}

func styleable(prefix string, s *resource.StyleableItem, errs *errlist) {
	seen := make(map[resource.AttrKey]struct{}, len(s.Attrs()))
	for i, a := range s.Attrs() {
		if strings.TrimSpace(a.Name()) == "" {
			errs.add("%s: attrs[%d]: name must be non-empty", prefix, i)
			continue
		}
		k := resource.AttrKey{Namespace: a.Namespace(), Name: a.Name()}
		if _, dup := seen[k]; dup {
			errs.add("%s: attr %q listed twice", prefix, a.Name())
			continue
		}
		seen[k] = struct{}{}
	}
}

func symbols(prefix string, a *resource.AttrItem, errs *errlist) {
	seen := make(map[string]struct{}, len(a.Symbols()))
	for _, s := range a.Symbols() {
		if _, dup := seen[s.Name]; dup {
			errs.add("%s: symbol %q defined twice", prefix, s.Name)
			continue
		}
		seen[s.Name] = struct{}{}
	}
}

func label(it resource.Item) string {
	cfg := it.Configuration().Qualifier
	if cfg == "" {
		cfg = "default"
	}
	return fmt.Sprintf("%s/%s [%s]", it.Type(), it.Name(), cfg)
}

func origin(it resource.Item) string {
	switch v := it.(type) {
	case *resource.FileItem:
		return v.Path()
	case interface{ Source() *resource.SourceFile }:
		if src := v.Source(); src != nil {
			return src.Path
		}
	}
	return "?"
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	// Join with newline for readability.
	return errors.New(strings.Join(e.msgs, "\n"))
}
