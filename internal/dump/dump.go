// Package dump renders a repository as deterministic text, one item per
// line with indented detail lines, sorted by type, name and configuration.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/sortutil"
)

// Write renders r to w.
func Write(w io.Writer, r *repo.Repository) error {
	bw := bufio.NewWriter(w)
	ns := r.Namespace()
	for _, t := range resource.Types() {
		for _, name := range sortutil.Sorted(r.Names(t)) {
			items := append([]resource.Item(nil), r.Items(ns, t, name)...)
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Configuration().Qualifier < items[j].Configuration().Qualifier
			})
			for _, it := range items {
				writeItem(bw, ns, it)
			}
		}
	}
	return bw.Flush()
}

// String renders r.
func String(r *repo.Repository) string {
	var b strings.Builder
	_ = Write(&b, r)
	return b.String()
}

func writeItem(w *bufio.Writer, ns resource.Namespace, it resource.Item) {
	fmt.Fprintf(w, "%s/%s [%s] %s %s", it.Type(), it.Name(), it.Configuration(), it.Visibility(), it.Kind())
	switch x := it.(type) {
	case *resource.FileItem:
		fmt.Fprintf(w, " %s\n", x.Path())
	case *resource.ValueItem:
		fmt.Fprintf(w, " %s\n", strconv.Quote(x.Value()))
	case *resource.ArrayItem:
		fmt.Fprintf(w, " default=%d\n", x.DefaultIndex())
		for _, el := range x.Elements() {
			fmt.Fprintf(w, "  item %s\n", strconv.Quote(el))
		}
	case *resource.PluralsItem:
		w.WriteByte('\n')
		for _, q := range x.Quantities() {
			fmt.Fprintf(w, "  %s %s\n", q.Arity, strconv.Quote(q.Value))
		}
	case *resource.AttrItem:
		w.WriteByte(' ')
		writeAttr(w, x)
	case *resource.StyleItem:
		if x.Parent() != "" {
			fmt.Fprintf(w, " parent=%s", x.Parent())
		}
		w.WriteByte('\n')
		for _, e := range x.Entries() {
			fmt.Fprintf(w, "  %s = %s\n", e.Attr, strconv.Quote(e.Value))
		}
	case *resource.StyleableItem:
		w.WriteByte('\n')
		for _, a := range x.Attrs() {
			w.WriteString("  attr ")
			if a.Namespace() != ns {
				w.WriteString(a.Namespace().String())
				w.WriteByte(':')
			}
			w.WriteString(a.Name())
			if a.Loose() {
				w.WriteString(" (loose)")
			}
			w.WriteByte('\n')
		}
	default:
		fmt.Fprintf(w, " %s\n", strconv.Quote(it.Value()))
	}
}

func writeAttr(w *bufio.Writer, a *resource.AttrItem) {
	f := a.Formats().String()
	if f == "" {
		f = "-"
	}
	w.WriteString(f)
	if a.Description() != "" {
		fmt.Fprintf(w, " desc=%s", strconv.Quote(a.Description()))
	}
	if a.Group() != "" {
		fmt.Fprintf(w, " group=%s", strconv.Quote(a.Group()))
	}
	w.WriteByte('\n')
	for _, s := range a.Symbols() {
		fmt.Fprintf(w, "  symbol %s", s.Name)
		if s.HasValue {
			fmt.Fprintf(w, "=%d", s.Value)
		}
		if s.Description != "" {
			fmt.Fprintf(w, " %s", strconv.Quote(s.Description))
		}
		w.WriteByte('\n')
	}
}
