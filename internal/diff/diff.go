// Package diff compares two repositories: an item-level delta keyed by
// type, name and configuration, and a unified diff of their dumps.
// Unified patches use github.com/pmezard/go-difflib/difflib (---/+++
// headers, @@ hunks, lines prefixed with ' ', '-', '+').
package diff

import (
	"fmt"
	"sort"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"resrepo/internal/dump"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/textutil"
)

// Options controls patch generation behavior.
type Options struct {
	// MaxBytes is a guardrail on input size (old+new). When exceeded,
	// a minimal placeholder patch is returned and oversize=true.
	// 0 means "no limit".
	MaxBytes int

	// Context controls the number of context lines in unified hunks.
	// If 0, default to 3.
	Context int
}

// Unified produces a classic unified patch for a↦b.
// Returns the patch body and a flag indicating it was omitted due to size.
// Identical inputs produce an empty patch.
func Unified(aName, bName string, a, b []byte, opt Options) (body string, oversize bool) {
	if opt.MaxBytes > 0 && (len(a)+len(b)) > opt.MaxBytes {
		return omitted(aName, bName), true
	}
	ctx := opt.Context
	if ctx <= 0 {
		ctx = 3
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(textutil.EnsureTrailingLF(a))),
		B:        splitLinesKeepNL(string(textutil.EnsureTrailingLF(b))),
		FromFile: aName,
		ToFile:   bName,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return omitted(aName, bName), false
	}
	return s, false
}

// Repositories diffs the dumps of two repositories.
func Repositories(a, b *repo.Repository, opt Options) (string, bool) {
	return Unified(a.SourceLocation(), b.SourceLocation(),
		[]byte(dump.String(a)), []byte(dump.String(b)), opt)
}

// splitLinesKeepNL splits into lines and keeps newline characters,
// which produces better unified hunks.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

// omitted returns a compact placeholder when size limits are exceeded.
func omitted(aName, bName string) string {
	return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (oversize)\n", aName, bName)
}

// Key identifies an item variant across repositories.
type Key struct {
	Type   resource.Type
	Name   string
	Config string
}

func (k Key) String() string {
	cfg := k.Config
	if cfg == "" {
		cfg = "default"
	}
	return fmt.Sprintf("%s/%s [%s]", k.Type, k.Name, cfg)
}

// Delta describes the changes from a to b. The sets are disjoint:
//
//   - Added: keys present in b only
//   - Removed: keys present in a only
//   - Changed: keys present in both whose items differ
//
// A key with several items compares them in order.
type Delta struct {
	Added   []Key
	Removed []Key
	Changed []Key
}

// Empty reports whether the repositories hold equal items.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// BuildDelta compares two frozen repositories item by item.
func BuildDelta(a, b *repo.Repository) Delta {
	prev := index(a)
	curr := index(b)
	var d Delta
	for k, pa := range prev {
		pb, ok := curr[k]
		switch {
		case !ok:
			d.Removed = append(d.Removed, k)
		case !equalLists(pa, pb):
			d.Changed = append(d.Changed, k)
		}
	}
	for k := range curr {
		if _, ok := prev[k]; !ok {
			d.Added = append(d.Added, k)
		}
	}
	sortKeys(d.Added)
	sortKeys(d.Removed)
	sortKeys(d.Changed)
	return d
}

func index(r *repo.Repository) map[Key][]resource.Item {
	out := make(map[Key][]resource.Item)
	r.Each(func(it resource.Item) bool {
		k := Key{Type: it.Type(), Name: it.Name(), Config: it.Configuration().Qualifier}
		out[k] = append(out[k], it)
		return true
	})
	return out
}

func equalLists(a, b []resource.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !resource.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Config < keys[j].Config
	})
}
