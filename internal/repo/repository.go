// Package repo implements the repository index: a per-type name -> items
// multimap that is populated once by a single writer, frozen, and then read
// concurrently without locks.
package repo

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"resrepo/internal/resource"
)

// ErrFrozen is returned by mutating calls after Freeze.
var ErrFrozen = errors.New("repo: repository is frozen")

// TypeName identifies a resource by type and name, independent of
// configuration.
type TypeName struct {
	Type resource.Type
	Name string
}

// table is one resource type's name -> items multimap. names records first
// insertion order so iteration is deterministic.
type table struct {
	byName map[string][]resource.Item
	names  []string
}

func (t *table) add(it resource.Item) {
	if t.byName == nil {
		t.byName = make(map[string][]resource.Item)
	}
	name := it.Name()
	if _, ok := t.byName[name]; !ok {
		t.names = append(t.names, name)
	}
	t.byName[name] = append(t.byName[name], it)
}

// frozenCopy returns a table whose slices have no spare capacity, so appends
// by readers never write into shared backing arrays.
func (t *table) frozenCopy() table {
	out := table{
		byName: make(map[string][]resource.Item, len(t.byName)),
		names:  slices.Clip(t.names),
	}
	for k, v := range t.byName {
		out.byName[k] = slices.Clip(v)
	}
	return out
}

// Options configure a new repository.
type Options struct {
	// Namespace of every item in the repository.
	Namespace resource.Namespace
	// LibraryName is a human readable name, e.g. a maven coordinate.
	LibraryName string
	// SourceLocation is the path of the archive or directory the items
	// come from.
	SourceLocation string
	// Logger receives data conflict warnings. Nil disables logging.
	Logger *zap.Logger
}

// Repository owns the items of one archive or directory.
type Repository struct {
	ns             resource.Namespace
	libraryName    string
	sourceLocation string
	log            *zap.Logger

	// Load phase state; nil once frozen.
	interner *resource.Interner
	staging  []table
	public   map[TypeName]struct{}

	frozen      bool
	tables      []table
	publicItems [][]resource.Item

	pkgOnce sync.Once
	pkgFn   func() string
	pkg     string
}

// New returns an empty repository in its load phase.
func New(opts Options) *Repository {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ns := opts.Namespace
	if ns.IsZero() {
		ns = resource.ResAuto
	}
	return &Repository{
		ns:             ns,
		libraryName:    opts.LibraryName,
		sourceLocation: opts.SourceLocation,
		log:            log,
		interner:       resource.NewInterner(),
		staging:        make([]table, resource.NumTypes),
	}
}

// Namespace returns the namespace shared by all items.
func (r *Repository) Namespace() resource.Namespace { return r.ns }

// LibraryName returns the library name given at construction.
func (r *Repository) LibraryName() string { return r.libraryName }

// SourceLocation returns the archive or directory the repository was built from.
func (r *Repository) SourceLocation() string { return r.sourceLocation }

// Logger returns the repository logger.
func (r *Repository) Logger() *zap.Logger { return r.log }

// Frozen reports whether Freeze has been called.
func (r *Repository) Frozen() bool { return r.frozen }

// SetPackageNameLoader installs a function computing the package name on
// first use. It must be set before the repository is shared.
func (r *Repository) SetPackageNameLoader(fn func() string) { r.pkgFn = fn }

// PackageName returns the package name of the library, empty when unknown.
func (r *Repository) PackageName() string {
	r.pkgOnce.Do(func() {
		if r.pkgFn != nil {
			r.pkg = r.pkgFn()
		}
		if r.pkg == "" {
			r.pkg = r.ns.PackageName()
		}
	})
	return r.pkg
}

// Configuration returns the interned configuration for a qualifier.
func (r *Repository) Configuration(qualifier string) (*resource.Configuration, error) {
	if r.frozen {
		return nil, ErrFrozen
	}
	return r.interner.Configuration(qualifier), nil
}

// Resolver returns the interned namespace resolver for a declaration list.
func (r *Repository) Resolver(pairs []resource.PrefixURI) (*resource.NamespaceResolver, error) {
	if r.frozen {
		return nil, ErrFrozen
	}
	return r.interner.Resolver(pairs), nil
}

// SourceFile returns the interned source file record.
func (r *Repository) SourceFile(path string, config *resource.Configuration) (*resource.SourceFile, error) {
	if r.frozen {
		return nil, ErrFrozen
	}
	return r.interner.SourceFile(path, config), nil
}

// SetPublicSurface installs the public-surface side table. With a non-nil
// table, items default to private unless listed; without one every item
// defaults to public.
func (r *Repository) SetPublicSurface(public map[TypeName]struct{}) error {
	if r.frozen {
		return ErrFrozen
	}
	r.public = public
	return nil
}

// DefaultVisibility returns the visibility a producer should give an item
// that carries no visibility declaration of its own.
func (r *Repository) DefaultVisibility(t resource.Type, name string) resource.Visibility {
	if r.public == nil {
		return resource.Public
	}
	if _, ok := r.public[TypeName{Type: t, Name: name}]; ok {
		return resource.Public
	}
	return resource.Private
}

// AddItem inserts an item. Items with the same type and name are all kept in
// insertion order.
func (r *Repository) AddItem(it resource.Item) error {
	if r.frozen {
		return ErrFrozen
	}
	t := it.Type()
	if !t.Valid() {
		return errors.New("repo: invalid resource type")
	}
	r.staging[t].add(it)
	return nil
}

// Freeze ends the load phase. The multimaps are replaced by read-only copies,
// the public subset is computed, and the intern tables are dropped. It must
// be called exactly once, after the whole batch is added.
func (r *Repository) Freeze() {
	if r.frozen {
		return
	}
	r.tables = make([]table, resource.NumTypes)
	r.publicItems = make([][]resource.Item, resource.NumTypes)
	for i := range r.staging {
		r.tables[i] = r.staging[i].frozenCopy()
		for _, name := range r.tables[i].names {
			for _, it := range r.tables[i].byName[name] {
				if it.Visibility() == resource.Public {
					r.publicItems[i] = append(r.publicItems[i], it)
				}
			}
		}
		r.publicItems[i] = slices.Clip(r.publicItems[i])
	}
	for tn := range r.public {
		if !tn.Type.Valid() || len(r.tables[tn.Type].byName[tn.Name]) == 0 {
			r.log.Warn("public resource declared but not defined",
				zap.String("type", tn.Type.String()),
				zap.String("name", tn.Name),
				zap.String("library", r.libraryName),
			)
		}
	}
	r.staging = nil
	r.interner = nil
	r.public = nil
	r.frozen = true
}

// Items returns the items for a namespace, type and name. The result is
// empty when nothing matches, and must not be modified.
func (r *Repository) Items(ns resource.Namespace, t resource.Type, name string) []resource.Item {
	tb := r.lookupTable(ns, t)
	if tb == nil {
		return nil
	}
	return tb.byName[name]
}

// PublicItems returns every public item of a type.
func (r *Repository) PublicItems(ns resource.Namespace, t resource.Type) []resource.Item {
	if !r.frozen || ns != r.ns || !t.Valid() {
		return nil
	}
	return r.publicItems[t]
}

// Names returns the item names of a type in first insertion order.
func (r *Repository) Names(t resource.Type) []string {
	tb := r.lookupTable(r.ns, t)
	if tb == nil {
		return nil
	}
	return tb.names
}

// Each calls fn for every item, type by type in format order and name by
// name in insertion order, until fn returns false.
func (r *Repository) Each(fn func(resource.Item) bool) {
	for _, t := range resource.Types() {
		tb := r.lookupTable(r.ns, t)
		if tb == nil {
			continue
		}
		for _, name := range tb.names {
			for _, it := range tb.byName[name] {
				if !fn(it) {
					return
				}
			}
		}
	}
}

// Len returns the total number of items.
func (r *Repository) Len() int {
	n := 0
	r.Each(func(resource.Item) bool { n++; return true })
	return n
}

// Rewrite replaces items of one type by fn's result. It builds a fresh
// read-only table instead of mutating the current one, and must only run
// before the repository is shared with readers.
func (r *Repository) Rewrite(t resource.Type, fn func(resource.Item) resource.Item) (int, error) {
	if !r.frozen {
		return 0, errors.New("repo: rewrite before freeze")
	}
	if !t.Valid() {
		return 0, errors.New("repo: invalid resource type")
	}
	old := r.tables[t]
	var next table
	changed := 0
	for _, name := range old.names {
		for _, it := range old.byName[name] {
			nit := fn(it)
			if nit != it {
				changed++
			}
			next.add(nit)
		}
	}
	if changed == 0 {
		return 0, nil
	}
	r.tables[t] = next.frozenCopy()
	var pub []resource.Item
	r.eachIn(r.tables[t], func(it resource.Item) {
		if it.Visibility() == resource.Public {
			pub = append(pub, it)
		}
	})
	r.publicItems[t] = slices.Clip(pub)
	return changed, nil
}

func (r *Repository) eachIn(tb table, fn func(resource.Item)) {
	for _, name := range tb.names {
		for _, it := range tb.byName[name] {
			fn(it)
		}
	}
}

func (r *Repository) lookupTable(ns resource.Namespace, t resource.Type) *table {
	if ns != r.ns || !t.Valid() {
		return nil
	}
	if r.frozen {
		return &r.tables[t]
	}
	return &r.staging[t]
}
