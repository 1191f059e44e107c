// Package repotest builds sample repositories for tests.
package repotest

import (
	"testing"

	"go.uber.org/zap"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// Loader adds items to a repository in its load phase.
type Loader struct {
	t testing.TB
	R *repo.Repository
}

// New starts a repository in the res-auto namespace.
func New(t testing.TB, log *zap.Logger) *Loader {
	t.Helper()
	return &Loader{t: t, R: repo.New(repo.Options{
		LibraryName:    "com.example:demo:1.0",
		SourceLocation: "/libs/demo.aar",
		Logger:         log,
	})}
}

// Source returns the interned values file of a qualifier.
func (l *Loader) Source(qualifier, file string) *resource.SourceFile {
	l.t.Helper()
	cfg, err := l.R.Configuration(qualifier)
	if err != nil {
		l.t.Fatalf("configuration: %v", err)
	}
	dir := "values"
	if qualifier != "" {
		dir += "-" + qualifier
	}
	src, err := l.R.SourceFile("res/"+dir+"/"+file, cfg)
	if err != nil {
		l.t.Fatalf("source file: %v", err)
	}
	return src
}

// Resolver returns the interned resolver of pairs.
func (l *Loader) Resolver(pairs ...resource.PrefixURI) *resource.NamespaceResolver {
	l.t.Helper()
	res, err := l.R.Resolver(pairs)
	if err != nil {
		l.t.Fatalf("resolver: %v", err)
	}
	return res
}

// Common fills the common fields with the repository defaults.
func (l *Loader) Common(t resource.Type, name string) resource.Common {
	return resource.Common{
		Type:       t,
		Name:       name,
		Visibility: l.R.DefaultVisibility(t, name),
		Owner:      l.R,
	}
}

// Add inserts items.
func (l *Loader) Add(items ...resource.Item) {
	l.t.Helper()
	for _, it := range items {
		if err := l.R.AddItem(it); err != nil {
			l.t.Fatalf("add %s/%s: %v", it.Type(), it.Name(), err)
		}
	}
}

// String adds a string item.
func (l *Loader) String(qualifier, name, value string) *resource.ValueItem {
	l.t.Helper()
	it := resource.NewValue(l.Common(resource.String, name), l.Source(qualifier, "strings.xml"), nil, value)
	l.Add(it)
	return it
}

// AppNameStrings builds the two-configuration "app_name" repository.
func AppNameStrings(t testing.TB) *repo.Repository {
	l := New(t, nil)
	l.String("", "app_name", "Demo")
	l.String("fr", "app_name", "Démo")
	l.R.Freeze()
	return l.R
}

// Rich builds a frozen repository with every item variant, several
// configurations and a loose styleable attr.
func Rich(t testing.TB, log *zap.Logger) *repo.Repository {
	t.Helper()
	l := New(t, log)
	l.Populate()
	l.R.Freeze()
	return l.R
}

// Populate adds the rich sample set without freezing.
func (l *Loader) Populate() {
	l.t.Helper()
	r := l.R
	android := l.Resolver(resource.PrefixURI{Prefix: "android", URI: resource.AndroidURI})
	app := l.Resolver(
		resource.PrefixURI{Prefix: "android", URI: resource.AndroidURI},
		resource.PrefixURI{Prefix: "app", URI: resource.ResAutoURI},
	)

	l.String("", "app_name", "Demo")
	l.String("fr", "app_name", "Démo")
	l.String("de-v21", "greeting", "Hallo")

	hdpi, _ := r.Configuration("hdpi")
	def, _ := r.Configuration("")
	l.Add(
		resource.NewFile(l.Common(resource.Drawable, "icon"), hdpi, "res/drawable-hdpi/icon.png"),
		resource.NewFile(l.Common(resource.Layout, "main"), def, "res/layout/main.xml"),
		resource.NewValue(l.Common(resource.Color, "accent"), l.Source("", "colors.xml"), nil, "#ff4081"),
		resource.NewValue(l.Common(resource.ID, "toolbar"), l.Source("", "ids.xml"), nil, ""),
		resource.NewArray(l.Common(resource.Array, "planets"), l.Source("", "arrays.xml"), nil,
			[]string{"Mercury", "Venus", "Earth"}, 2),
		resource.NewPlurals(l.Common(resource.Plurals, "songs"), l.Source("", "plurals.xml"), nil,
			[]resource.Quantity{{Arity: "one", Value: "%d song"}, {Arity: "other", Value: "%d songs"}}),
	)

	attrs := l.Source("", "attrs.xml")
	tint := resource.NewAttr(l.Common(resource.Attr, "tint"), attrs, app, resource.AttrDef{
		Formats:     resource.FormatColor | resource.FormatReference,
		Description: "Tint applied to the icon.",
		Group:       "Icons",
	})
	mode := resource.NewAttr(l.Common(resource.Attr, "mode"), attrs, app, resource.AttrDef{
		Formats: resource.FormatEnum,
		Symbols: []resource.AttrSymbol{
			{Name: "fill", Value: 0, HasValue: true, Description: "Fill the bounds."},
			{Name: "fit", Value: -1, HasValue: true},
			{Name: "auto"},
		},
	})
	l.Add(tint, mode)

	l.Add(resource.NewStyle(l.Common(resource.Style, "Widget.Demo"), l.Source("", "styles.xml"), app,
		"Widget.Base", []resource.StyleEntry{
			{Attr: "android:textColor", Value: "@color/accent"},
			{Attr: "app:tint", Value: "?attr/colorPrimary", Resolver: android},
		}, r.Logger()))

	looseTint := resource.NewAttr(resource.Common{Type: resource.Attr, Name: "tint", Owner: r}, attrs, app,
		resource.AttrDef{Description: "Tint applied to the icon.", Group: "Icons"})
	framework := resource.NewAttr(resource.Common{
		Type: resource.Attr, Name: "text", Namespace: resource.Android, Owner: r,
	}, attrs, app, resource.AttrDef{})
	l.Add(resource.NewStyleable(l.Common(resource.Styleable, "DemoView"), attrs, app,
		[]*resource.AttrItem{mode, looseTint, framework}))
}
