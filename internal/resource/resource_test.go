package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"string":            String,
		"string-array":      Array,
		"integer-array":     Array,
		"declare-styleable": Styleable,
		"drawable":          Drawable,
		"xml":               XML,
	}
	for in, want := range cases {
		got, ok := ParseType(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseType("values")
	assert.False(t, ok)
	assert.Equal(t, "styleable", Styleable.String())
	assert.Len(t, Types(), NumTypes)
}

func TestParseConfiguration(t *testing.T) {
	c := ParseConfiguration("fr-rCA-hdpi-v21")
	assert.Equal(t, "fr", c.Language)
	assert.Equal(t, "CA", c.Region)
	assert.Equal(t, "hdpi", c.Density)
	assert.Equal(t, 21, c.API)
	assert.True(t, c.HasLocale())

	c = ParseConfiguration("b+sr+Latn")
	assert.Equal(t, "sr", c.Language)
	assert.Equal(t, "Latn", c.Region)

	c = ParseConfiguration("land-480dpi-v26")
	assert.Empty(t, c.Language)
	assert.Equal(t, "480dpi", c.Density)
	assert.Equal(t, 26, c.API)

	def := ParseConfiguration("")
	assert.True(t, def.IsDefault())
	assert.Equal(t, "default", def.String())
}

func TestConfigFilters(t *testing.T) {
	fr := ParseConfiguration("fr")
	v28 := ParseConfiguration("v28")
	assert.False(t, WithoutLocale()(&fr))
	assert.True(t, WithoutLocale()(&v28))
	assert.False(t, MaxAPI(21)(&v28))
	assert.True(t, MaxAPI(0)(&v28))
	assert.False(t, And(MaxAPI(30), WithoutLocale())(&fr))
	assert.True(t, And(nil, AllConfigs())(&fr))
}

func TestResolverResolve(t *testing.T) {
	r := NewNamespaceResolver([]PrefixURI{
		{Prefix: "app", URI: ResAutoURI},
		{Prefix: "lib", URI: "http://schemas.android.com/apk/res/com.example.lib"},
	})
	ns, name := r.Resolve("android:textColor", ResAuto)
	assert.Equal(t, Android, ns)
	assert.Equal(t, "textColor", name)

	ns, name = r.Resolve("lib:tint", ResAuto)
	assert.Equal(t, "com.example.lib", ns.PackageName())
	assert.Equal(t, "tint", name)

	ns, name, ok := r.Lookup("missing:tint", ResAuto)
	assert.False(t, ok)
	assert.Equal(t, ResAuto, ns)
	assert.Equal(t, "tint", name)

	ns, name = r.Resolve("plain", Android)
	assert.Equal(t, Android, ns)
	assert.Equal(t, "plain", name)

	p, ok := r.Prefix(ResAutoURI)
	require.True(t, ok)
	assert.Equal(t, "app", p)
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Configuration("fr")
	b := in.Configuration("fr")
	assert.Same(t, a, b)
	assert.NotSame(t, a, in.Configuration(""))

	pairs := []PrefixURI{{Prefix: "tools", URI: ToolsURI}}
	r1 := in.Resolver(pairs)
	r2 := in.Resolver([]PrefixURI{{Prefix: "tools", URI: ToolsURI}})
	assert.Same(t, r1, r2)
	assert.Same(t, EmptyResolver, in.Resolver(nil))

	s1 := in.SourceFile("res/values-fr/strings.xml", a)
	s2 := in.SourceFile("res/values-fr/strings.xml", b)
	assert.Same(t, s1, s2)

	configs, resolvers, sources := in.Len()
	assert.Equal(t, 2, configs)
	assert.Equal(t, 1, resolvers)
	assert.Equal(t, 1, sources)
}

func TestStyleKeepsFirstConflictingEntry(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	in := NewInterner()
	src := in.SourceFile("values/styles.xml", in.Configuration(""))
	res := in.Resolver([]PrefixURI{{Prefix: "android", URI: AndroidURI}})

	s := NewStyle(Common{Type: Style, Name: "Theme.Demo"}, src, res, "Theme.Base", []StyleEntry{
		{Attr: "android:textColor", Value: "#fff"},
		{Attr: "colorAccent", Value: "@color/accent"},
		{Attr: "android:textColor", Value: "#000"},
		{Attr: "colorAccent", Value: "@color/accent"},
	}, zap.New(core))

	require.Len(t, s.Entries(), 2)
	e, ok := s.Entry(Android, "textColor")
	require.True(t, ok)
	assert.Equal(t, "#fff", e.Value)
	assert.Equal(t, "Theme.Base", s.Value())
	assert.Equal(t, 1, logs.Len(), "identical duplicates are not conflicts")
}

func TestStyleKeepsUnresolvedPrefixSeparate(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	in := NewInterner()
	src := in.SourceFile("values/styles.xml", in.Configuration(""))
	res := in.Resolver(nil)

	s := NewStyle(Common{Type: Style, Name: "Theme.Demo"}, src, res, "", []StyleEntry{
		{Attr: "textColor", Value: "red"},
		{Attr: "app:textColor", Value: "blue"},
	}, zap.New(core))

	require.Len(t, s.Entries(), 2)
	e, ok := s.Entry(s.Namespace(), "textColor")
	require.True(t, ok)
	assert.Equal(t, "red", e.Value)
	e, ok = s.Entry(s.Namespace(), "app:textColor")
	require.True(t, ok)
	assert.Equal(t, "blue", e.Value)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "unresolved attribute prefix in style item", logs.All()[0].Message)

	_, _, known := res.Lookup("app:textColor", ResAuto)
	assert.False(t, known)
}

func TestValueItemsTakeSourceConfiguration(t *testing.T) {
	in := NewInterner()
	fr := in.Configuration("fr")
	src := in.SourceFile("values-fr/strings.xml", fr)
	v := NewValue(Common{Type: String, Name: "app_name", Visibility: Public}, src, nil, "Démo")
	assert.Same(t, fr, v.Configuration())
	assert.Same(t, EmptyResolver, v.Resolver())
	assert.Equal(t, ResAuto, v.Namespace())
}

func TestEqual(t *testing.T) {
	a := NewInterner()
	b := NewInterner()
	mk := func(in *Interner, value string) Item {
		src := in.SourceFile("values/arrays.xml", in.Configuration("v21"))
		return NewArray(Common{Type: Array, Name: "colors"}, src, nil, []string{"red", value}, 1)
	}
	assert.True(t, Equal(mk(a, "green"), mk(b, "green")))
	assert.False(t, Equal(mk(a, "green"), mk(b, "blue")))

	pl := NewPlurals(Common{Type: Plurals, Name: "n"}, a.SourceFile("values/p.xml", a.Configuration("")), nil,
		[]Quantity{{Arity: "one", Value: "1 item"}, {Arity: "other", Value: "%d items"}})
	assert.Equal(t, "%d items", pl.Value())
	assert.False(t, Equal(pl, mk(a, "green")))
}

func TestAttrFormat(t *testing.T) {
	f := ParseAttrFormat("reference | color|bogus")
	assert.Equal(t, FormatReference|FormatColor, f)
	assert.Equal(t, "reference|color", f.String())
}
