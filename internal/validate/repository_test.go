package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resrepo/internal/repo/repotest"
	"resrepo/internal/resource"
)

func TestRichIsValid(t *testing.T) {
	require.NoError(t, Repository(repotest.Rich(t, nil)))
}

func TestDuplicateDefinitions(t *testing.T) {
	l := repotest.New(t, nil)
	l.String("", "title", "One")
	l.Add(resource.NewValue(l.Common(resource.String, "title"), l.Source("", "more.xml"), nil, "Two"))
	l.String("fr", "title", "Un")
	l.Add(
		resource.NewValue(l.Common(resource.ID, "toolbar"), l.Source("", "ids.xml"), nil, ""),
		resource.NewValue(l.Common(resource.ID, "toolbar"), l.Source("", "more.xml"), nil, ""),
	)
	l.R.Freeze()

	assert.Equal(t, []string{
		"string/title [default]: duplicate definition in res/values/more.xml (first in res/values/strings.xml)",
	}, Issues(l.R))
}

func TestPlurals(t *testing.T) {
	l := repotest.New(t, nil)
	l.Add(resource.NewPlurals(l.Common(resource.Plurals, "songs"), l.Source("", "plurals.xml"), nil,
		[]resource.Quantity{{Arity: "one", Value: "%d song"}, {Arity: "several", Value: "%d songs"}}))
	l.R.Freeze()

	assert.Equal(t, []string{
		`plurals/songs [default]: unknown quantity "several"`,
		`plurals/songs [default]: quantity "other" is required`,
	}, Issues(l.R))
}

func TestStyleParents(t *testing.T) {
	l := repotest.New(t, nil)
	src := l.Source("", "styles.xml")
	l.Add(
		resource.NewStyle(l.Common(resource.Style, "Self"), src, nil, "@style/Self", nil, nil),
		resource.NewStyle(l.Common(resource.Style, "A"), src, nil, "B", nil, nil),
		resource.NewStyle(l.Common(resource.Style, "B"), src, nil, "A", nil, nil),
		resource.NewStyle(l.Common(resource.Style, "Theme"), src, nil, "@android:style/Theme", nil, nil),
	)
	l.R.Freeze()

	err := Repository(l.R)
	require.Error(t, err)
	assert.Equal(t, "style/Self [default]: style must not be its own parent\nstyle inheritance cycle: A -> B", err.Error())
}

func TestStyleableAndSymbols(t *testing.T) {
	l := repotest.New(t, nil)
	attrs := l.Source("", "attrs.xml")
	mode := resource.NewAttr(l.Common(resource.Attr, "mode"), attrs, nil, resource.AttrDef{
		Formats: resource.FormatEnum,
		Symbols: []resource.AttrSymbol{{Name: "fill"}, {Name: "fill"}},
	})
	unnamed := resource.NewAttr(resource.Common{Type: resource.Attr, Owner: l.R}, attrs, nil, resource.AttrDef{})
	l.Add(mode, resource.NewStyleable(l.Common(resource.Styleable, "View"), attrs, nil,
		[]*resource.AttrItem{mode, unnamed, mode}))
	l.R.Freeze()

	assert.Equal(t, []string{
		`attr/mode [default]: symbol "fill" defined twice`,
		`styleable/View [default]: attrs[1]: name must be non-empty`,
		`styleable/View [default]: attr "mode" listed twice`,
	}, Issues(l.R))
}

func TestEmptyName(t *testing.T) {
	l := repotest.New(t, nil)
	l.String("", "", "x")
	l.R.Freeze()
	assert.Equal(t, []string{"string/ [default]: name must be non-empty"}, Issues(l.R))
}
