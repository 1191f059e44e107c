package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resrepo/internal/repo/repotest"
	"resrepo/internal/resource"
)

func TestParentName(t *testing.T) {
	cases := []struct {
		in    string
		name  string
		local bool
	}{
		{"Widget.Base", "Widget.Base", true},
		{"@style/Widget.Base", "Widget.Base", true},
		{"style/Widget.Base", "Widget.Base", true},
		{"@*:style/Hidden", "Hidden", true},
		{"@android:style/Theme", "Theme", false},
		{"android:Theme.Material", "Theme.Material", false},
		{"", "", true},
	}
	for _, c := range cases {
		name, local := ParentName(c.in)
		assert.Equal(t, c.name, name, c.in)
		assert.Equal(t, c.local, local, c.in)
	}
}

func style(l *repotest.Loader, name, parent string) {
	l.Add(resource.NewStyle(l.Common(resource.Style, name), l.Source("", "styles.xml"), nil, parent, nil, nil))
}

func TestStyleParents(t *testing.T) {
	l := repotest.New(t, nil)
	style(l, "Base", "@android:style/Theme")
	style(l, "Base.Dark", "")
	style(l, "Widget", "@style/Base")
	style(l, "Orphan.Child", "")
	l.R.Freeze()

	g := StyleParents(l.R)
	assert.Equal(t, []string{"Base", "Base.Dark", "Orphan.Child", "Widget"}, g.Nodes)
	assert.Equal(t, [][2]string{{"Base.Dark", "Base"}, {"Widget", "Base"}}, g.Edges)
	assert.Empty(t, g.Cycles())
}

func TestCycles(t *testing.T) {
	g := Graph{
		Nodes: []string{"A", "B", "C", "D", "E"},
		Edges: [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"D", "D"}, {"E", "A"}},
	}
	assert.Equal(t, [][]string{{"A", "B", "C"}, {"D"}}, g.Cycles())
}

func TestStyleCycleInRepository(t *testing.T) {
	l := repotest.New(t, nil)
	style(l, "A", "B")
	style(l, "B", "@style/A")
	style(l, "Self", "Self")
	l.R.Freeze()
	assert.Equal(t, [][]string{{"A", "B"}, {"Self"}}, StyleParents(l.R).Cycles())
}
