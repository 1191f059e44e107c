package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resrepo/internal/codec"
	"resrepo/internal/repo"
	"resrepo/internal/repo/repotest"
)

func TestStringRich(t *testing.T) {
	out := String(repotest.Rich(t, nil))
	for _, want := range []string{
		"array/planets [default] public array default=2\n  item \"Mercury\"\n",
		"attr/tint [default] public attr reference|color desc=\"Tint applied to the icon.\" group=\"Icons\"\n",
		"attr/mode [default] public attr enum\n  symbol fill=0 \"Fill the bounds.\"\n  symbol fit=-1\n  symbol auto\n",
		"drawable/icon [hdpi] public file res/drawable-hdpi/icon.png\n",
		"plurals/songs [default] public plurals\n  one \"%d song\"\n  other \"%d songs\"\n",
		"string/app_name [default] public value \"Demo\"\nstring/app_name [fr] public value \"Démo\"\n",
		"style/Widget.Demo [default] public style parent=Widget.Base\n  android:textColor = \"@color/accent\"\n  app:tint = \"?attr/colorPrimary\"\n",
		"styleable/DemoView [default] public styleable\n  attr mode\n  attr tint (loose)\n  attr android:text (loose)\n",
	} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var heads []string
	for _, l := range lines {
		if !strings.HasPrefix(l, " ") {
			heads = append(heads, l)
		}
	}
	assert.True(t, strings.HasPrefix(heads[0], "array/"), "types in format order")
	assert.True(t, strings.HasPrefix(heads[1], "attr/mode"), "names sorted within a type")
}

func TestDumpSurvivesCacheRoundTrip(t *testing.T) {
	orig := repotest.Rich(t, nil)
	h := codec.Header{SourceLocation: "/libs/demo.aar", ContentVersion: "c", CodeVersion: "v"}
	var buf bytes.Buffer
	_, err := codec.Encode(&buf, orig, h, nil)
	require.NoError(t, err)

	got := repo.New(repo.Options{LibraryName: orig.LibraryName()})
	require.NoError(t, codec.Decode(buf.Bytes(), h, got))
	got.Freeze()
	assert.Equal(t, String(orig), String(got))
}

func TestEmptyRepository(t *testing.T) {
	r := repo.New(repo.Options{})
	r.Freeze()
	assert.Empty(t, String(r))
}
