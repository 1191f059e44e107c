package pack

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resrepo/internal/cache"
	"resrepo/internal/codec"
	"resrepo/internal/repo"
	"resrepo/internal/repo/repotest"
	"resrepo/internal/resource"
	"resrepo/internal/ziputil"
)

var header = codec.Header{SourceLocation: "/libs/demo.aar", ContentVersion: "c1", CodeVersion: "v1"}

func TestWriteFileBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "prebuilt.zip")
	m, err := WriteFile(context.Background(), path, repotest.Rich(t, nil), header, Options{})
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, FullEntry, m.Entries[0].Name)
	assert.Equal(t, NoLocaleEntry, m.Entries[1].Name)
	assert.Greater(t, m.Entries[0].Items, m.Entries[1].Items)
	assert.Equal(t, "com.example:demo:1.0", m.Library)

	mgr := cache.NewManager()
	opts := repo.Options{LibraryName: "com.example:demo:1.0"}

	data, err := ziputil.ReadEntry(path, FullEntry)
	require.NoError(t, err)
	full, err := mgr.Load(FullEntry, data, header, opts)
	require.NoError(t, err)
	assert.Len(t, full.Items(resource.ResAuto, resource.String, "app_name"), 2)

	data, err = ziputil.ReadEntry(path, NoLocaleEntry)
	require.NoError(t, err)
	nolocale, err := mgr.Load(NoLocaleEntry, data, header, opts)
	require.NoError(t, err)
	assert.Len(t, nolocale.Items(resource.ResAuto, resource.String, "app_name"), 1)
	assert.Empty(t, nolocale.Items(resource.ResAuto, resource.String, "greeting"))
	assert.Equal(t, m.Entries[1].Items, nolocale.Len())

	data, err = ziputil.ReadEntry(path, ManifestEntry)
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m, got)
}

func TestWriteMaxAPI(t *testing.T) {
	var buf bytes.Buffer
	m, err := Write(context.Background(), &buf, repotest.Rich(t, nil), header, Options{MaxAPI: 19})
	require.NoError(t, err)
	all, err := Write(context.Background(), &bytes.Buffer{}, repotest.Rich(t, nil), header, Options{})
	require.NoError(t, err)
	assert.Equal(t, all.Entries[0].Items-1, m.Entries[0].Items, "greeting is v21")
	assert.Equal(t, 19, m.MaxAPI)
}

func TestWriteIsReproducible(t *testing.T) {
	r := repotest.Rich(t, nil)
	var a, b bytes.Buffer
	_, err := Write(context.Background(), &a, r, header, Options{})
	require.NoError(t, err)
	_, err = Write(context.Background(), &b, r, header, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Write(ctx, &bytes.Buffer{}, repotest.Rich(t, nil), header, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
