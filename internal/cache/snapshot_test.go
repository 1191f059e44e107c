package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resrepo/internal/codec"
	"resrepo/internal/repo"
	"resrepo/internal/repo/repotest"
	"resrepo/internal/resource"
)

var header = codec.Header{
	SourceLocation: "/libs/demo.aar",
	ContentVersion: "c1",
	CodeVersion:    "v1",
}

func opts() repo.Options {
	return repo.Options{LibraryName: "com.example:demo:1.0"}
}

func TestPathKeyStable(t *testing.T) {
	a := PathKey("/libs/demo.aar")
	assert.Equal(t, a, PathKey("/libs/demo.aar"))
	assert.NotEqual(t, a, PathKey("/libs/other.aar"))
	assert.Len(t, a, 16)

	assert.Equal(t, filepath.Join(DefaultRoot, a), CacheDir("", "/libs/demo.aar"))
	assert.Equal(t, filepath.Join("root", a, FileName), CacheFile("root", "/libs/demo.aar"))
}

func TestSaveThenLoad(t *testing.T) {
	m := NewManager()
	path := filepath.Join(t.TempDir(), "nested", FileName)
	orig := repotest.AppNameStrings(t)
	require.NoError(t, m.Save(orig, path, header, nil))

	got, err := m.TryLoad(path, header, opts())
	require.NoError(t, err)
	assert.True(t, got.Frozen())
	assert.Equal(t, "/libs/demo.aar", got.SourceLocation())

	items := got.Items(resource.ResAuto, resource.String, "app_name")
	require.Len(t, items, 2)
	assert.Equal(t, "Demo", items[0].Value())
	assert.Equal(t, "Démo", items[1].Value())
	assert.Equal(t, "fr", items[1].Configuration().Qualifier)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file renamed away")
	assert.Equal(t, FileName, entries[0].Name())
}

func TestMissOnVersionChange(t *testing.T) {
	m := NewManager()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, m.Save(repotest.AppNameStrings(t), path, header, nil))

	want := header
	want.CodeVersion = "v2"
	got, err := m.TryLoad(path, want, opts())
	assert.Nil(t, got)
	require.True(t, IsMiss(err))
	var miss *MissError
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, "header mismatch", miss.Reason)
	assert.ErrorIs(t, err, codec.ErrHeaderMismatch)
}

func TestMissOnTruncatedFile(t *testing.T) {
	m := NewManager()
	path := filepath.Join(t.TempDir(), FileName)
	orig := repotest.Rich(t, nil)
	require.NoError(t, m.Save(orig, path, header, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	got, err := m.TryLoad(path, header, opts())
	assert.Nil(t, got, "no partially populated repository escapes")
	require.True(t, IsMiss(err))
	var fe *codec.FormatError
	assert.ErrorAs(t, err, &fe)

	got, err = m.TryLoad(path, header, opts())
	assert.Nil(t, got, "a second query still misses")
	require.True(t, IsMiss(err))

	require.NoError(t, m.Save(orig, path, header, nil))
	got, err = m.TryLoad(path, header, opts())
	require.NoError(t, err)
	require.Equal(t, orig.Len(), got.Len())
	for _, typ := range resource.Types() {
		require.Equal(t, orig.Names(typ), got.Names(typ), typ.String())
		for _, name := range orig.Names(typ) {
			want := orig.Items(orig.Namespace(), typ, name)
			have := got.Items(got.Namespace(), typ, name)
			require.Len(t, have, len(want), "%s/%s", typ, name)
			for i := range want {
				assert.True(t, resource.Equal(want[i], have[i]), "%s/%s[%d]", typ, name, i)
			}
		}
	}
}

func TestMissOnMissingFile(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewManager(WithLogger(zap.New(core)))

	_, err := m.TryLoad(filepath.Join(t.TempDir(), "absent.bin"), header, opts())
	require.True(t, IsMiss(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, logs.FilterMessage("resource cache miss").Len())
}

func TestLoadFromBytes(t *testing.T) {
	m := NewManager(WithStringInterning(false))
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, m.Save(repotest.Rich(t, nil), path, header, resource.WithoutLocale()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	got, err := m.Load("bundle!resources.bin", data, header, opts())
	require.NoError(t, err)
	assert.Len(t, got.Items(resource.ResAuto, resource.String, "app_name"), 1)

	_, err = m.Load("empty", nil, header, opts())
	assert.True(t, IsMiss(err))
}

func TestSaveFailureIsLoggedAndReturned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewManager(WithLogger(zap.New(core)))

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := m.Save(repotest.AppNameStrings(t), filepath.Join(blocker, FileName), header, nil)
	require.Error(t, err)
	assert.False(t, IsMiss(err))
	assert.Equal(t, 1, logs.FilterMessage("failed to write resource cache").Len())
}

func TestSaveReplacesExistingSnapshot(t *testing.T) {
	m := NewManager()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, m.Save(repotest.AppNameStrings(t), path, header, nil))

	next := header
	next.ContentVersion = "c2"
	require.NoError(t, m.Save(repotest.Rich(t, nil), path, next, nil))

	_, err := m.TryLoad(path, header, opts())
	assert.True(t, IsMiss(err))
	got, err := m.TryLoad(path, next, opts())
	require.NoError(t, err)
	assert.NotEmpty(t, got.Items(resource.ResAuto, resource.Styleable, "DemoView"))
}

func TestSaveAsync(t *testing.T) {
	m := NewManager()
	path := filepath.Join(t.TempDir(), FileName)
	r := repotest.Rich(t, nil)

	var wg sync.WaitGroup
	exec := func(task func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task()
		}()
	}

	done := m.SaveAsync(exec, r, path, header, nil)
	// Readers keep working while the snapshot is written.
	for i := 0; i < 100; i++ {
		assert.Len(t, r.Items(resource.ResAuto, resource.String, "app_name"), 2)
	}
	require.NoError(t, <-done)
	wg.Wait()

	_, ok := <-done
	assert.False(t, ok, "result channel closed after delivery")

	_, err := m.TryLoad(path, header, opts())
	require.NoError(t, err)
}

func TestClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, Clear(dir), "missing directory")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("x"), 0o644))
	require.NoError(t, Clear(dir))
	_, err := os.Stat(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, Clear(""))
}
