package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resrepo/internal/repo"
	"resrepo/internal/repo/repotest"
	"resrepo/internal/resource"
)

var testHeader = Header{
	SourceLocation: "/libs/demo.aar",
	ContentVersion: "c1",
	CodeVersion:    "v1",
}

func encode(t *testing.T, r *repo.Repository, filter resource.ConfigFilter) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := Encode(&buf, r, testHeader, filter)
	require.NoError(t, err)
	return buf.Bytes()
}

func newTarget() *repo.Repository {
	return repo.New(repo.Options{LibraryName: "com.example:demo:1.0", SourceLocation: "/libs/demo.aar"})
}

func decode(t *testing.T, data []byte) *repo.Repository {
	t.Helper()
	r := newTarget()
	require.NoError(t, Decode(data, testHeader, r))
	r.Freeze()
	return r
}

func assertSameContents(t *testing.T, want, got *repo.Repository) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for _, typ := range resource.Types() {
		require.Equal(t, want.Names(typ), got.Names(typ), typ.String())
		for _, name := range want.Names(typ) {
			a := want.Items(want.Namespace(), typ, name)
			b := got.Items(got.Namespace(), typ, name)
			require.Len(t, b, len(a), "%s/%s", typ, name)
			for i := range a {
				assert.True(t, resource.Equal(a[i], b[i]), "%s/%s[%d]", typ, name, i)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	orig := repotest.Rich(t, nil)
	got := decode(t, encode(t, orig, nil))
	assertSameContents(t, orig, got)

	st := got.Items(resource.ResAuto, resource.Styleable, "DemoView")
	require.Len(t, st, 1)
	attrs := st[0].(*resource.StyleableItem).Attrs()
	require.Len(t, attrs, 3)
	mode := got.Items(resource.ResAuto, resource.Attr, "mode")
	assert.Same(t, mode[0], attrs[0], "top-level attr is a back-reference")
	assert.Equal(t, resource.Android, attrs[2].Namespace())
	assert.True(t, attrs[1].Loose())

	style := got.Items(resource.ResAuto, resource.Style, "Widget.Demo")[0].(*resource.StyleItem)
	e, ok := style.Entry(resource.ResAuto, "tint")
	require.True(t, ok)
	assert.Equal(t, "?attr/colorPrimary", e.Value)
}

func TestRoundTripSharesTables(t *testing.T) {
	orig := repotest.AppNameStrings(t)
	data := encode(t, orig, nil)

	rd := NewReader(data, nil)
	require.NoError(t, rd.ExpectHeader(testHeader))
	n, err := rd.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one qualifier entry per distinct configuration")

	got := decode(t, data)
	items := got.Items(resource.ResAuto, resource.String, "app_name")
	require.Len(t, items, 2)
	assert.Equal(t, "Demo", items[0].Value())
	assert.Equal(t, "Démo", items[1].Value())
	assert.NotSame(t, items[0].Configuration(), items[1].Configuration())
	assert.Equal(t, "fr", items[1].Configuration().Qualifier)
}

func TestDecodedConfigurationsAreInterned(t *testing.T) {
	l := repotest.New(t, nil)
	l.String("fr", "a", "1")
	l.String("fr", "b", "2")
	l.Add(resource.NewValue(l.Common(resource.Color, "c"), l.Source("fr", "colors.xml"), nil, "#000"))
	l.R.Freeze()

	got := decode(t, encode(t, l.R, nil))
	a := got.Items(resource.ResAuto, resource.String, "a")[0]
	b := got.Items(resource.ResAuto, resource.String, "b")[0]
	c := got.Items(resource.ResAuto, resource.Color, "c")[0]
	assert.Same(t, a.Configuration(), b.Configuration())
	assert.Same(t, a.Configuration(), c.Configuration())
	assert.Same(t, a.(*resource.ValueItem).Source(), b.(*resource.ValueItem).Source())
}

func TestEncodeFilter(t *testing.T) {
	orig := repotest.Rich(t, nil)
	got := decode(t, encode(t, orig, resource.WithoutLocale()))

	names := got.Items(resource.ResAuto, resource.String, "app_name")
	require.Len(t, names, 1)
	assert.Equal(t, "Demo", names[0].Value())
	assert.Empty(t, got.Items(resource.ResAuto, resource.String, "greeting"))
	assert.Len(t, got.Items(resource.ResAuto, resource.Drawable, "icon"), 1)

	got = decode(t, encode(t, orig, resource.MaxAPI(19)))
	assert.Empty(t, got.Items(resource.ResAuto, resource.String, "greeting"))
}

func TestHeaderMismatch(t *testing.T) {
	data := encode(t, repotest.AppNameStrings(t), nil)
	for _, h := range []Header{
		{SourceLocation: "/other.aar", ContentVersion: "c1", CodeVersion: "v1"},
		{SourceLocation: "/libs/demo.aar", ContentVersion: "c2", CodeVersion: "v1"},
		{SourceLocation: "/libs/demo.aar", ContentVersion: "c1", CodeVersion: "v2"},
	} {
		err := Decode(data, h, newTarget())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrHeaderMismatch)
	}

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	assert.ErrorIs(t, Decode(bad, testHeader, newTarget()), ErrHeaderMismatch)
}

func TestReadHeader(t *testing.T) {
	data := encode(t, repotest.AppNameStrings(t), nil)
	h, version, err := NewReader(data, nil).ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, testHeader, h)
	assert.Equal(t, FormatVersion, version)
}

func TestEveryTruncationIsAFormatError(t *testing.T) {
	data := encode(t, repotest.Rich(t, nil), nil)
	for n := 0; n < len(data); n++ {
		err := Decode(data[:n], testHeader, newTarget())
		require.Error(t, err, "prefix %d", n)
		var fe *FormatError
		require.True(t, errors.As(err, &fe), "prefix %d: %v", n, err)
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	data := append(encode(t, repotest.AppNameStrings(t), nil), 0)
	var fe *FormatError
	require.ErrorAs(t, Decode(data, testHeader, newTarget()), &fe)
	assert.Contains(t, fe.Reason, "trailing")
}

func TestBadDiscriminator(t *testing.T) {
	orig := repotest.AppNameStrings(t)
	data := encode(t, orig, nil)

	// Locate the first item: it follows the item count, which is the last
	// varint before the first discriminator byte.
	rd := NewReader(data, nil)
	require.NoError(t, rd.ExpectHeader(testHeader))
	skipTables(t, rd)
	_, err := rd.Count()
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	bad[rd.Offset()] = 0x7f
	var fe *FormatError
	require.ErrorAs(t, Decode(bad, testHeader, newTarget()), &fe)
	assert.Equal(t, rd.Offset(), fe.Offset)
	assert.Contains(t, fe.Reason, "discriminator")
}

func TestKindTypeMismatchRejected(t *testing.T) {
	l := repotest.New(t, nil)
	l.Add(resource.NewStyleable(l.Common(resource.String, "bogus"), l.Source("", "attrs.xml"), nil, nil))
	l.R.Freeze()
	data := encode(t, l.R, nil)

	var fe *FormatError
	require.ErrorAs(t, Decode(data, testHeader, newTarget()), &fe)
	assert.Contains(t, fe.Reason, "kind does not match")
}

func TestKindAllows(t *testing.T) {
	assert.True(t, resource.KindFile.Allows(resource.Layout))
	assert.True(t, resource.KindFile.Allows(resource.Color))
	assert.False(t, resource.KindFile.Allows(resource.String))
	assert.True(t, resource.KindValue.Allows(resource.Color))
	assert.True(t, resource.KindValue.Allows(resource.Drawable))
	assert.False(t, resource.KindValue.Allows(resource.Style))
	assert.True(t, resource.KindStyle.Allows(resource.Style))
	assert.False(t, resource.KindStyle.Allows(resource.Styleable))
	assert.False(t, resource.KindStyleable.Allows(resource.String))
}

func skipTables(t *testing.T, rd *Reader) {
	t.Helper()
	n, err := rd.Count()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err = rd.String()
		require.NoError(t, err)
	}
	n, err = rd.Count()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err = rd.String()
		require.NoError(t, err)
		_, err = rd.Int()
		require.NoError(t, err)
	}
	n, err = rd.Count()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		pairs, err := rd.Count()
		require.NoError(t, err)
		for j := 0; j < 2*pairs; j++ {
			_, err = rd.String()
			require.NoError(t, err)
		}
	}
}

func TestReaderGuards(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Uvarint(1 << 40)
	w.Int(1000)
	w.Varint(-5)
	require.NoError(t, w.Flush())

	rd := NewReader(buf.Bytes(), nil)
	_, err := rd.Int()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, rd.Offset(), "failed reads do not advance")

	_, err = rd.Uvarint()
	require.NoError(t, err)
	_, err = rd.Count()
	assert.ErrorIs(t, err, ErrTruncated, "count larger than the remaining bytes")

	_, err = rd.Int()
	require.NoError(t, err)
	v, err := rd.Varint()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)
	_, err = rd.Byte()
	assert.ErrorIs(t, err, ErrTruncated)

	overflow := NewReader(bytes.Repeat([]byte{0xff}, 11), nil)
	_, err = overflow.Uvarint()
	require.ErrorAs(t, err, &fe)
	assert.NotErrorIs(t, err, ErrTruncated)
}

func TestStringCacheInterning(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.String("shared")
	w.String("shared")
	require.NoError(t, w.Flush())

	cache := MapStringCache{}
	rd := NewReader(buf.Bytes(), cache)
	a, err := rd.String()
	require.NoError(t, err)
	b, err := rd.String()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, cache, 1)

	r := newTarget()
	require.NoError(t, Decode(encode(t, repotest.Rich(t, nil), nil), testHeader, r, WithStringCache(MapStringCache{})))
}
