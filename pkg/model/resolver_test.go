package model

import (
	"testing"

	"github.com/aretw0/treetagger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		path     string
		encoding string
		check    bool
	}{
		{"testdata/dummyModel.par", "", true},
		{"testdata/dummyModel.par", "UTF-8", true},
		{"testdata/dummyModel.par", "iso8859-1", true},
		{`C:\dummyModel.par`, "", false},
		{"C:/dummyModel.par", "", false},
		{`C:\dummyModel.par`, "UTF-8", false},
		{"C:/dummyModel.par", "UTF-8", false},
		{"/opt/tt/lib/english.par", "ISO-8859-1", false},
	}

	for _, tt := range tests {
		spec := tt.path
		if tt.encoding != "" {
			spec += ":" + tt.encoding
		}
		t.Run(spec, func(t *testing.T) {
			d, err := Resolve(spec, tt.check)
			require.NoError(t, err)

			want := tt.encoding
			if want == "" {
				want = DefaultEncoding
			}
			assert.Equal(t, tt.path, d.Path)
			assert.Equal(t, spec, d.Name)
			assert.Equal(t, want, d.Encoding)
			assert.NotNil(t, d.Charset())
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Run("Protocol Prefixed Path", func(t *testing.T) {
		_, err := Resolve("file:testdata/dummyModel.par", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := Resolve("testdata/missing.par:UTF-8", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Directory Is Not A Model", func(t *testing.T) {
		_, err := Resolve("testdata", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Unchecked Protocol Path Is Kept Whole", func(t *testing.T) {
		d, err := Resolve("file:testdata/dummyModel.par", false)
		require.NoError(t, err)
		assert.Equal(t, "file:testdata/dummyModel.par", d.Path)
		assert.Equal(t, DefaultEncoding, d.Encoding)
	})

	t.Run("Empty Path", func(t *testing.T) {
		_, err := Resolve(":UTF-8", false)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestResolve_UnsupportedEncoding(t *testing.T) {
	_, err := Resolve("model.par:klingon-1", false)
	assert.ErrorIs(t, err, domain.ErrUnsupportedEncoding)
}

type fakeFiles map[string]bool

func (f fakeFiles) Exists(path string) bool {
	_, ok := f[path]
	return ok
}

func (f fakeFiles) Readable(path string) bool {
	return f[path]
}

func TestResolver_FileChecker(t *testing.T) {
	files := fakeFiles{"present.par": true, "locked.par": false}
	r := NewResolver(WithExistenceCheck(true), WithFileChecker(files))

	_, err := r.Resolve("present.par:UTF-8")
	assert.NoError(t, err)

	_, err = r.Resolve("locked.par")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Resolve("absent.par")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		spec, path, enc string
	}{
		{"english.par", "english.par", "UTF-8"},
		{"english.par:latin1", "english.par", "latin1"},
		{"dir:with/colon.par", "dir:with/colon.par", "UTF-8"},
		{`D:\models\german.par:utf-8`, `D:\models\german.par`, "utf-8"},
		{"d:/german.par", "d:/german.par", "UTF-8"},
		{"model.par:", "model.par:", "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			path, enc := Split(tt.spec)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.enc, enc)
		})
	}
}

func TestDescriptor_Equal(t *testing.T) {
	a, err := Resolve("english.par:utf-8", false)
	require.NoError(t, err)
	b, err := Resolve("english.par:UTF-8", false)
	require.NoError(t, err)
	c, err := Resolve("english.par:latin1", false)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
