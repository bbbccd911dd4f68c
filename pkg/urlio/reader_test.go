package urlio_test

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/urlio"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const utf8Text = "Hello, ゼロ!\n"

func newReader(t *testing.T, files map[string]string) *urlio.Reader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	return urlio.NewReader(fs)
}

func TestRead_Files(t *testing.T) {
	r := newReader(t, map[string]string{"/addon/data/style.css": "a{color:red}"})

	t.Run("plain path", func(t *testing.T) {
		got, err := r.Read("/addon/data/style.css")
		require.NoError(t, err)
		assert.Equal(t, "a{color:red}", got)
	})

	t.Run("file URL", func(t *testing.T) {
		got, err := r.Read("file:///addon/data/style.css")
		require.NoError(t, err)
		assert.Equal(t, "a{color:red}", got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := r.Read("file:///addon/data/missing.css")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
		assert.Contains(t, err.Error(), "Failed to read: file:///addon/data/missing.css")
	})
}

func TestRead_DataURI(t *testing.T) {
	r := newReader(t, nil)

	t.Run("percent encoded utf-8", func(t *testing.T) {
		got, err := r.Read("data:text/plain;charset=utf-8," + url.PathEscape(utf8Text))
		require.NoError(t, err)
		assert.Equal(t, utf8Text, got)
	})

	t.Run("base64", func(t *testing.T) {
		got, err := r.Read("data:text/css;base64," + base64.StdEncoding.EncodeToString([]byte("b{}")))
		require.NoError(t, err)
		assert.Equal(t, "b{}", got)
	})

	t.Run("declared latin1 charset", func(t *testing.T) {
		got, err := r.Read("data:text/plain;charset=ISO-8859-1,Hello, %E3!")
		require.NoError(t, err)
		assert.Equal(t, "Hello, ã!", got)
	})

	t.Run("explicit charset overrides", func(t *testing.T) {
		got, err := r.ReadCharset("data:text/plain,%E9t%E9", "ISO-8859-1")
		require.NoError(t, err)
		assert.Equal(t, "été", got)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := r.Read("data:text/plain")
		assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	})
}

func TestRead_Unsupported(t *testing.T) {
	r := newReader(t, nil)

	for _, raw := range []string{"", "http://example.com/style.css", "data:text/plain;charset=no-such-charset,x"} {
		t.Run(raw, func(t *testing.T) {
			_, err := r.Read(raw)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
		})
	}
}
