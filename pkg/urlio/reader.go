// Package urlio reads local resources named by URL: data: URIs, file: URLs
// and plain filesystem paths.
package urlio

import (
	"encoding/base64"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/htmlindex"
)

// Reader reads resources synchronously from a filesystem
type Reader struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewReader creates a Reader over fs. A nil fs reads the real filesystem.
func NewReader(fs afero.Fs) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reader{
		fs:     fs,
		logger: logging.GetLogger("urlio"),
	}
}

// Read returns the content of rawURL decoded as UTF-8
func (r *Reader) Read(rawURL string) (string, error) {
	return r.ReadCharset(rawURL, "")
}

// ReadCharset returns the content of rawURL decoded from charset. An empty
// charset means UTF-8 unless a data: URI declares its own.
func (r *Reader) ReadCharset(rawURL, charset string) (string, error) {
	data, declared, err := r.readBytes(rawURL)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", rawURL).Msg("Read failed")
		return "", errors.Wrapf(err, errors.ErrIO, "Failed to read: %s", rawURL).
			WithDetail("url", rawURL)
	}

	if charset == "" {
		charset = declared
	}
	text, err := decode(data, charset)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "Failed to read: %s", rawURL).
			WithDetail("url", rawURL).
			WithDetail("charset", charset)
	}
	return text, nil
}

func (r *Reader) readBytes(rawURL string) ([]byte, string, error) {
	if rawURL == "" {
		return nil, "", errors.New(errors.ErrInvalidInput, "empty URL")
	}

	scheme := ""
	if i := strings.Index(rawURL, ":"); i > 1 {
		scheme = strings.ToLower(rawURL[:i])
	}

	switch scheme {
	case "data":
		return parseDataURI(rawURL)
	case "file":
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, "", err
		}
		data, err := afero.ReadFile(r.fs, filepath.FromSlash(u.Path))
		return data, "", err
	case "":
		data, err := afero.ReadFile(r.fs, rawURL)
		return data, "", err
	default:
		return nil, "", errors.Newf(errors.ErrInvalidInput, "unsupported scheme %q", scheme)
	}
}

// parseDataURI decodes data:[<mediatype>][;base64],<data>
func parseDataURI(rawURL string) ([]byte, string, error) {
	rest := rawURL[len("data:"):]
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, "", errors.New(errors.ErrInvalidInput, "malformed data URI: missing ','")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	isBase64 := false
	charset := ""
	for _, param := range strings.Split(meta, ";") {
		param = strings.TrimSpace(param)
		switch {
		case strings.EqualFold(param, "base64"):
			isBase64 = true
		case strings.HasPrefix(strings.ToLower(param), "charset="):
			charset = param[len("charset="):]
		}
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", err
	}
	if !isBase64 {
		return []byte(unescaped), charset, nil
	}
	data, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return nil, "", err
	}
	return data, charset, nil
}

func decode(data []byte, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(data), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(enc.NewDecoder().Reader(strings.NewReader(string(data))))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
