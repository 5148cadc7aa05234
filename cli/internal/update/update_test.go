package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	s, err := Compare("0.3.0", "v0.4.1")
	require.NoError(t, err)
	assert.True(t, s.Available())

	s, err = Compare("1.0.0", "1.0.0")
	require.NoError(t, err)
	assert.False(t, s.Available())

	s, err = Compare("1.0.0", "1.0.0-rc1")
	require.NoError(t, err)
	assert.False(t, s.Available())

	_, err = Compare("dev", "1.0.0")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Write([]byte(`{"tag_name": "v0.5.0", "name": "phpattr 0.5.0"}`))
	}))
	defer srv.Close()

	s, err := Check(context.Background(), srv.Client(), srv.URL, "0.3.0")
	require.NoError(t, err)
	assert.True(t, s.Available())
	assert.Equal(t, "0.5.0", s.Latest.String())
	assert.Equal(t,
		"https://github.com/satishbabariya/phpattr/releases/download/v0.5.0/phpattr-"+runtime.GOOS+"-"+runtime.GOARCH,
		DownloadURL(s.Latest))
}

func TestLatestErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/empty":
			w.Write([]byte(`{}`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/missing", "/empty", "/garbage"} {
		_, err := Latest(context.Background(), srv.Client(), srv.URL+path)
		assert.Error(t, err, path)
	}
}
