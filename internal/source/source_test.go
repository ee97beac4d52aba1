package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/handbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, nil)
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, srv.URL, src.Name())
}

func TestHTTPSource_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPSource_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, nil).WithMaxBytes(16).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrTooLarge))

	data, err := NewHTTPSource(srv.URL, nil).WithMaxBytes(64).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestHTTPSource_RespectsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Delay, but check context to avoid blocking server.Close()
		select {
		case <-time.After(10 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewHTTPSource(srv.URL, nil).Fetch(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url, nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"departments":[]}`), 0644))

	src := NewFileSource(path)
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"departments":[]}`, string(data))
	assert.Equal(t, path, src.Name())

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	assert.Nil(t, FromConfig(config.SeedConfig{}))
	assert.IsType(t, &HTTPSource{}, FromConfig(config.SeedConfig{URL: "http://example.com/seed.json"}))
	assert.IsType(t, &FileSource{}, FromConfig(config.SeedConfig{File: "seed.json"}))
}
