// Package source fetches the bulk-load document used to seed an empty catalog.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/alexanderramin/handbook/internal/config"
)

// DefaultMaxBytes caps the size of a fetched document.
const DefaultMaxBytes = 32 << 20

var (
	// ErrUnavailable indicates the seed endpoint could not be reached.
	ErrUnavailable = errors.New("seed source unavailable")

	// ErrTooLarge indicates the document exceeded the size limit.
	ErrTooLarge = errors.New("seed document too large")
)

// Source yields the raw bytes of a seed document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// HTTPSource fetches a document with a GET request.
type HTTPSource struct {
	url      string
	http     *http.Client
	maxBytes int64
}

// NewHTTPSource creates a source reading url. A nil client gets a default
// one with a short dial timeout; the caller bounds the whole fetch via ctx.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		}
	}
	return &HTTPSource{url: url, http: client, maxBytes: DefaultMaxBytes}
}

// WithMaxBytes returns s with a different size limit.
func (s *HTTPSource) WithMaxBytes(n int64) *HTTPSource {
	s.maxBytes = n
	return s
}

func (s *HTTPSource) Name() string { return s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("fetching %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}
	return body, nil
}

// FileSource reads a document from the local filesystem.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return data, nil
}

// FromConfig returns the source named by cfg, or nil when none is configured.
func FromConfig(cfg config.SeedConfig) Source {
	switch {
	case cfg.URL != "":
		return NewHTTPSource(cfg.URL, nil)
	case cfg.File != "":
		return NewFileSource(cfg.File)
	default:
		return nil
	}
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
