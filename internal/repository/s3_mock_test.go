package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a tiny in-memory S3 subset served over a RoundTripper. It
// handles path-style GetObject and PutObject.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	failPut bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Path-style: /<bucket>/<key>
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch req.Method {
	case http.MethodPut:
		if f.failPut {
			return xmlError(http.StatusForbidden, "AccessDenied"), nil
		}
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunkedLite(body); ok {
			body = dec
		}
		f.objects[key] = body
		f.puts++
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return xmlError(http.StatusNotFound, "NoSuchKey"), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"application/json"},
			"ETag":           {"\"etag\""},
		}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return b, ok
}

func xmlError(status int, code string) *http.Response {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{"Content-Type": {"application/xml"}}}
}

// decodeChunkedLite decodes a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunkedLite(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	var sz int64
	if _, err := fmt.Sscanf(parts[0], "%x", &sz); err != nil {
		return nil, false
	}
	if int64(len(parts[1])) != sz || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newTestS3Store(t *testing.T, fake *fakeS3, prefix string) *S3BlobStore {
	t.Helper()
	store, err := NewS3BlobStore(context.Background(), S3Config{
		Bucket:      "handbook-test",
		Region:      "us-east-1",
		Endpoint:    "https://mock.s3.local",
		PathStyle:   true,
		Prefix:      prefix,
		HTTPClient:  &http.Client{Transport: fake},
		Credentials: credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
	})
	require.NoError(t, err)
	return store
}
