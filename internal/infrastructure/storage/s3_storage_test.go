package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeledger/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:     endpoint,
		Region:       "ap-northeast-1",
		Bucket:       "invoices",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		UsePathStyle: true,
	}
}

func TestNewS3Storage_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Storage(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	cfg := testConfig("localhost:9000")
	cfg.Bucket = ""
	_, err = NewS3Storage(ctx, cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = testConfig("localhost:9000")
	cfg.SecretKey = ""
	_, err = NewS3Storage(ctx, cfg)
	assert.ErrorContains(t, err, "secret key")

	s, err := NewS3Storage(ctx, testConfig("localhost:9000"))
	require.NoError(t, err)
	assert.Equal(t, "invoices", s.Bucket())
	assert.Equal(t, 15*time.Minute, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)

	got, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = normalizeEndpoint("http://", false)
	assert.Error(t, err)
}

func TestS3Storage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), testConfig("http://localhost:9000"))
	require.NoError(t, err)

	link, expiresAt, err := s.GenerateDownloadURL(context.Background(), "invoices/INV-1/v1.pdf", 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/invoices/invoices/INV-1/v1.pdf", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)

	_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)
}

func TestS3Storage_Upload(t *testing.T) {
	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotBody     string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod, gotPath, gotBody = r.Method, r.URL.Path, string(body)
		contentType = r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Storage(context.Background(), testConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, s.Upload(context.Background(), "docs/INV-9.pdf", []byte("%PDF-1.7"), "application/pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/invoices/docs/INV-9.pdf", gotPath)
	assert.True(t, strings.Contains(gotBody, "%PDF-1.7"))
	assert.Equal(t, "application/pdf", contentType)

	assert.Error(t, s.Upload(context.Background(), "", nil, "application/pdf"))
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage("http://localhost:8080/files/")
	ctx := context.Background()

	_, _, err := m.GenerateDownloadURL(ctx, "a.pdf", time.Minute)
	assert.Error(t, err)

	data := []byte("pdf bytes")
	require.NoError(t, m.Upload(ctx, "invoices/a.pdf", data, "application/pdf"))
	data[0] = 'X'

	stored, ct, ok := m.Get("invoices/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "pdf bytes", string(stored))
	assert.Equal(t, "application/pdf", ct)

	link, _, err := m.GenerateDownloadURL(ctx, "invoices/a.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/files/invoices/a.pdf?expires="))

	assert.Error(t, m.Upload(ctx, "", data, ""))
}
