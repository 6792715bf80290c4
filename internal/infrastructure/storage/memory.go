package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
)

var _ appreceivable.ObjectStorage = (*MemoryStorage)(nil)

// MemoryStorage keeps documents in process. It backs local runs without
// an object store; links point at BaseURL and are not signed.
type MemoryStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[storageKey] = memoryObject{data: buf, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object %s not found", storageKey)
	}
	expiresAt := time.Now().Add(expiresIn)
	link := fmt.Sprintf("%s/%s?expires=%s", m.BaseURL, storageKey, url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)))
	return link, expiresAt, nil
}

// Get returns a stored object, for tests and the local download route.
func (m *MemoryStorage) Get(storageKey string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj.data, obj.contentType, ok
}
