package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	catalogapp "github.com/flowershop/storefront/internal/application/catalog"
)

var _ catalogapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process memory. It backs local
// development when no S3 endpoint is configured. Presigned URLs point at
// BaseURL and are not served by anything.
type MemoryObjectStorage struct {
	BaseURL string

	// AssumeUploaded makes ObjectExists report true for keys that were only
	// presigned, so the upload confirmation flow works without a real bucket.
	AssumeUploaded bool

	mu        sync.RWMutex
	objects   map[string][]byte
	presigned map[string]struct{}
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/storefront"
	}
	return &MemoryObjectStorage{
		BaseURL:   baseURL,
		objects:   make(map[string][]byte),
		presigned: make(map[string]struct{}),
	}
}

// GenerateUploadURL returns a fake presigned PUT URL and remembers the key
func (m *MemoryObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	m.mu.Lock()
	m.presigned[storageKey] = struct{}{}
	m.mu.Unlock()
	return m.url(storageKey, expiresIn)
}

// GenerateDownloadURL returns a fake presigned GET URL
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	return m.url(storageKey, expiresIn)
}

func (m *MemoryObjectStorage) url(storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": {fmt.Sprint(expiresAt.Unix())}}
	return m.BaseURL + "/" + storageKey + "?" + q.Encode(), expiresAt, nil
}

// DeleteObject removes storageKey
func (m *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	delete(m.presigned, storageKey)
	return nil
}

// ObjectExists reports whether storageKey was written (or presigned, when
// AssumeUploaded is set)
func (m *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[storageKey]; ok {
		return true, nil
	}
	_, presigned := m.presigned[storageKey]
	return m.AssumeUploaded && presigned, nil
}

// Put stores a copy of data
func (m *MemoryObjectStorage) Put(_ context.Context, storageKey, _ string, data []byte) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the object
func (m *MemoryObjectStorage) Get(_ context.Context, storageKey string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[storageKey]
	if !ok {
		return nil, fmt.Errorf("object %q not found", storageKey)
	}
	return append([]byte(nil), data...), nil
}
