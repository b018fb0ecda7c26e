package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const mockBlobBaseURL = "https://test-bucket.s3.eu-central-1.amazonaws.com/"

// MockBlobStore is an in-memory BlobStore for tests
type MockBlobStore struct {
	objects map[string][]byte // key -> content
	types   map[string]string // key -> content type
	mu      sync.RWMutex
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = content
	m.types[key] = contentType
	m.mu.Unlock()

	return mockBlobBaseURL + key, nil
}

func (m *MockBlobStore) PresignedURL(ctx context.Context, objectURL string) (string, error) {
	key := strings.TrimPrefix(objectURL, mockBlobBaseURL)
	if !m.Exists(key) {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}
	return objectURL + "?mock=true", nil
}

// Exists checks if a key exists in mock storage
func (m *MockBlobStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}

// Objects returns a copy of everything stored, keyed by object key
func (m *MockBlobStore) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}

// ContentType returns the content type key was stored with
func (m *MockBlobStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[key]
}
