package storage

import (
	"bytes"
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStorage keeps uploaded objects in process memory for the memory driver.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ contracts.Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) UploadFile(_ context.Context, bucketName, objectName string, file io.Reader, size int64, _ string) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(file, size+1))
	if err != nil {
		return "", exceptions.ErrMinioCreateObject(err, bucketName)
	}
	if n != size {
		return "", exceptions.ErrMinioCreateObject(fmt.Errorf("read %d bytes, expected %d", n, size), bucketName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucketName+"/"+objectName] = buf.Bytes()
	return objectName, nil
}

func (s *MemoryStorage) GetObjectUrlWithExpiryTime(_ context.Context, bucketName, objectName string, expiryTime time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[bucketName+"/"+objectName]
	s.mu.RUnlock()
	if !ok {
		return "", exceptions.ErrMinioFindObjectPresignedURL(fmt.Errorf("object %s not found", objectName), bucketName)
	}

	u := url.URL{Scheme: "memory", Host: bucketName, Path: "/" + objectName}
	q := u.Query()
	q.Set("expires_in", expiryTime.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *MemoryStorage) RemoveFile(_ context.Context, bucketName, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucketName+"/"+objectName)
	return nil
}

// Object returns a stored object, mainly for tests.
func (s *MemoryStorage) Object(bucketName, objectName string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[bucketName+"/"+objectName]
	return data, ok
}
