package test

import (
	"context"
	"sync"

	"github.com/airenas/speakhw/internal/pkg/storage"
	"github.com/pkg/errors"
)

//MemoryStore is an in memory storage.ObjectStore for tests
type MemoryStore struct {
	m sync.Mutex
	// Data keeps stored objects by key
	Data map[string][]byte
	// ContentTypes keeps content type passed to Put
	ContentTypes map[string]string
	// FailGet, FailPut, FailExists makes operations on keys fail with an internal error
	FailGet    map[string]bool
	FailPut    map[string]bool
	FailExists map[string]bool
	// Puts counts Put calls per key
	Puts map[string]int
}

//NewMemoryStore creates empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Data: map[string][]byte{}, ContentTypes: map[string]string{},
		FailGet: map[string]bool{}, FailPut: map[string]bool{}, FailExists: map[string]bool{}, Puts: map[string]int{}}
}

//ErrTest is returned by injected failures
var ErrTest = errors.New("test failure")

//Exists checks key
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.FailExists[key] {
		return false, ErrTest
	}
	_, ok := s.Data[key]
	return ok, nil
}

//Get returns copy of data
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.FailGet[key] {
		return nil, ErrTest
	}
	d, ok := s.Data[key]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, key)
	}
	return append([]byte(nil), d...), nil
}

//Put saves copy of data
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.FailPut[key] {
		return ErrTest
	}
	s.Data[key] = append([]byte(nil), data...)
	s.ContentTypes[key] = contentType
	s.Puts[key]++
	return nil
}

//String returns object as string
func (s *MemoryStore) String(key string) string {
	s.m.Lock()
	defer s.m.Unlock()
	return string(s.Data[key])
}
