package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore хранит записи в памяти процесса. Используется в тестах и при STORAGE=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.records[collection]
	if !ok {
		c = make(map[string][]byte)
		s.records[collection] = c
	}
	if _, exists := c[id]; exists {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}
	c[id] = data
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	s.mu.RLock()
	data, ok := s.records[collection][id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode record %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	s.records[collection][id] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	delete(s.records[collection], id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records[collection]))
	for id := range s.records[collection] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
