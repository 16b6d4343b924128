package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const recordExt = ".json"

// FileStore хранит каждую запись отдельным JSON-файлом: <dir>/<collection>/<id>.json.
type FileStore struct {
	baseDir string
}

// NewFileStore создаёт файловое хранилище и каталоги всех коллекций.
func NewFileStore(baseDir string) (*FileStore, error) {
	for _, c := range Collections {
		if err := os.MkdirAll(filepath.Join(baseDir, c), 0o755); err != nil {
			return nil, fmt.Errorf("create collection dir %s: %w", c, err)
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(collection, id string) string {
	return filepath.Join(s.baseDir, collection, id+recordExt)
}

// Create записывает новую запись; занятый ключ даёт ErrAlreadyExists.
func (s *FileStore) Create(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(s.path(collection, id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
		}
		return fmt.Errorf("create record: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	return nil
}

// Read читает запись в dst.
func (s *FileStore) Read(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(collection, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return fmt.Errorf("read record: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode record %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update полностью заменяет существующую запись.
func (s *FileStore) Update(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(s.path(collection, id), os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return fmt.Errorf("open record: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	return nil
}

// Delete удаляет запись.
func (s *FileStore) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	if err := os.Remove(s.path(collection, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List возвращает идентификаторы всех записей коллекции.
func (s *FileStore) List(ctx context.Context, collection string) ([]string, error) {
	if err := validateName(collection); err != nil {
		return nil, fmt.Errorf("%w: collection %q", ErrInvalidKey, collection)
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list records: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), recordExt))
	}
	return ids, nil
}

// Close ничего не делает: файловое хранилище не держит открытых ресурсов.
func (s *FileStore) Close() error {
	return nil
}
