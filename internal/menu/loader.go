// Package menu загружает снимок меню при старте сервиса.
package menu

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

// RecordID задаёт идентификатор записи меню в коллекции menu.
const RecordID = "menu"

//go:embed menu.yaml
var defaultMenu []byte

// ErrEmptyMenu возвращается, если файл меню не содержит позиций.
var ErrEmptyMenu = errors.New("menu has no items")

type seedFile struct {
	Items map[string]model.Money `yaml:"items"`
}

// Loader читает меню из хранилища и при его отсутствии заполняет хранилище из YAML.
type Loader struct {
	store  repository.Store
	path   string
	logger *zap.Logger
}

// NewLoader создаёт загрузчик. Пустой path означает встроенное меню по умолчанию.
func NewLoader(store repository.Store, path string, logger *zap.Logger) *Loader {
	return &Loader{store: store, path: path, logger: logger}
}

// Load возвращает неизменяемый снимок меню.
func (l *Loader) Load(ctx context.Context) (model.Menu, error) {
	var m model.Menu
	err := l.store.Read(ctx, repository.CollectionMenu, RecordID, &m)
	if err == nil {
		l.logger.Info("menu loaded from store", zap.Int("items", m.Len()))
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Menu{}, fmt.Errorf("read menu: %w", err)
	}

	m, err = l.seed()
	if err != nil {
		return model.Menu{}, err
	}

	if err := l.store.Create(ctx, repository.CollectionMenu, RecordID, m); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return model.Menu{}, fmt.Errorf("store menu: %w", err)
		}
		// Запись успел создать другой процесс.
		if err := l.store.Read(ctx, repository.CollectionMenu, RecordID, &m); err != nil {
			return model.Menu{}, fmt.Errorf("read menu: %w", err)
		}
	}

	l.logger.Info("menu seeded", zap.String("source", l.source()), zap.Int("items", m.Len()))
	return m, nil
}

func (l *Loader) source() string {
	if l.path == "" {
		return "embedded"
	}
	return l.path
}

func (l *Loader) seed() (model.Menu, error) {
	data := defaultMenu
	if l.path != "" {
		var err error
		data, err = os.ReadFile(l.path)
		if err != nil {
			return model.Menu{}, fmt.Errorf("read menu file: %w", err)
		}
	}
	return Parse(data)
}

// Parse разбирает YAML вида items: {название: "$цена"}.
func Parse(data []byte) (model.Menu, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.Menu{}, fmt.Errorf("parse menu: %w", err)
	}
	if len(f.Items) == 0 {
		return model.Menu{}, ErrEmptyMenu
	}
	for name, price := range f.Items {
		if price <= 0 {
			return model.Menu{}, fmt.Errorf("menu item %q: price must be positive", name)
		}
	}
	return model.NewMenu(f.Items), nil
}
