// Package repository содержит хранилище записей PizzaPortal: ключ-значение по коллекциям.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Коллекции записей.
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
	CollectionCarts  = "carts"
	CollectionOrders = "orders"
	CollectionMenu   = "menu"
)

// Collections перечисляет все коллекции хранилища.
var Collections = []string{
	CollectionUsers,
	CollectionTokens,
	CollectionCarts,
	CollectionOrders,
	CollectionMenu,
}

var (
	// ErrNotFound возвращается, если записи с таким ключом нет.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists возвращается при создании записи с занятым ключом.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidKey возвращается для пустых ключей и ключей с разделителями пути.
	ErrInvalidKey = errors.New("invalid record key")
)

// Store описывает хранилище записей. Операции атомарны только в пределах одного ключа.
type Store interface {
	Create(ctx context.Context, collection, id string, record any) error
	Read(ctx context.Context, collection, id string, dst any) error
	Update(ctx context.Context, collection, id string, record any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]string, error)
	Close() error
}

// ValidateKey проверяет, что коллекция и идентификатор пригодны для использования в качестве ключа.
func ValidateKey(collection, id string) error {
	if err := validateName(collection); err != nil {
		return fmt.Errorf("%w: collection %q", ErrInvalidKey, collection)
	}
	if err := validateName(id); err != nil {
		return fmt.Errorf("%w: id %q", ErrInvalidKey, id)
	}
	return nil
}

func validateName(s string) error {
	if s == "" || s == "." || s == ".." {
		return ErrInvalidKey
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return ErrInvalidKey
	}
	return nil
}
