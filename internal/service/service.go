// Package service реализует бизнес-логику PizzaPortal: токены, пользователей, меню, корзины и заказы.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/gateway"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/render"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

// Options содержит зависимости сервисов.
type Options struct {
	Store    repository.Store
	Menu     model.Menu
	Hasher   *Hasher
	Payments gateway.PaymentGateway
	Mailer   gateway.Mailer
	Renderer *render.Renderer
	Logger   *zap.Logger
	// Now по умолчанию time.Now.
	Now func() time.Time
}

// Service объединяет сервисы ресурсов.
type Service struct {
	Tokens *TokenService
	Users  *UserService
	Menu   *MenuService
	Carts  *CartService
	Orders *OrderService
}

// New собирает сервисы ресурсов поверх общего хранилища.
func New(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	tokens := &TokenService{store: opts.Store, hasher: opts.Hasher, now: opts.Now}
	carts := &CartService{store: opts.Store, tokens: tokens, menu: opts.Menu}

	return &Service{
		Tokens: tokens,
		Users: &UserService{
			store:  opts.Store,
			hasher: opts.Hasher,
			tokens: tokens,
			logger: opts.Logger,
		},
		Menu:  &MenuService{tokens: tokens, menu: opts.Menu},
		Carts: carts,
		Orders: &OrderService{
			store:    opts.Store,
			tokens:   tokens,
			carts:    carts,
			payments: opts.Payments,
			mailer:   opts.Mailer,
			renderer: opts.Renderer,
			logger:   opts.Logger,
			now:      opts.Now,
		},
	}
}

func readUser(ctx context.Context, store repository.Store, email string) (*model.User, error) {
	var u model.User
	if err := store.Read(ctx, repository.CollectionUsers, email, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidKey)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
