package service

import (
	"context"
	"sort"
	"strings"

	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

// MaxItemQuantity ограничивает количество одной позиции в корзине.
const MaxItemQuantity = 1000

// CartService управляет корзинами пользователей.
type CartService struct {
	store  repository.Store
	tokens *TokenService
	menu   model.Menu
}

// Create создаёт пустую корзину и привязывает её к пользователю.
// Запись корзины и обновление пользователя не атомарны.
func (s *CartService) Create(ctx context.Context, token string, req CreateCartRequest) (string, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return "", err
	}
	if err := s.tokens.Validate(ctx, token, req.Email); err != nil {
		return "", err
	}

	user, err := readUser(ctx, s.store, req.Email)
	if err != nil {
		if isNotFound(err) {
			return "", badRequest(msgUserMissing)
		}
		return "", storageError("read user", err)
	}
	if user.CartID != "" {
		return "", newError(ErrConflict, msgCartExists)
	}

	id, err := NewID()
	if err != nil {
		return "", err
	}
	cart := model.Cart{
		ID:    id,
		Email: user.Email,
		Items: map[string]model.CartItem{},
	}
	if err := s.store.Create(ctx, repository.CollectionCarts, id, &cart); err != nil {
		return "", storageError("create cart", err)
	}

	user.CartID = id
	if err := s.store.Update(ctx, repository.CollectionUsers, user.Email, user); err != nil {
		return "", storageError("update user", err)
	}
	return id, nil
}

// Get возвращает корзину владельцу токена.
func (s *CartService) Get(ctx context.Context, id, token string) (*model.Cart, error) {
	return s.readOwned(ctx, strings.TrimSpace(id), token)
}

// UpdateItems применяет приращения количества к позициям корзины.
// Итог накапливается от сохранённой суммы, а не пересчитывается заново.
func (s *CartService) UpdateItems(ctx context.Context, token string, req UpdateCartRequest) (*model.Cart, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	var unknown []string
	for name := range req.Items {
		if !s.menu.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, badRequest("Items are not on the menu: %s", strings.Join(unknown, ", "))
	}

	cart, err := s.readOwned(ctx, req.ID, token)
	if err != nil {
		return nil, err
	}

	if err := applyDeltas(cart, req.Items, s.menu); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, repository.CollectionCarts, cart.ID, cart); err != nil {
		return nil, storageError("update cart", err)
	}
	return cart, nil
}

// applyDeltas проверяет все приращения до изменения корзины: количество позиции
// не может превысить MaxItemQuantity.
func applyDeltas(cart *model.Cart, deltas map[string]int, menu model.Menu) error {
	var overLimit []string
	for name, d := range deltas {
		if d > MaxItemQuantity || d < -MaxItemQuantity ||
			cart.Items[name].Quantity+d > MaxItemQuantity {
			overLimit = append(overLimit, name)
		}
	}
	if len(overLimit) > 0 {
		sort.Strings(overLimit)
		return badRequest("Quantity cannot exceed %d for items: %s", MaxItemQuantity, strings.Join(overLimit, ", "))
	}

	if cart.Items == nil {
		cart.Items = map[string]model.CartItem{}
	}
	total := cart.TotalAmount

	for name, d := range deltas {
		price, _ := menu.Price(name)

		item, ok := cart.Items[name]
		if !ok {
			if d > 0 {
				cart.Items[name] = model.CartItem{Quantity: d, Amount: price.Times(d)}
				total += price.Times(d)
			}
			continue
		}

		q := item.Quantity + d
		if d == 0 || q <= 0 {
			delete(cart.Items, name)
			total -= price.Times(item.Quantity)
			continue
		}
		cart.Items[name] = model.CartItem{Quantity: q, Amount: price.Times(q)}
		total += price.Times(d)
	}

	cart.TotalAmount = total
	return nil
}

// readOwned читает корзину и проверяет, что токен выдан её владельцу.
func (s *CartService) readOwned(ctx context.Context, id, token string) (*model.Cart, error) {
	if !IsValidID(id) {
		return nil, badRequest("Invalid or missing cart id")
	}

	var cart model.Cart
	if err := s.store.Read(ctx, repository.CollectionCarts, id, &cart); err != nil {
		if isNotFound(err) {
			return nil, notFound(repository.CollectionCarts)
		}
		return nil, storageError("read cart", err)
	}

	if err := s.tokens.Validate(ctx, token, cart.Email); err != nil {
		return nil, err
	}
	return &cart, nil
}
