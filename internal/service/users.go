package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

// UserService управляет учётными записями пользователей.
type UserService struct {
	store  repository.Store
	hasher *Hasher
	tokens *TokenService
	logger *zap.Logger
}

// Register создаёт пользователя без корзины и заказов.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (model.User, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return model.User{}, err
	}
	if err := repository.ValidateKey(repository.CollectionUsers, req.Email); err != nil {
		return model.User{}, badRequest("Invalid email")
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, newError(ErrHashingFailed, "Could not hash the user's password")
	}

	user := model.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		StreetAddress:  req.StreetAddress,
		HashedPassword: hashed,
		TOSAgreement:   true,
	}
	if err := s.store.Create(ctx, repository.CollectionUsers, user.Email, &user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.User{}, newError(ErrConflict, msgUserExists)
		}
		return model.User{}, storageError("create user", err)
	}
	return user.Public(), nil
}

// Get возвращает профиль пользователя без хеша пароля.
func (s *UserService) Get(ctx context.Context, email, token string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, badRequest("Missing required field")
	}
	if err := s.tokens.Validate(ctx, token, email); err != nil {
		return model.User{}, err
	}

	user, err := readUser(ctx, s.store, email)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, newError(ErrNotFound, msgUserMissing)
		}
		return model.User{}, storageError("read user", err)
	}
	return user.Public(), nil
}

// Update меняет переданные поля профиля. Пароль хешируется заново.
func (s *UserService) Update(ctx context.Context, token string, req UpdateUserRequest) (model.User, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return model.User{}, err
	}
	if !req.hasChanges() {
		return model.User{}, badRequest(msgNothingToUpdate)
	}
	if err := s.tokens.Validate(ctx, token, req.Email); err != nil {
		return model.User{}, err
	}

	user, err := readUser(ctx, s.store, req.Email)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, badRequest(msgUserNotExists)
		}
		return model.User{}, storageError("read user", err)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.StreetAddress != "" {
		user.StreetAddress = req.StreetAddress
	}
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return model.User{}, newError(ErrHashingFailed, "Could not hash the user's password")
		}
		user.HashedPassword = hashed
	}

	if err := s.store.Update(ctx, repository.CollectionUsers, user.Email, user); err != nil {
		return model.User{}, storageError("update user", err)
	}
	return user.Public(), nil
}

type deletedRecord struct {
	collection string
	id         string
	data       json.RawMessage
}

// Delete удаляет пользователя вместе с корзиной и заказами. Если хотя бы одна
// запись не удалилась, уже удалённые восстанавливаются, а пользователь остаётся.
func (s *UserService) Delete(ctx context.Context, email, token string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return badRequest("Missing required field")
	}
	if err := s.tokens.Validate(ctx, token, email); err != nil {
		return err
	}

	user, err := readUser(ctx, s.store, email)
	if err != nil {
		if isNotFound(err) {
			return badRequest(msgUserNotFound)
		}
		return storageError("read user", err)
	}

	type target struct{ collection, id string }
	targets := make([]target, 0, len(user.Orders)+1)
	if user.CartID != "" {
		targets = append(targets, target{repository.CollectionCarts, user.CartID})
	}
	for _, id := range user.Orders {
		targets = append(targets, target{repository.CollectionOrders, id})
	}

	var deleted []deletedRecord
	for _, t := range targets {
		rec, err := s.remove(ctx, t.collection, t.id)
		if err != nil {
			s.restore(ctx, deleted)
			return err
		}
		if rec != nil {
			deleted = append(deleted, *rec)
		}
	}

	if err := s.store.Delete(ctx, repository.CollectionUsers, email); err != nil {
		s.restore(ctx, deleted)
		if errors.Is(err, repository.ErrNotFound) {
			return badRequest(msgUserNotFound)
		}
		return storageError("delete user", err)
	}
	return nil
}

// remove удаляет запись, предварительно сохранив её содержимое. Отсутствующая запись
// считается удалённой, и для неё возвращается nil.
func (s *UserService) remove(ctx context.Context, collection, id string) (*deletedRecord, error) {
	var data json.RawMessage
	if err := s.store.Read(ctx, collection, id, &data); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError("read "+collection, err)
	}

	if err := s.store.Delete(ctx, collection, id); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError("delete "+collection, err)
	}
	return &deletedRecord{collection: collection, id: id, data: data}, nil
}

func (s *UserService) restore(ctx context.Context, records []deletedRecord) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range records {
		if err := s.store.Create(ctx, r.collection, r.id, r.data); err != nil {
			s.logger.Error("restore record after failed user delete",
				zap.String("collection", r.collection),
				zap.String("id", r.id),
				zap.Error(err),
			)
		}
	}
}
