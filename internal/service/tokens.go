package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

// TokenTTL задаёт срок действия токена после выдачи или продления.
const TokenTTL = time.Hour

// TokenService выдаёт, проверяет, продлевает и отзывает токены доступа.
type TokenService struct {
	store  repository.Store
	hasher *Hasher
	now    func() time.Time
}

// Issue проверяет пароль пользователя и выдаёт новый токен.
func (s *TokenService) Issue(ctx context.Context, req LoginRequest) (*model.Token, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	user, err := readUser(ctx, s.store, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, newError(ErrNotFound, msgUserMissing)
		}
		return nil, storageError("read user", err)
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, newError(ErrInvalidCredentials, msgPasswordMatch)
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}
	token := &model.Token{
		ID:      id,
		Email:   user.Email,
		Expires: s.now().Add(TokenTTL).UnixMilli(),
	}
	if err := s.store.Create(ctx, repository.CollectionTokens, id, token); err != nil {
		return nil, storageError("create token", err)
	}
	return token, nil
}

// Validate проверяет, что токен существует, не истёк и, если email не пуст, выдан этому пользователю.
func (s *TokenService) Validate(ctx context.Context, tokenID, email string) error {
	tokenID = strings.TrimSpace(tokenID)
	if !IsValidID(tokenID) {
		return forbidden()
	}

	var token model.Token
	if err := s.store.Read(ctx, repository.CollectionTokens, tokenID, &token); err != nil {
		if isNotFound(err) {
			return forbidden()
		}
		return storageError("read token", err)
	}

	if !token.Valid(s.now()) {
		return forbidden()
	}
	if email != "" && token.Email != email {
		return forbidden()
	}
	return nil
}

// Get возвращает запись токена. Истёкшие токены тоже читаются.
func (s *TokenService) Get(ctx context.Context, id string) (*model.Token, error) {
	id = strings.TrimSpace(id)
	if !IsValidID(id) {
		return nil, badRequest("Missing required field")
	}

	var token model.Token
	if err := s.store.Read(ctx, repository.CollectionTokens, id, &token); err != nil {
		if isNotFound(err) {
			return nil, notFound(repository.CollectionTokens)
		}
		return nil, storageError("read token", err)
	}
	return &token, nil
}

// Extend продлевает действующий токен на TokenTTL от текущего момента.
func (s *TokenService) Extend(ctx context.Context, req ExtendRequest) (*model.Token, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	var token model.Token
	if err := s.store.Read(ctx, repository.CollectionTokens, req.ID, &token); err != nil {
		if isNotFound(err) {
			return nil, newError(ErrNotFound, "Specified token does not exist")
		}
		return nil, storageError("read token", err)
	}

	now := s.now()
	if !token.Valid(now) {
		return nil, newError(ErrExpired, msgTokenExpired)
	}

	token.Expires = now.Add(TokenTTL).UnixMilli()
	if err := s.store.Update(ctx, repository.CollectionTokens, token.ID, &token); err != nil {
		return nil, storageError("update token", err)
	}
	return &token, nil
}

// Revoke удаляет токен.
func (s *TokenService) Revoke(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if !IsValidID(id) {
		return badRequest("Missing required field")
	}

	err := s.store.Delete(ctx, repository.CollectionTokens, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Could not find the specified token")
		}
		return storageError("delete token", err)
	}
	return nil
}
