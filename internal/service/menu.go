package service

import (
	"context"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

// MenuService отдаёт снимок меню, загруженный при старте.
type MenuService struct {
	tokens *TokenService
	menu   model.Menu
}

// Get возвращает меню любому пользователю с действующим токеном.
func (s *MenuService) Get(ctx context.Context, token string) (model.Menu, error) {
	if err := s.tokens.Validate(ctx, token, ""); err != nil {
		return model.Menu{}, err
	}
	return s.menu, nil
}
