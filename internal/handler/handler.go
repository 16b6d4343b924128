// Package handler содержит HTTP-обработчики JSON API сервиса PizzaPortal.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/middleware"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/service"
)

const maxBodySize = 1 << 20

// TokenService описывает операции с токенами доступа.
type TokenService interface {
	Issue(ctx context.Context, req service.LoginRequest) (*model.Token, error)
	Get(ctx context.Context, id string) (*model.Token, error)
	Extend(ctx context.Context, req service.ExtendRequest) (*model.Token, error)
	Revoke(ctx context.Context, id string) error
}

// UserService описывает операции с пользователями.
type UserService interface {
	Register(ctx context.Context, req service.RegisterRequest) (model.User, error)
	Get(ctx context.Context, email, token string) (model.User, error)
	Update(ctx context.Context, token string, req service.UpdateUserRequest) (model.User, error)
	Delete(ctx context.Context, email, token string) error
}

// MenuService отдаёт меню.
type MenuService interface {
	Get(ctx context.Context, token string) (model.Menu, error)
}

// CartService описывает операции с корзинами.
type CartService interface {
	Create(ctx context.Context, token string, req service.CreateCartRequest) (string, error)
	Get(ctx context.Context, id, token string) (*model.Cart, error)
	UpdateItems(ctx context.Context, token string, req service.UpdateCartRequest) (*model.Cart, error)
}

// OrderService описывает операции с заказами.
type OrderService interface {
	Place(ctx context.Context, token string, req service.PlaceOrderRequest) (*model.Order, error)
	Get(ctx context.Context, id, token string) (*model.Order, error)
	UpdatePayment(ctx context.Context, token string, req service.UpdatePaymentRequest) (*model.Order, error)
}

// Services группирует сервисы ресурсов, используемые обработчиками.
type Services struct {
	Tokens TokenService
	Users  UserService
	Menu   MenuService
	Carts  CartService
	Orders OrderService
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	svc     Services
	logger  *zap.Logger
	metrics *middleware.Metrics
	limiter *middleware.RateLimiter
}

// NewHandler создаёт обработчик. metrics и limiter могут быть nil.
func NewHandler(svc Services, logger *zap.Logger, metrics *middleware.Metrics, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		limiter: limiter,
	}
}

type errorResponse struct {
	Error string `json:"error,omitempty"`
	ID    string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON payload"})
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBadRequest), errors.Is(err, service.ErrExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotificationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает клиенту кодом, соответствующим виду ошибки. Детали внутренних
// ошибок пишутся только в журнал.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	orderID := service.OrderIDFromError(err)

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("order", orderID),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{ID: orderID})
		return
	}

	if status >= http.StatusInternalServerError {
		h.logger.Warn("request degraded",
			zap.String("path", r.URL.Path),
			zap.String("order", orderID),
			zap.Error(err),
		)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), ID: orderID})
}

func token(r *http.Request) string {
	return middleware.TokenFromContext(r.Context())
}

// CreateUser обрабатывает регистрацию пользователя.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser возвращает профиль пользователя по email из строки запроса.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.Get(r.Context(), r.URL.Query().Get("email"), token(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser изменяет профиль пользователя.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Update(r.Context(), token(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser удаляет пользователя вместе с корзиной и заказами.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.Delete(r.Context(), r.URL.Query().Get("email"), token(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// CreateToken выдаёт токен по email и паролю.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.svc.Tokens.Issue(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetToken возвращает запись токена по id из строки запроса.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tokens.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ExtendToken продлевает токен.
func (h *Handler) ExtendToken(w http.ResponseWriter, r *http.Request) {
	var req service.ExtendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.svc.Tokens.Extend(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteToken отзывает токен.
func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Tokens.Revoke(r.Context(), r.URL.Query().Get("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// GetMenu возвращает меню.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.svc.Menu.Get(r.Context(), token(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

type cartCreatedResponse struct {
	ID string `json:"id"`
}

// CreateCart создаёт корзину пользователя.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.svc.Carts.Create(r.Context(), token(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartCreatedResponse{ID: id})
}

// GetCart возвращает корзину по id из строки запроса.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.Carts.Get(r.Context(), r.URL.Query().Get("id"), token(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// UpdateCart изменяет количество позиций корзины.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.svc.Carts.UpdateItems(r.Context(), token(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// CreateOrder оформляет заказ из корзины и проводит оплату.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.Orders.Place(r.Context(), token(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetOrder возвращает заказ по id из строки запроса.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.Get(r.Context(), r.URL.Query().Get("id"), token(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateOrder меняет статус оплаты заказа.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.Orders.UpdatePayment(r.Context(), token(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
