package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/middleware"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/service"
)

type stubTokens struct {
	token *model.Token
	err   error

	gotLogin service.LoginRequest
}

func (s *stubTokens) Issue(ctx context.Context, req service.LoginRequest) (*model.Token, error) {
	s.gotLogin = req
	return s.token, s.err
}

func (s *stubTokens) Get(ctx context.Context, id string) (*model.Token, error) {
	return s.token, s.err
}

func (s *stubTokens) Extend(ctx context.Context, req service.ExtendRequest) (*model.Token, error) {
	return s.token, s.err
}

func (s *stubTokens) Revoke(ctx context.Context, id string) error {
	return s.err
}

type stubUsers struct {
	user model.User
	err  error

	gotEmail string
	gotToken string
}

func (s *stubUsers) Register(ctx context.Context, req service.RegisterRequest) (model.User, error) {
	return s.user, s.err
}

func (s *stubUsers) Get(ctx context.Context, email, token string) (model.User, error) {
	s.gotEmail, s.gotToken = email, token
	return s.user, s.err
}

func (s *stubUsers) Update(ctx context.Context, token string, req service.UpdateUserRequest) (model.User, error) {
	s.gotToken = token
	return s.user, s.err
}

func (s *stubUsers) Delete(ctx context.Context, email, token string) error {
	s.gotEmail, s.gotToken = email, token
	return s.err
}

type stubMenu struct {
	menu model.Menu
	err  error
}

func (s *stubMenu) Get(ctx context.Context, token string) (model.Menu, error) {
	return s.menu, s.err
}

type stubCarts struct {
	id   string
	cart *model.Cart
	err  error
}

func (s *stubCarts) Create(ctx context.Context, token string, req service.CreateCartRequest) (string, error) {
	return s.id, s.err
}

func (s *stubCarts) Get(ctx context.Context, id, token string) (*model.Cart, error) {
	return s.cart, s.err
}

func (s *stubCarts) UpdateItems(ctx context.Context, token string, req service.UpdateCartRequest) (*model.Cart, error) {
	return s.cart, s.err
}

type stubOrders struct {
	order *model.Order
	err   error

	gotPlace service.PlaceOrderRequest
}

func (s *stubOrders) Place(ctx context.Context, token string, req service.PlaceOrderRequest) (*model.Order, error) {
	s.gotPlace = req
	return s.order, s.err
}

func (s *stubOrders) Get(ctx context.Context, id, token string) (*model.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) UpdatePayment(ctx context.Context, token string, req service.UpdatePaymentRequest) (*model.Order, error) {
	return s.order, s.err
}

type stubs struct {
	tokens *stubTokens
	users  *stubUsers
	menu   *stubMenu
	carts  *stubCarts
	orders *stubOrders
}

func newStubs() *stubs {
	return &stubs{
		tokens: &stubTokens{},
		users:  &stubUsers{},
		menu:   &stubMenu{},
		carts:  &stubCarts{},
		orders: &stubOrders{},
	}
}

func (s *stubs) services() Services {
	return Services{
		Tokens: s.tokens,
		Users:  s.users,
		Menu:   s.menu,
		Carts:  s.carts,
		Orders: s.orders,
	}
}

func newTestHandler(t *testing.T, s *stubs) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(s.services(), logger, middleware.NewMetrics(), nil)
}

func serve(t *testing.T, h *Handler, method, target string, body any, token string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)
	return rec.Result()
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateUser_Success(t *testing.T) {
	s := newStubs()
	s.users.user = model.User{Email: "a@x.com", FirstName: "Ann"}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPost, "/api/users", map[string]any{
		"firstName": "Ann", "email": "a@x.com",
	}, "")

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
	body := decodeBody(t, res)
	if body["email"] != "a@x.com" {
		t.Fatalf("email = %v, want a@x.com", body["email"])
	}
	if _, ok := body["hashedPassword"]; ok {
		t.Fatalf("response must not contain hashedPassword")
	}
}

func TestCreateUser_InvalidJSON(t *testing.T) {
	h := newTestHandler(t, newStubs())

	res := serve(t, h, http.MethodPost, "/api/users", "{not json", "")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if body := decodeBody(t, res); body["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestGetUser_PassesQueryAndToken(t *testing.T) {
	s := newStubs()
	s.users.user = model.User{Email: "a@x.com"}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodGet, "/api/users?email=a@x.com", nil, "tok123")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if s.users.gotEmail != "a@x.com" || s.users.gotToken != "tok123" {
		t.Fatalf("service got email=%q token=%q", s.users.gotEmail, s.users.gotToken)
	}
}

func TestDeleteUser_EmptyObject(t *testing.T) {
	h := newTestHandler(t, newStubs())

	res := serve(t, h, http.MethodDelete, "/api/users?email=a@x.com", nil, "tok")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if body := decodeBody(t, res); len(body) != 0 {
		t.Fatalf("body = %v, want empty object", body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", &service.Error{Kind: service.ErrBadRequest, Message: "Missing field"}, http.StatusBadRequest},
		{"expired", &service.Error{Kind: service.ErrExpired, Message: "expired"}, http.StatusBadRequest},
		{"credentials", &service.Error{Kind: service.ErrInvalidCredentials, Message: "no"}, http.StatusUnauthorized},
		{"forbidden", &service.Error{Kind: service.ErrForbidden, Message: "no"}, http.StatusForbidden},
		{"not found", &service.Error{Kind: service.ErrNotFound, Message: "users object not found"}, http.StatusNotFound},
		{"conflict", &service.Error{Kind: service.ErrConflict, Message: "exists"}, http.StatusConflict},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStubs()
			s.users.err = tt.err
			h := newTestHandler(t, s)

			res := serve(t, h, http.MethodGet, "/api/users?email=a@x.com", nil, "tok")
			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	s := newStubs()
	s.users.err = errors.New("connection refused to 10.0.0.1")
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodGet, "/api/users?email=a@x.com", nil, "tok")
	body := decodeBody(t, res)
	if len(body) != 0 {
		t.Fatalf("body = %v, want empty object", body)
	}
}

func TestCreateToken(t *testing.T) {
	s := newStubs()
	s.tokens.token = &model.Token{ID: strings.Repeat("a", 20), Email: "a@x.com", Expires: 1000}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPost, "/api/tokens", map[string]string{
		"email": "a@x.com", "password": "secret",
	}, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if s.tokens.gotLogin.Email != "a@x.com" || s.tokens.gotLogin.Password != "secret" {
		t.Fatalf("login request = %+v", s.tokens.gotLogin)
	}
	body := decodeBody(t, res)
	if body["id"] != strings.Repeat("a", 20) {
		t.Fatalf("id = %v", body["id"])
	}
}

func TestCreateToken_RateLimited(t *testing.T) {
	s := newStubs()
	s.tokens.token = &model.Token{ID: strings.Repeat("a", 20)}
	logger := zap.NewNop()
	h := NewHandler(s.services(), logger, nil, middleware.NewRateLimiter(1, logger))
	router := h.SetupRouter()

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{"email":"a@x.com","password":"p"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first status = %d, want %d", code, http.StatusOK)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestGetMenu(t *testing.T) {
	s := newStubs()
	s.menu.menu = model.NewMenu(map[string]model.Money{"Margherita": model.Dollars(10)})
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodGet, "/api/menu", nil, "tok")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody(t, res)
	if body["Margherita"] != "$10" {
		t.Fatalf("menu = %v", body)
	}
}

func TestCreateCart_ReturnsID(t *testing.T) {
	s := newStubs()
	s.carts.id = strings.Repeat("c", 20)
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPost, "/api/carts", map[string]string{"email": "a@x.com"}, "tok")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if body := decodeBody(t, res); body["id"] != strings.Repeat("c", 20) {
		t.Fatalf("id = %v", body["id"])
	}
}

func TestCreateOrder_NumericCardNumber(t *testing.T) {
	s := newStubs()
	s.orders.order = &model.Order{ID: strings.Repeat("o", 20), PaymentStatus: model.PaymentStatusPaid}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPost, "/api/orders", `{"cartId":"cccccccccccccccccccc","cardNumber":4242424242424242}`, "tok")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if s.orders.gotPlace.CardNumber != "4242424242424242" {
		t.Fatalf("card number = %q", s.orders.gotPlace.CardNumber)
	}
}

func TestCreateOrder_PaymentFailedCarriesOrderID(t *testing.T) {
	s := newStubs()
	s.orders.err = &service.Error{
		Kind:    service.ErrPaymentFailed,
		Message: "Payment failed",
		OrderID: strings.Repeat("o", 20),
	}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPost, "/api/orders", map[string]string{
		"cartId": strings.Repeat("c", 20), "cardNumber": "4000000000000002",
	}, "tok")
	if res.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusPaymentRequired)
	}
	body := decodeBody(t, res)
	if body["id"] != strings.Repeat("o", 20) || body["error"] != "Payment failed" {
		t.Fatalf("body = %v", body)
	}
}

func TestUpdateOrder_NotificationFailed(t *testing.T) {
	s := newStubs()
	s.orders.err = &service.Error{
		Kind:    service.ErrNotificationFailed,
		Message: "mail down",
		OrderID: strings.Repeat("o", 20),
	}
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodPut, "/api/orders", map[string]string{
		"id": strings.Repeat("o", 20), "paymentStatus": "Paid", "cardNumber": "4242424242424242",
	}, "tok")
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadGateway)
	}
	if body := decodeBody(t, res); body["id"] != strings.Repeat("o", 20) {
		t.Fatalf("body = %v", body)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	h := newTestHandler(t, newStubs())

	res := serve(t, h, http.MethodGet, "/api/pizzas", nil, "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if body := decodeBody(t, res); body["error"] != "Invalid route" {
		t.Fatalf("body = %v", body)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, newStubs())

	res := serve(t, h, http.MethodPatch, "/api/menu", nil, "")
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusMethodNotAllowed)
	}
	if body := decodeBody(t, res); body["error"] != "Invalid method: PATCH" {
		t.Fatalf("body = %v", body)
	}
}

func TestRouter_TrailingSlash(t *testing.T) {
	s := newStubs()
	s.menu.menu = model.NewMenu(map[string]model.Money{"Coke": model.Dollars(2)})
	h := newTestHandler(t, s)

	res := serve(t, h, http.MethodGet, "/api/menu/", nil, "tok")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestHandler(t, newStubs())

	_ = serve(t, h, http.MethodGet, "/api/menu", nil, "tok")
	res := serve(t, h, http.MethodGet, "/metrics", nil, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
