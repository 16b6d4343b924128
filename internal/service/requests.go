package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках используются имена полей из JSON.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest проверяет запрос за один проход и перечисляет все некорректные поля.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return badRequest("Missing or invalid required fields: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("validate request: %w", err)
}

// CardNumber хранит номер карты, который в JSON может быть строкой или числом.
type CardNumber string

// UnmarshalJSON реализует json.Unmarshaler.
func (c *CardNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CardNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card number: %w", err)
	}
	*c = CardNumber(n.String())
	return nil
}

// RegisterRequest описывает запрос на регистрацию пользователя.
type RegisterRequest struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	StreetAddress string `json:"streetAddress" validate:"required"`
	Password      string `json:"password" validate:"required"`
	TOSAgreement  bool   `json:"tosAgreement" validate:"required"`
}

func (r *RegisterRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.StreetAddress = strings.TrimSpace(r.StreetAddress)
	r.Password = strings.TrimSpace(r.Password)
}

// UpdateUserRequest описывает запрос на изменение профиля. Пустые поля не меняются.
type UpdateUserRequest struct {
	Email         string `json:"email" validate:"required"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	StreetAddress string `json:"streetAddress"`
	Password      string `json:"password"`
}

func (r *UpdateUserRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.StreetAddress = strings.TrimSpace(r.StreetAddress)
	r.Password = strings.TrimSpace(r.Password)
}

func (r *UpdateUserRequest) hasChanges() bool {
	return r.FirstName != "" || r.LastName != "" || r.StreetAddress != "" || r.Password != ""
}

// LoginRequest описывает запрос на выдачу токена.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// ExtendRequest описывает запрос на продление токена.
type ExtendRequest struct {
	ID     string `json:"id" validate:"len=20"`
	Extend bool   `json:"extend" validate:"required"`
}

func (r *ExtendRequest) normalize() {
	r.ID = strings.TrimSpace(r.ID)
}

// CreateCartRequest описывает запрос на создание корзины.
type CreateCartRequest struct {
	Email string `json:"email" validate:"required"`
}

func (r *CreateCartRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// UpdateCartRequest содержит изменения количества позиций корзины: название позиции и приращение.
type UpdateCartRequest struct {
	ID    string         `json:"id" validate:"len=20"`
	Items map[string]int `json:"items" validate:"required,min=1,dive,min=-1000,max=1000"`
}

func (r *UpdateCartRequest) normalize() {
	r.ID = strings.TrimSpace(r.ID)
}

// PlaceOrderRequest описывает запрос на оформление заказа из корзины.
type PlaceOrderRequest struct {
	CartID     string     `json:"cartId" validate:"len=20"`
	CardNumber CardNumber `json:"cardNumber" validate:"required"`
}

func (r *PlaceOrderRequest) normalize() {
	r.CartID = strings.TrimSpace(r.CartID)
}

// UpdatePaymentRequest описывает запрос на смену статуса оплаты заказа.
type UpdatePaymentRequest struct {
	ID            string              `json:"id" validate:"len=20"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus" validate:"oneof=Paid Unpaid"`
	CardNumber    CardNumber          `json:"cardNumber" validate:"required_if=PaymentStatus Paid"`
}

func (r *UpdatePaymentRequest) normalize() {
	r.ID = strings.TrimSpace(r.ID)
}
