package service

import (
	"errors"
	"fmt"
)

// Виды ошибок сервиса. Обработчики HTTP сопоставляют их кодам ответа.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpired            = errors.New("expired")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrNotificationFailed = errors.New("notification failed")
	ErrHashingFailed      = errors.New("hashing failed")
)

// Сообщения об ошибках, возвращаемые клиентам API.
const (
	msgInvalidToken    = "Missing required token in header or token is invalid"
	msgNothingToUpdate = "Missing field to update"
	msgUserNotExists   = "The specified user does not exist"
	msgUserNotFound    = "Could not find the specified user"
	msgUserMissing     = "User not found"
	msgCartExists      = "The specified user already has a cart"
	msgEmptyCart       = "Cannot place an order from an empty cart"
	msgNoChange        = "No data was changed"
	msgPaymentFailed   = "Payment failed"
	msgTokenExpired    = "The token has already expired and cannot be extended"
	msgPasswordMatch   = "Password did not match the specified user's stored password"
	msgUserExists      = "A user with that email already exists"
	msgNotification    = "The order was paid but the confirmation email could not be sent"
)

// Error описывает ошибку сервиса с видом, сообщением для клиента и, при наличии, идентификатором заказа.
type Error struct {
	Kind    error
	Message string
	OrderID string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return newError(ErrBadRequest, format, args...)
}

func notFound(collection string) *Error {
	return newError(ErrNotFound, "%s object not found", collection)
}

func forbidden() *Error {
	return newError(ErrForbidden, msgInvalidToken)
}

// withOrderID прикрепляет к ошибке идентификатор заказа. Внутренние ошибки
// оборачиваются без сообщения, чтобы детали не попали в ответ клиенту.
func withOrderID(err error, orderID string) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		cp := *svcErr
		cp.OrderID = orderID
		return &cp
	}
	return &Error{Kind: err, OrderID: orderID}
}

// OrderIDFromError возвращает идентификатор заказа, прикреплённый к ошибке.
func OrderIDFromError(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.OrderID
	}
	return ""
}
