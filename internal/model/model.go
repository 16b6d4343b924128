// Package model содержит доменные сущности сервиса PizzaPortal.
package model

import (
	"maps"
	"time"
)

// User представляет зарегистрированного покупателя.
type User struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Email          string   `json:"email"`
	StreetAddress  string   `json:"streetAddress"`
	HashedPassword string   `json:"hashedPassword,omitempty"`
	TOSAgreement   bool     `json:"tosAgreement"`
	CartID         string   `json:"cart,omitempty"`
	Orders         []string `json:"orders,omitempty"`
}

// Public возвращает копию пользователя без хеша пароля.
func (u User) Public() User {
	u.HashedPassword = ""
	u.Orders = append([]string(nil), u.Orders...)
	return u
}

// Token описывает выданный при входе токен доступа.
type Token struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Expires хранится в миллисекундах Unix.
	Expires int64 `json:"expires"`
}

// ExpiresAt возвращает момент истечения токена.
func (t Token) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// Valid сообщает, действует ли токен в момент now.
func (t Token) Valid(now time.Time) bool {
	return now.UnixMilli() < t.Expires
}

// CartItem описывает позицию корзины или заказа.
type CartItem struct {
	Quantity int   `json:"quantity"`
	Amount   Money `json:"amount"`
}

// Cart описывает корзину пользователя.
type Cart struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Items       map[string]CartItem `json:"items"`
	TotalAmount Money               `json:"totalAmount"`
}

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// Valid сообщает, является ли статус допустимым.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// Order описывает размещённый заказ. Позиции копируются из корзины в момент размещения.
// PaymentAttempts считает обращения к платёжному API и задаёт ключ идемпотентности попытки.
type Order struct {
	ID              string              `json:"id"`
	Recipient       string              `json:"recipient"`
	StreetAddress   string              `json:"streetAddress"`
	Email           string              `json:"email"`
	OrderItems      map[string]CartItem `json:"orderItems"`
	TotalAmount     Money               `json:"totalAmount"`
	OrderPlacedAt   int64               `json:"orderPlacedAt"`
	PaymentStatus   PaymentStatus       `json:"paymentStatus"`
	PaymentAttempts int                 `json:"paymentAttempts,omitempty"`
}

// PlacedAt возвращает время размещения заказа.
func (o Order) PlacedAt() time.Time {
	return time.UnixMilli(o.OrderPlacedAt)
}

// SnapshotItems возвращает независимую копию позиций корзины.
func SnapshotItems(items map[string]CartItem) map[string]CartItem {
	if items == nil {
		return map[string]CartItem{}
	}
	return maps.Clone(items)
}
