package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/gateway"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/render"
	"github.com/mmeshcher/pizza-portal/internal/repository"
	"github.com/mmeshcher/pizza-portal/internal/validation"
)

// OrderService оформляет заказы и проводит их оплату. Заказ переходит только из Unpaid в Paid.
type OrderService struct {
	store    repository.Store
	tokens   *TokenService
	carts    *CartService
	payments gateway.PaymentGateway
	mailer   gateway.Mailer
	renderer *render.Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// Place создаёт заказ из корзины, очищает корзину и списывает оплату.
// Заказ сохраняется до оплаты, поэтому все последующие ошибки содержат его идентификатор.
func (s *OrderService) Place(ctx context.Context, token string, req PlaceOrderRequest) (*model.Order, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	source, err := validation.ResolveCard(string(req.CardNumber))
	if err != nil {
		return nil, badRequest("The card number is not accepted")
	}

	cart, err := s.carts.readOwned(ctx, req.CartID, token)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, badRequest(msgEmptyCart)
	}

	user, err := readUser(ctx, s.store, cart.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, badRequest(msgUserMissing)
		}
		return nil, storageError("read user", err)
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}
	order := &model.Order{
		ID:            id,
		Recipient:     user.FirstName + " " + user.LastName,
		StreetAddress: user.StreetAddress,
		Email:         user.Email,
		OrderItems:    model.SnapshotItems(cart.Items),
		TotalAmount:   cart.TotalAmount,
		OrderPlacedAt: s.now().UnixMilli(),
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	if err := s.store.Create(ctx, repository.CollectionOrders, id, order); err != nil {
		return nil, storageError("create order", err)
	}

	user.Orders = append(user.Orders, id)
	if err := s.store.Update(ctx, repository.CollectionUsers, user.Email, user); err != nil {
		return nil, withOrderID(storageError("update user", err), id)
	}

	cart.Items = map[string]model.CartItem{}
	cart.TotalAmount = 0
	if err := s.store.Update(ctx, repository.CollectionCarts, cart.ID, cart); err != nil {
		return nil, withOrderID(storageError("clear cart", err), id)
	}

	if err := s.charge(ctx, order, source); err != nil {
		return nil, withOrderID(err, id)
	}
	if err := s.notify(ctx, order); err != nil {
		return nil, withOrderID(err, id)
	}
	return order, nil
}

// Get возвращает заказ владельцу токена.
func (s *OrderService) Get(ctx context.Context, id, token string) (*model.Order, error) {
	return s.readOwned(ctx, strings.TrimSpace(id), token)
}

// UpdatePayment переводит неоплаченный заказ в статус Paid после успешного списания.
func (s *OrderService) UpdatePayment(ctx context.Context, token string, req UpdatePaymentRequest) (*model.Order, error) {
	req.normalize()
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	var source string
	if req.PaymentStatus == model.PaymentStatusPaid {
		var err error
		source, err = validation.ResolveCard(string(req.CardNumber))
		if err != nil {
			return nil, badRequest("The card number is not accepted")
		}
	}

	order, err := s.readOwned(ctx, req.ID, token)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == req.PaymentStatus {
		return nil, withOrderID(badRequest(msgNoChange), order.ID)
	}
	if req.PaymentStatus != model.PaymentStatusPaid {
		return nil, withOrderID(badRequest("A paid order cannot be marked as unpaid"), order.ID)
	}

	if err := s.charge(ctx, order, source); err != nil {
		return nil, withOrderID(err, order.ID)
	}
	if err := s.notify(ctx, order); err != nil {
		return nil, withOrderID(err, order.ID)
	}
	return order, nil
}

// charge списывает оплату и сохраняет заказ в статусе Paid.
func (s *OrderService) charge(ctx context.Context, order *model.Order, source string) error {
	if validation.IsFailureSource(source) {
		return newError(ErrPaymentFailed, msgPaymentFailed)
	}

	// Номер попытки сохраняется до запроса, чтобы следующая попытка получила новый ключ,
	// даже если эта завершится неопределённо.
	order.PaymentAttempts++
	if err := s.store.Update(ctx, repository.CollectionOrders, order.ID, order); err != nil {
		return storageError("update order", err)
	}

	key := gateway.ChargeKey(order.ID, order.PaymentAttempts)
	if err := s.payments.Charge(ctx, key, source, order.TotalAmount, order.Email); err != nil {
		s.logger.Warn("charge failed",
			zap.String("order", order.ID),
			zap.Int("attempt", order.PaymentAttempts),
			zap.Error(err),
		)
		return newError(ErrPaymentFailed, msgPaymentFailed)
	}

	order.PaymentStatus = model.PaymentStatusPaid
	if err := s.store.Update(ctx, repository.CollectionOrders, order.ID, order); err != nil {
		return storageError("update order", err)
	}
	return nil
}

// notify отправляет письмо с подтверждением. Ошибка отправки не отменяет оплату.
func (s *OrderService) notify(ctx context.Context, order *model.Order) error {
	body := s.renderer.Confirmation(*order)
	if err := s.mailer.SendEmail(ctx, order.Email, render.ConfirmationSubject, body); err != nil {
		s.logger.Warn("confirmation email failed",
			zap.String("order", order.ID),
			zap.Error(err),
		)
		return newError(ErrNotificationFailed, msgNotification)
	}
	return nil
}

func (s *OrderService) readOwned(ctx context.Context, id, token string) (*model.Order, error) {
	if !IsValidID(id) {
		return nil, badRequest("Invalid or missing order id")
	}

	var order model.Order
	if err := s.store.Read(ctx, repository.CollectionOrders, id, &order); err != nil {
		if isNotFound(err) {
			return nil, notFound(repository.CollectionOrders)
		}
		return nil, storageError("read order", err)
	}

	if err := s.tokens.Validate(ctx, token, order.Email); err != nil {
		return nil, err
	}
	return &order, nil
}
