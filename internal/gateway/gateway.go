// Package gateway содержит клиенты внешних сервисов оплаты и отправки писем.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

// PaymentGateway списывает оплату заказа с источника платежа. Запросы с одинаковым
// key считаются повтором одной попытки списания.
type PaymentGateway interface {
	Charge(ctx context.Context, key, source string, amount model.Money, email string) error
}

// ChargeKey возвращает ключ идемпотентности попытки оплаты заказа с номером attempt.
func ChargeKey(orderID string, attempt int) string {
	return fmt.Sprintf("%s-%d", orderID, attempt)
}

// Mailer отправляет письма покупателям.
type Mailer interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// StatusError возвращается, если внешний сервис ответил кодом вне диапазона 2xx.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
}

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

func newHTTPClient(logger *zap.Logger, retries int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = defaultTimeout
	c.Logger = leveledLogger{logger.Sugar()}
	// После исчерпания попыток возвращается последний ответ, чтобы вызывающий увидел код.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

func normalizeBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return base
}

func postForm(ctx context.Context, client *retryablehttp.Client, service, url string, form []byte, prepare func(*retryablehttp.Request)) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, form)
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	prepare(req)

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// leveledLogger направляет журнал retryablehttp в zap.
type leveledLogger struct {
	l *zap.SugaredLogger
}

func (z leveledLogger) Error(msg string, keysAndValues ...any) { z.l.Errorw(msg, keysAndValues...) }
func (z leveledLogger) Info(msg string, keysAndValues ...any)  { z.l.Infow(msg, keysAndValues...) }
func (z leveledLogger) Debug(msg string, keysAndValues ...any) { z.l.Debugw(msg, keysAndValues...) }
func (z leveledLogger) Warn(msg string, keysAndValues ...any)  { z.l.Warnw(msg, keysAndValues...) }
