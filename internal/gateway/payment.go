package gateway

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

// PaymentConfig задаёт параметры платёжного API.
type PaymentConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Retries  int
}

// PaymentClient списывает оплату через API в стиле Stripe: POST {base}/v1/charges.
type PaymentClient struct {
	endpoint string
	apiKey   string
	currency string
	http     *retryablehttp.Client
}

// NewPaymentClient создаёт клиент платёжного API.
func NewPaymentClient(cfg PaymentConfig, logger *zap.Logger) *PaymentClient {
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentClient{
		endpoint: normalizeBaseURL(cfg.BaseURL) + "/v1/charges",
		apiKey:   cfg.APIKey,
		currency: currency,
		http:     newHTTPClient(logger, cfg.Retries),
	}
}

// Charge списывает amount с источника source. key передаётся в Idempotency-Key:
// повторы HTTP-запроса внутри одной попытки не приводят к двойному списанию.
func (c *PaymentClient) Charge(ctx context.Context, key, source string, amount model.Money, email string) error {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount.Cents(), 10))
	form.Set("currency", c.currency)
	form.Set("source", source)
	form.Set("receipt_email", email)

	return postForm(ctx, c.http, "payment", c.endpoint, []byte(form.Encode()), func(req *retryablehttp.Request) {
		req.SetBasicAuth(c.apiKey, "")
		req.Header.Set("Idempotency-Key", key)
	})
}
