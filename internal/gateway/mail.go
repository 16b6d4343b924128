package gateway

import (
	"context"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// MailConfig задаёт параметры почтового API.
type MailConfig struct {
	BaseURL string
	APIKey  string
	Domain  string
	From    string
	Retries int
}

// MailClient отправляет письма через API в стиле Mailgun: POST {base}/v3/{domain}/messages.
type MailClient struct {
	endpoint string
	apiKey   string
	from     string
	http     *retryablehttp.Client
}

// NewMailClient создаёт клиент почтового API.
func NewMailClient(cfg MailConfig, logger *zap.Logger) *MailClient {
	return &MailClient{
		endpoint: normalizeBaseURL(cfg.BaseURL) + "/v3/" + url.PathEscape(cfg.Domain) + "/messages",
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		http:     newHTTPClient(logger, cfg.Retries),
	}
}

// SendEmail отправляет текстовое письмо.
func (c *MailClient) SendEmail(ctx context.Context, recipient, subject, body string) error {
	form := url.Values{}
	form.Set("from", c.from)
	form.Set("to", recipient)
	form.Set("subject", subject)
	form.Set("text", body)

	return postForm(ctx, c.http, "mail", c.endpoint, []byte(form.Encode()), func(req *retryablehttp.Request) {
		req.SetBasicAuth("api", c.apiKey)
	})
}
