package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/wishlist-backend/internal/pkg/httpx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type Client interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
}

type Config struct {
	APIKey           string        `env:"SENDGRID_API_KEY"`
	BaseURL          string        `env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com"`
	DefaultFromEmail string        `env:"MAIL_FROM_EMAIL"`
	DefaultFromName  string        `env:"MAIL_FROM_NAME" envDefault:"Wishlist"`
	Timeout          time.Duration `env:"SENDGRID_TIMEOUT" envDefault:"30s"`
	MaxRetries       int           `env:"SENDGRID_MAX_RETRIES" envDefault:"4"`
	// RetryBackoff is the first retry delay; it doubles per attempt.
	RetryBackoff time.Duration `env:"SENDGRID_RETRY_BACKOFF" envDefault:"1s"`
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a single transactional mail. From falls back to the configured sender.
type Message struct {
	From       Address
	To         []Address
	Subject    string
	Text       string
	HTML       string
	Categories []string
}

type SendResult struct {
	StatusCode int
	MessageID  string
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To []Address `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (c *client) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("sendgrid client unavailable")
	}
	wire, err := c.buildRequest(msg)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.do(ctx, "/v3/mail/send", wire)
	if err != nil {
		return nil, err
	}
	return &SendResult{
		StatusCode: resp.StatusCode,
		MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
	}, nil
}

func (c *client) buildRequest(msg Message) (mailSendRequest, error) {
	from := Address{Email: strings.TrimSpace(msg.From.Email), Name: strings.TrimSpace(msg.From.Name)}
	if from.Email == "" {
		from = Address{Email: c.cfg.DefaultFromEmail, Name: c.cfg.DefaultFromName}
	}
	if from.Email == "" {
		return mailSendRequest{}, fmt.Errorf("sendgrid: from email required (or set MAIL_FROM_EMAIL)")
	}

	to := make([]Address, 0, len(msg.To))
	for _, a := range msg.To {
		if e := strings.TrimSpace(a.Email); e != "" {
			to = append(to, Address{Email: e, Name: strings.TrimSpace(a.Name)})
		}
	}
	if len(to) == 0 {
		return mailSendRequest{}, fmt.Errorf("sendgrid: recipient required")
	}

	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return mailSendRequest{}, fmt.Errorf("sendgrid: subject required")
	}
	var contents []mailContent
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, mailContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return mailSendRequest{}, fmt.Errorf("sendgrid: text or html content required")
	}

	return mailSendRequest{
		Personalizations: []personalization{{To: to}},
		From:             from,
		Subject:          subject,
		Content:          contents,
		Categories:       msg.Categories,
	}, nil
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	backoff := httpx.Backoff{Base: c.cfg.RetryBackoff, Max: 10 * time.Second}

	for attempt := 0; ; attempt++ {
		resp, err := c.doOnce(ctx, path, payload)
		if err == nil {
			return resp, nil
		}
		if !httpx.Retryable(err) || attempt >= c.cfg.MaxRetries {
			return nil, err
		}

		wait := backoff.Delay(attempt, resp)
		c.log.Warn("SendGrid request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *client) doOnce(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 {
			he.Errors = er.Errors
		}
		return resp, he
	}
	return resp, nil
}
