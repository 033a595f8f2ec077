// Package webhook sends messages through a custom-bot webhook URL. Webhook
// bots authenticate by URL (plus an optional HMAC signature), not by bearer
// token, so this package stands apart from the token-based client.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
)

// timeNow is swapped in tests to pin the signature timestamp.
var timeNow = time.Now

// Config identifies the webhook endpoint.
type Config struct {
	// URL is the bot's webhook address.
	URL string
	// Secret enables timestamp signing when the bot has signature
	// verification turned on.
	Secret     string
	HTTPClient *http.Client
	Logger     hclog.Logger
}

// Validate checks the config before any use.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
	)
}

// Bot sends messages to one webhook.
type Bot struct {
	url        string
	secret     string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewBot validates cfg and returns a bot.
func NewBot(cfg Config) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}
	b := &Bot{
		url:        cfg.URL,
		secret:     cfg.Secret,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if b.httpClient == nil {
		b.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if b.logger == nil {
		b.logger = hclog.NewNullLogger()
	}
	return b, nil
}

// Response is the webhook endpoint's reply.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Ok reports application-level acceptance.
func (r *Response) Ok() bool { return r.Code == 0 }

// Send posts a text message.
func (b *Bot) Send(ctx context.Context, text string) (*Response, error) {
	return b.post(ctx, map[string]any{
		"msg_type": "text",
		"content":  map[string]any{"text": text},
	})
}

// SendCard posts an interactive card.
func (b *Bot) SendCard(ctx context.Context, card any) (*Response, error) {
	return b.post(ctx, map[string]any{
		"msg_type": "interactive",
		"card":     card,
	})
}

func (b *Bot) post(ctx context.Context, payload map[string]any) (*Response, error) {
	if b.secret != "" {
		ts := timeNow().Unix()
		payload["timestamp"] = strconv.FormatInt(ts, 10)
		payload["sign"] = sign(ts, b.secret)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode webhook response (status %d): %w", resp.StatusCode, err)
	}
	if !out.Ok() {
		b.logger.Warn("webhook rejected message", "code", out.Code, "msg", out.Msg)
	}
	return &out, nil
}

// sign computes the bot signature: HMAC-SHA256 keyed with
// "timestamp\nsecret" over an empty message, base64 encoded.
func sign(timestamp int64, secret string) string {
	key := strconv.FormatInt(timestamp, 10) + "\n" + secret
	mac := hmac.New(sha256.New, []byte(key))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
