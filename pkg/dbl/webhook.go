package dbl

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samvad-hq/dbl-go/pkg/httpclient"
)

const maxWebhookBodyBytes = 64 << 10

// WebhookFunc handles a decoded vote. A non-nil error answers 500 so that
// top.gg redelivers the vote.
type WebhookFunc func(ctx context.Context, hook Webhook) error

// WebhookRejectFunc observes rejected deliveries. reason is one of
// "method", "unauthorized", "payload" or "handler".
type WebhookRejectFunc func(r *http.Request, reason string, err error)

// WebhookOption customizes NewWebhookHandler.
type WebhookOption func(*webhookHandler)

// WithRejectHook registers a callback invoked for every rejected delivery.
func WithRejectHook(fn WebhookRejectFunc) WebhookOption {
	return func(h *webhookHandler) { h.onReject = fn }
}

type webhookHandler struct {
	secret   []byte
	fn       WebhookFunc
	onReject WebhookRejectFunc
}

// NewWebhookHandler returns an http.Handler receiving vote webhooks. The
// Authorization header must equal secret; the body must be a JSON Webhook.
//
//	http.Handle("/dbl/webhook", dbl.NewWebhookHandler("mywebhook", onVote))
func NewWebhookHandler(secret string, fn WebhookFunc, opts ...WebhookOption) http.Handler {
	h := &webhookHandler{secret: []byte(secret), fn: fn}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reject(w, r, http.StatusMethodNotAllowed, "method", nil)
		return
	}
	got := []byte(r.Header.Get("Authorization"))
	if subtle.ConstantTimeCompare(got, h.secret) != 1 {
		h.reject(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var hook Webhook
	dec := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err := dec.Decode(&hook); err != nil {
		h.reject(w, r, http.StatusBadRequest, "payload", err)
		return
	}
	if err := hook.Validate(); err != nil {
		h.reject(w, r, http.StatusBadRequest, "payload", err)
		return
	}

	if h.fn != nil {
		if err := h.fn(r.Context(), hook); err != nil {
			h.reject(w, r, http.StatusInternalServerError, "handler", err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *webhookHandler) reject(w http.ResponseWriter, r *http.Request, status int, reason string, err error) {
	if h.onReject != nil {
		h.onReject(r, reason, err)
	}
	http.Error(w, http.StatusText(status), status)
}

// SendWebhook posts hook to a receiver at url, authenticating with secret.
// It is meant for exercising a receiver locally.
func SendWebhook(ctx context.Context, hc httpclient.Client, url, secret string, hook Webhook) error {
	if hc == nil {
		hc = httpclient.NewRestyClient(defaultTimeout)
	}
	resp, err := hc.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    url,
		Headers: map[string]string{
			"Authorization": secret,
			"Content-Type":  "application/json",
		},
		Body: hook,
	})
	if err != nil {
		return &HTTPError{Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return &HTTPError{StatusCode: resp.StatusCode(), Body: bodySnippet(resp.Body())}
	}
	return nil
}

// NewTestWebhook builds a test vote payload.
func NewTestWebhook(bot BotID, user UserID, query string) Webhook {
	hook := Webhook{Bot: bot, User: user, Type: WebhookTest}
	if q := strings.TrimSpace(query); q != "" {
		hook.Query = &q
	}
	return hook
}

func (w Webhook) String() string {
	return fmt.Sprintf("%s vote for bot %s by user %s", w.Type, w.Bot, w.User)
}
