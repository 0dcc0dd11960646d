// Package mattermost posts admin notifications to a Mattermost incoming webhook.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/notifications"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultUsername = "adboard"
	maxErrorBody    = 512
)

// Config holds Mattermost sender configuration. WebhookURL is the admin
// destination; the sender itself posts to whatever URL a notification names.
type Config struct {
	Enabled    bool
	WebhookURL string
	Username   string
	IconURL    string
	Channel    string
	Timeout    time.Duration
}

// Sender implements notifications.Sender over incoming webhooks.
type Sender struct {
	config     Config
	httpClient *http.Client
}

type webhookPayload struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// WebhookError is a failed webhook post.
type WebhookError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *WebhookError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("mattermost error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("mattermost error: %s", e.Message)
}

// IsRetryable reports whether the post may succeed later.
func (e *WebhookError) IsRetryable() bool {
	return e.Code == 0 || e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// RetryAfterHint returns the Retry-After delay sent by the server.
func (e *WebhookError) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// NewSender creates a new Mattermost sender.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled && config.WebhookURL == "" {
		return nil, errors.New("mattermost: webhook url is required")
	}
	if config.Username == "" {
		config.Username = defaultUsername
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Sender{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Type returns the channel type.
func (s *Sender) Type() domain.ChannelType {
	return domain.ChannelTypeMattermost
}

// Destination returns the configured admin webhook.
func (s *Sender) Destination() notifications.Destination {
	return notifications.Destination{Type: domain.ChannelTypeMattermost, Target: s.config.WebhookURL}
}

// Send posts the notification to the webhook in notification.To.
func (s *Sender) Send(ctx context.Context, notification notifications.Notification) error {
	webhookURL := notification.To
	if webhookURL == "" {
		return &WebhookError{Code: http.StatusBadRequest, Message: "webhook URL is empty"}
	}

	payload := webhookPayload{
		Text:     notification.Body,
		Username: s.config.Username,
		IconURL:  s.config.IconURL,
		Channel:  s.config.Channel,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return &WebhookError{Code: http.StatusBadRequest, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return &WebhookError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		slog.Debug("mattermost message sent", "component", "mattermost", "webhook", maskWebhookURL(webhookURL))
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return responseError(resp, string(respBody))
}

func responseError(resp *http.Response, body string) *WebhookError {
	err := &WebhookError{Code: resp.StatusCode, Message: body}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		err.Message = "invalid or expired webhook"
	case http.StatusNotFound:
		err.Message = "webhook not found"
	case http.StatusTooManyRequests:
		err.Message = "rate limited"
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			err.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return err
}

// maskWebhookURL hides the webhook key for logging.
func maskWebhookURL(raw string) string {
	if len(raw) > 40 {
		return raw[:20] + "..." + raw[len(raw)-6:]
	}
	return raw
}
