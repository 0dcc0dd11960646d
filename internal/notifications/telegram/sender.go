package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/notifications"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 25.0
	defaultTimeout   = 10 * time.Second
)

// Config holds Telegram configuration.
type Config struct {
	Enabled    bool
	BotToken   string
	RateLimit  float64 // messages per second
	APIBaseURL string
	Timeout    time.Duration
}

// Sender sends messages with the sendMessage method.
type Sender struct {
	config  Config
	client  *client
	limiter *rate.Limiter
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// NewSender creates a new Telegram sender.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled && config.BotToken == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaultRateLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: config.Timeout}
	return &Sender{
		config:  config,
		client:  newClient(httpClient, config.APIBaseURL, config.BotToken),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Type returns the channel type.
func (s *Sender) Type() domain.ChannelType {
	return domain.ChannelTypeTelegram
}

// Send delivers notification.Body as HTML to chat notification.To.
// A disabled sender drops the message.
func (s *Sender) Send(ctx context.Context, notification notifications.Notification) error {
	if !s.config.Enabled {
		slog.Debug("telegram sender disabled, skipping", "component", "telegram")
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req := sendMessageRequest{
		ChatID:    notification.To,
		Text:      notification.Body,
		ParseMode: "HTML",
	}
	if err := s.client.call(ctx, "sendMessage", req, nil); err != nil {
		return err
	}

	slog.Debug("telegram message sent", "component", "telegram", "chat_id", notification.To)
	return nil
}
