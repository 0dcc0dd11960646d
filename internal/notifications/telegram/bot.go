package telegram

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPollTimeout = 30 * time.Second
	maxPollBackoff     = 30 * time.Second
)

var commandPattern = regexp.MustCompile(`^/(\w+)(?:@\w+)?(?:\s+(.*))?$`)

// CommandHandler answers one slash command.
type CommandHandler interface {
	Name() string
	Handle(ctx context.Context, args string) string
}

// BotConfig configures the command listener.
type BotConfig struct {
	BotToken       string
	APIBaseURL     string
	TrustedChatIDs []int64
	PollTimeout    time.Duration
}

// Bot long-polls getUpdates and dispatches commands from trusted chats.
type Bot struct {
	client      *client
	pollTimeout time.Duration
	trusted     map[int64]struct{}
	handlers    map[string]CommandHandler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	offset  int64
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message,omitempty"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	Chat      chat   `json:"chat"`
	Text      string `json:"text"`
}

type chat struct {
	ID int64 `json:"id"`
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// NewBot creates a bot. Commands from chats outside TrustedChatIDs are ignored.
func NewBot(config BotConfig, handlers ...CommandHandler) (*Bot, error) {
	if config.BotToken == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaultPollTimeout
	}

	trusted := make(map[int64]struct{}, len(config.TrustedChatIDs))
	for _, id := range config.TrustedChatIDs {
		trusted[id] = struct{}{}
	}

	byName := make(map[string]CommandHandler, len(handlers))
	for _, h := range handlers {
		byName[strings.ToLower(h.Name())] = h
	}

	httpClient := &http.Client{Timeout: config.PollTimeout + 10*time.Second}
	return &Bot{
		client:      newClient(httpClient, config.APIBaseURL, config.BotToken),
		pollTimeout: config.PollTimeout,
		trusted:     trusted,
		handlers:    byName,
	}, nil
}

// Start begins polling in the background. Calling it while running has no effect.
func (b *Bot) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	b.running = true
	b.cancel = cancel
	b.done = make(chan struct{})

	slog.Info("telegram bot started", "component", "telegram", "trusted_chats", len(b.trusted))
	go b.poll(pollCtx, b.done)
}

// Stop ends polling and waits for the loop to exit. It is a no-op when the
// bot is not running.
func (b *Bot) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	cancel()
	<-done
	slog.Info("telegram bot stopped", "component", "telegram")
}

// Running reports whether the poll loop is active.
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Bot) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("telegram getUpdates failed", "component", "telegram", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxPollBackoff)
			continue
		}
		backoff = time.Second

		for _, u := range updates {
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	b.mu.Lock()
	offset := b.offset
	b.mu.Unlock()

	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(b.pollTimeout / time.Second),
		AllowedUpdates: []string{"message"},
	}

	var updates []update
	if err := b.client.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (b *Bot) handleUpdate(ctx context.Context, u update) {
	b.mu.Lock()
	if u.UpdateID >= b.offset {
		b.offset = u.UpdateID + 1
	}
	b.mu.Unlock()

	if u.Message == nil {
		return
	}

	name, args, ok := parseCommand(u.Message.Text)
	if !ok {
		return
	}

	handler, ok := b.handlers[name]
	if !ok {
		return
	}

	chatID := u.Message.Chat.ID
	if _, ok := b.trusted[chatID]; !ok {
		slog.Warn("ignoring command from untrusted chat",
			"component", "telegram",
			"command", name,
			"chat_id", chatID,
		)
		return
	}

	reply := handler.Handle(ctx, args)
	if reply == "" {
		return
	}

	if err := b.reply(ctx, chatID, reply); err != nil {
		slog.Error("failed to send command reply",
			"component", "telegram",
			"command", name,
			"chat_id", chatID,
			"error", err,
		)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	req := sendMessageRequest{
		ChatID:    strconv.FormatInt(chatID, 10),
		Text:      html.EscapeString(text),
		ParseMode: "HTML",
	}
	return b.client.call(ctx, "sendMessage", req, nil)
}

// parseCommand splits "/name@bot args" into a lower-cased name and trimmed args.
func parseCommand(text string) (name, args string, ok bool) {
	m := commandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}
