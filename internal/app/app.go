// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/bissquit/adboard/api/openapi"
	"github.com/bissquit/adboard/internal/ads"
	"github.com/bissquit/adboard/internal/config"
	"github.com/bissquit/adboard/internal/identity"
	"github.com/bissquit/adboard/internal/identity/jwt"
	"github.com/bissquit/adboard/internal/identity/password"
	"github.com/bissquit/adboard/internal/notifications"
	"github.com/bissquit/adboard/internal/notifications/mattermost"
	"github.com/bissquit/adboard/internal/notifications/telegram"
	"github.com/bissquit/adboard/internal/pkg/ctxlog"
	"github.com/bissquit/adboard/internal/pkg/httputil"
	"github.com/bissquit/adboard/internal/pkg/ratelimit"
	"github.com/bissquit/adboard/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	store         *store
	server        *http.Server
	metricsServer *http.Server
	bgCancel      context.CancelFunc

	trustedProxies []netip.Prefix

	identity           *identity.Service
	limiter            ratelimit.Limiter
	redis              *redis.Client
	notificationWorker *notifications.Worker
	bot                *telegram.Bot
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	st, err := openStore(connectCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   logger,
		store:    st,
		bgCancel: bgCancel,
	}

	app.trustedProxies, err = httputil.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	if err := app.setupBackground(bgCtx); err != nil {
		app.closeAll()
		return nil, err
	}

	router := app.setupRouter()

	if cfg.Bootstrap.AdminEmail != "" {
		admin, err := app.identity.EnsureAdmin(connectCtx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			app.closeAll()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("admin account ensured", "user_id", admin.ID)
	}

	if app.notificationWorker != nil {
		app.notificationWorker.Start(bgCtx)
	}
	if app.bot != nil {
		app.bot.Start(bgCtx)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"driver", a.config.Database.Driver,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the bot, drains the notification worker, shuts down both
// HTTP servers and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	if a.bot != nil {
		a.bot.Stop()
	}
	if a.notificationWorker != nil {
		a.notificationWorker.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	if err := a.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// closeAll releases everything New acquired when startup fails.
func (a *App) closeAll() {
	if a.bot != nil {
		a.bot.Stop()
	}
	if a.notificationWorker != nil {
		a.notificationWorker.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.closeResources(ctx); err != nil {
		a.logger.Warn("close resources", "error", err)
	}
}

func (a *App) closeResources(ctx context.Context) error {
	a.bgCancel()

	var errs []error
	if m, ok := a.limiter.(*ratelimit.Memory); ok {
		m.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.store.close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// NotificationWorker returns the notification worker, or nil when
// notifications are disabled.
func (a *App) NotificationWorker() *notifications.Worker {
	return a.notificationWorker
}

// setupBackground builds the identity service together with the rate limiter,
// notification pipeline and Telegram bot it depends on.
func (a *App) setupBackground(ctx context.Context) error {
	limiter, err := a.setupRateLimiter(ctx)
	if err != nil {
		return err
	}
	a.limiter = limiter

	notifier, err := a.setupNotifications()
	if err != nil {
		return err
	}

	var onRegistered identity.UserRegisteredHandler
	if notifier != nil {
		onRegistered = notifier
	}

	authenticator := jwt.NewAuthenticator(jwt.Config{
		SecretKey: a.config.JWT.SecretKey,
		TokenTTL:  a.config.JWT.TokenTTL,
	})
	hasher := password.NewHasher(a.config.Password.BcryptCost)
	a.identity = identity.NewService(a.store.users, authenticator, hasher, onRegistered)

	tg := a.config.Notifications.Telegram
	if a.config.Notifications.Enabled && tg.Enabled {
		bot, err := telegram.NewBot(telegram.BotConfig{
			BotToken:       tg.BotToken,
			APIBaseURL:     tg.APIBaseURL,
			TrustedChatIDs: tg.TrustedChatIDs,
			PollTimeout:    tg.PollTimeout,
		}, identity.NewVerifyCommand(a.identity))
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		a.bot = bot
	}

	return nil
}

func (a *App) setupRateLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	rl := a.config.RateLimit
	if !rl.Enabled {
		return nil, nil
	}

	limitCfg := ratelimit.Config{RequestsPerMinute: rl.RequestsPerMinute, Burst: rl.Burst}

	if rl.Redis.Addr == "" {
		slog.Info("rate limiter configured", "backend", "memory", "rpm", rl.RequestsPerMinute, "burst", rl.Burst)
		return ratelimit.NewMemory(limitCfg), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rl.Redis.Addr,
		Password: rl.Redis.Password,
		DB:       rl.Redis.DB,
	})
	limiter := ratelimit.NewRedis(client, limitCfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := limiter.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a.redis = client
	slog.Info("rate limiter configured", "backend", "redis", "rpm", rl.RequestsPerMinute, "burst", rl.Burst)
	return limiter, nil
}

// setupNotifications returns nil when notifications are disabled.
func (a *App) setupNotifications() (*notifications.Notifier, error) {
	nc := a.config.Notifications

	slog.Info("notifications configured",
		"enabled", nc.Enabled,
		"telegram_enabled", nc.Telegram.Enabled,
		"mattermost_enabled", nc.Mattermost.Enabled,
	)

	if !nc.Enabled {
		return nil, nil
	}

	var senders []notifications.Sender
	var destinations []notifications.Destination

	if nc.Telegram.Enabled {
		sender, err := telegram.NewSender(telegram.Config{
			Enabled:    true,
			BotToken:   nc.Telegram.BotToken,
			RateLimit:  nc.Telegram.RateLimit,
			APIBaseURL: nc.Telegram.APIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create telegram sender: %w", err)
		}
		senders = append(senders, sender)
		destinations = append(destinations, notifications.Destination{
			Type:   sender.Type(),
			Target: fmt.Sprintf("%d", nc.Telegram.AdminChatID),
		})
	}

	if nc.Mattermost.Enabled {
		sender, err := mattermost.NewSender(mattermost.Config{
			Enabled:    true,
			WebhookURL: nc.Mattermost.WebhookURL,
			Username:   nc.Mattermost.Username,
			Channel:    nc.Mattermost.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("create mattermost sender: %w", err)
		}
		senders = append(senders, sender)
		destinations = append(destinations, sender.Destination())
	}

	if len(destinations) == 0 {
		slog.Warn("notifications enabled but no channel is configured: admins will not be told about new users")
	}

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create notification renderer: %w", err)
	}

	a.notificationWorker = notifications.NewWorker(notifications.WorkerConfig{
		QueueSize:         nc.Worker.QueueSize,
		NumWorkers:        nc.Worker.NumWorkers,
		MaxAttempts:       nc.Retry.MaxAttempts,
		InitialBackoff:    nc.Retry.InitialBackoff,
		MaxBackoff:        nc.Retry.MaxBackoff,
		BackoffMultiplier: nc.Retry.BackoffMultiplier,
	}, notifications.NewDispatcher(senders...), renderer)

	return notifications.NewNotifier(a.notificationWorker, destinations...), nil
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RealIPMiddleware(a.trustedProxies))
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(openapi.Spec)
	})
	r.Get("/docs", docsHandler)

	identityHandler := identity.NewHandler(a.identity)
	adsHandler := ads.NewHandler(ads.NewService(a.store.ads))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if a.limiter != nil {
				r.Use(httputil.RateLimitMiddleware(a.limiter, "auth"))
			}
			identityHandler.RegisterRoutes(r)
		})

		adsHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(a.identity))

			identityHandler.RegisterProtectedRoutes(r)
			adsHandler.RegisterProtectedRoutes(r)
		})
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Current())
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Adboard API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
