// Package main is the entrypoint for the artifyAI API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Nazifamoh/artifyAI/internal/auth"
	"github.com/Nazifamoh/artifyAI/internal/cache"
	"github.com/Nazifamoh/artifyAI/internal/config"
	"github.com/Nazifamoh/artifyAI/internal/handler"
	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/middleware"
	"github.com/Nazifamoh/artifyAI/internal/payment"
	"github.com/Nazifamoh/artifyAI/internal/repository"
	"github.com/Nazifamoh/artifyAI/internal/server"
	"github.com/Nazifamoh/artifyAI/internal/service"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewInMemory()
	userService := service.NewUserService(repo, cfg.SignupCredits)
	creditService := service.NewCreditService(repo, recorder)
	imageService := service.NewImageService(repo, cacheClient, recorder)
	checkoutClient := payment.NewClient(cfg.CheckoutProviderURL, cfg.CheckoutAPIKey, cfg.CheckoutReturnURL)
	checkoutService := service.NewCheckoutService(repo, checkoutClient, creditService, recorder)

	// Workflow session registry with background janitor
	manager := workflow.NewManager(cfg.SessionTTL, cfg.EditQuietWindow, cfg.CreditFee, logger, recorder)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	go manager.Run(janitorCtx)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	userHandler := handler.NewUserHandler(userService, logger)
	imageHandler := handler.NewImageHandler(imageService, logger)
	workflowHandler := handler.NewWorkflowHandler(handler.WorkflowHandlerConfig{
		Sessions: manager,
		Gate:     creditService,
		Saver:    imageService,
		CDNBase:  cfg.CDNBaseURL,
		CDNCloud: cfg.CDNCloud,
		Metrics:  recorder,
		Logger:   logger,
	})
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	webhookHandler := handler.NewWebhookHandler(
		checkoutService,
		userService,
		cfg.CheckoutWebhookSecret,
		cfg.IdentityWebhookSecret,
		logger,
	)

	// Setup router
	verifier := auth.NewVerifier(cfg.SessionSecret, cfg.SessionIssuer)
	r := setupRouter(routerDeps{
		root:     h,
		health:   healthHandler,
		metrics:  metricsHandler,
		users:    userHandler,
		images:   imageHandler,
		workflow: workflowHandler,
		checkout: checkoutHandler,
		webhooks: webhookHandler,
		verifier: verifier,
		userSvc:  userService,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("workflow janitor", func(ctx context.Context) error {
		stopJanitor()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"cdn_cloud", cfg.CDNCloud,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	root     *handler.Handler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
	users    *handler.UserHandler
	images   *handler.ImageHandler
	workflow *handler.WorkflowHandler
	checkout *handler.CheckoutHandler
	webhooks *handler.WebhookHandler
	verifier *auth.Verifier
	userSvc  *service.UserService
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestSize(deps.cfg.MaxRequestBodySize))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health and observability endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.root.Hello)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:   deps.logger,
		Verifier: deps.verifier,
		Cache:    deps.cache,
		Users:    deps.userSvc,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:            deps.logger,
		Limiter:           deps.cache,
		Enabled:           deps.cfg.RateLimitEnabled,
		RequestsPerMinute: deps.cfg.RateLimitRPM,
		Burst:             deps.cfg.RateLimitBurst,
		IPEnabled:         deps.cfg.RateLimitIPEnabled,
		IPRPS:             deps.cfg.RateLimitIPRPS,
		IPBurst:           deps.cfg.RateLimitIPBurst,
	}

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitUser(rateLimitCfg))

		// Account
		r.Route("/me", func(r chi.Router) {
			r.Get("/", deps.users.Me)
			r.Patch("/", deps.users.UpdateMe)
			r.Delete("/", deps.users.DeleteMe)
			r.Get("/credits", deps.users.Balance)
			r.Get("/ledger", deps.users.Ledger)
			r.Get("/images", deps.images.List)
		})

		// Gallery
		r.Route("/images", func(r chi.Router) {
			r.Get("/{id}", deps.images.Get)
			r.Patch("/{id}", deps.images.Update)
			r.Delete("/{id}", deps.images.Delete)
		})

		// Transformation workflow
		r.Get("/transformations", deps.workflow.ListTransformations)
		r.Post("/transformations/{type}/sessions", deps.workflow.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", deps.workflow.GetSession)
			r.Post("/edits", deps.workflow.Edit)
			r.Post("/apply", deps.workflow.Apply)
			r.Post("/save", deps.workflow.Save)
			r.Delete("/", deps.workflow.Discard)
		})

		// Checkout
		r.Get("/checkout/plans", deps.checkout.Plans)
		r.Post("/checkout", deps.checkout.Start)
		r.Get("/checkout/{id}", deps.checkout.Result)
	})

	// Signed webhooks with IP-based rate limiting (no auth required)
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))
		r.Post("/payment", deps.webhooks.Payment)
		r.Post("/identity", deps.webhooks.Identity)
	})

	// 404 and 405 handlers
	r.NotFound(deps.root.NotFound)
	r.MethodNotAllowed(deps.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
