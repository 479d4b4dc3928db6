package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/config"
	"github.com/cusspwk/cuss/internal/auth"
	"github.com/cusspwk/cuss/internal/form"
	"github.com/cusspwk/cuss/internal/handler"
	"github.com/cusspwk/cuss/internal/middleware"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
	"github.com/cusspwk/cuss/pkg/cache"
	"github.com/cusspwk/cuss/pkg/db"
	"github.com/cusspwk/cuss/pkg/events"
	"github.com/cusspwk/cuss/pkg/geocode"
	"github.com/cusspwk/cuss/pkg/geolocate"
	"github.com/cusspwk/cuss/pkg/logger"
	"github.com/cusspwk/cuss/pkg/media"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewForEnvironment(cfg.Env, logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("PostgreSQL connected")

	migrator, err := db.NewMigrator(cfg.Postgres.MigrateURL(), log)
	if err != nil {
		log.Fatal("failed to open migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	// ── Connect to MongoDB ──────────────────────────────
	mongoDB, err := db.NewMongoDatabase(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	log.Info("MongoDB connected", zap.String("database", cfg.Mongo.Database))

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected")

	// ── Events ──────────────────────────────────────────
	var publisher events.Publisher = &events.NoopPublisher{}
	var natsPub *events.NATSPublisher
	if cfg.NATS.URL != "" {
		natsPub, err = events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		publisher = natsPub
		log.Info("NATS connected", zap.String("url", cfg.NATS.URL))
	}
	defer func() { _ = publisher.Close() }()

	// ── Initialize layers ───────────────────────────────
	fieldRepo := repository.NewFieldRepository(pgPool)
	configRepo := repository.NewServiceConfigRepository(pgPool)
	serviceRepo := repository.NewServiceRepository(pgPool)
	contentRepo := repository.NewContentRepository(pgPool)
	adminRepo := repository.NewAdminRepository(pgPool)
	txRepo := repository.NewTransactionRepository(mongoDB)
	if err := txRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create transaction indexes", zap.Error(err))
	}

	formCache := repository.NewFormCache(formStore{fieldRepo, configRepo}, redisClient, cfg.Form.CacheTTL)
	refresher := form.NewRefresher(formCache, cfg.Form.RefreshInterval, log.Named("form"))
	if _, err := refresher.Refresh(ctx); err != nil {
		log.Warn("initial form load failed; will retry", zap.Error(err))
	}
	go refresher.Run(ctx)

	if natsPub != nil {
		unsubscribe, err := natsPub.Subscribe(events.TopicFormChanged, func([]byte) {
			if _, err := refresher.Refresh(ctx); err != nil {
				log.Warn("form refresh on change event failed", zap.Error(err))
			}
		})
		if err != nil {
			log.Fatal("failed to subscribe to form changes", zap.Error(err))
		}
		defer unsubscribe()
	}

	var locator geolocate.Locator
	if cfg.Geolocate.BaseURL != "" {
		locator = geolocate.NewIPAPIClient(cfg.Geolocate.BaseURL)
	}

	var mediaStore handler.MediaStore
	if cfg.S3.Bucket != "" {
		uploader, err := media.NewS3Uploader(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Endpoint, cfg.S3.PublicURL)
		if err != nil {
			log.Fatal("failed to configure S3", zap.Error(err))
		}
		mediaStore = uploader
	}

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	formSvc := service.NewFormService(fieldRepo, configRepo, formCache, refresher, publisher, log.Named("form"))
	bookingSvc := service.NewBookingService(refresher, txRepo, locator, cfg.Geolocate.Timeout, publisher, log.Named("booking"))
	catalogSvc := service.NewCatalogService(serviceRepo, contentRepo)
	authSvc := service.NewAuthService(adminRepo, jwtSvc)

	formHandler := handler.NewFormHandler(formSvc, log)
	transactionHandler := handler.NewTransactionHandler(bookingSvc, log)
	catalogHandler := handler.NewCatalogHandler(catalogSvc, log)
	authHandler := handler.NewAuthHandler(authSvc, log)
	geocodeHandler := handler.NewGeocodeHandler(geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout), log)
	mediaHandler := handler.NewMediaHandler(mediaStore, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return db.HealthCheck(ctx, pgPool) },
		"mongo":    func(ctx context.Context) error { return db.MongoHealthCheck(ctx, mongoDB) },
		"redis":    func(ctx context.Context) error { return cache.HealthCheck(ctx, redisClient) },
	})

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		log.Fatal("invalid trusted proxies", zap.Error(err))
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, log)
	go sweepLimiter(ctx, limiter)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()
	router.Handle("/health", healthHandler).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(jwtSvc))

	formHandler.Routes(api, admin)
	catalogHandler.Routes(api, admin)
	transactionHandler.Routes(api, admin, limiter.Middleware)
	authHandler.Routes(api, admin, limiter.Middleware)
	geocodeHandler.Routes(api, limiter.Middleware)
	mediaHandler.Routes(admin)

	var h http.Handler = router
	h = middleware.RequestLogger(log.Named("http"))(h)
	h = middleware.Recoverer(log)(h)
	h = middleware.CORS(h)
	h = middleware.RealIP(trustedProxies)(h)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.ServerAddr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("server gracefully stopped")
}

// formStore joins the two Postgres repositories into the store the form
// cache reads through.
type formStore struct {
	*repository.FieldRepository
	*repository.ServiceConfigRepository
}

func sweepLimiter(ctx context.Context, l *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now.Add(-10 * time.Minute))
		}
	}
}
