package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/quickscan/backend/internal/ai"
	"github.com/quickscan/backend/internal/config"
	"github.com/quickscan/backend/internal/files"
	"github.com/quickscan/backend/internal/identity"
	"github.com/quickscan/backend/internal/logger"
	appMiddleware "github.com/quickscan/backend/internal/middleware"
	"github.com/quickscan/backend/internal/registry"
	"github.com/quickscan/backend/internal/storage"
)

// demoTokens is the fixed allow-list of pre-shared API strings accepted by
// POST /api/auth/token.
var demoTokens = []string{
	"quickscan-api-token-2024",
	"demo-token-12345",
	"test-api-key-abcdef",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration failed: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	store, variant, err := newStorage(cfg)
	if err != nil {
		zlog.Fatalw("storage init failed", "backend", cfg.StorageBackend, "error", err)
	}
	zlog.Infow("storage ready", "backend", variant)

	idStore := identity.NewStore(cfg.JWTSecret, cfg.TokenTTL, demoTokens)
	reg := registry.New()

	fileSvc := files.NewService(store, reg, zlog, files.Options{
		Variant:       variant,
		MaxUploadSize: cfg.MaxUploadSize,
		SignedURLTTL:  cfg.SignedURLTTL,
		LocalMaxAge:   cfg.LocalMaxAge,
	})

	aiClient := ai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout)
	if cfg.OpenAIAPIKey == "" {
		zlog.Warn("OPENAI_API_KEY not set, AI endpoints will fail upstream")
	}

	authHandler := identity.NewHandler(idStore)
	fileHandler := files.NewHandler(fileSvc)
	aiHandler := ai.NewHandler(aiClient)

	// 5 req/s with burst 10 per client on the credential-issuing endpoints.
	authLimiter := appMiddleware.NewRateLimiter(5, 10)
	defer authLimiter.Stop()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.Middleware(zlog))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/token", authHandler.TokenLogin)
			})
			r.Post("/verify", authHandler.Verify)
			r.Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(idStore))

			r.Post("/upload", fileHandler.Upload)
			r.Route("/files", func(r chi.Router) {
				r.Get("/", fileHandler.List)
				r.Get("/{id}/download", fileHandler.Download)
				r.Get("/{id}/url", fileHandler.GetURL)
				r.Delete("/{id}", fileHandler.Delete)
				r.Post("/cleanup", fileHandler.Cleanup)
			})

			r.Post("/summarize", aiHandler.Summarize)
			r.Post("/chat/completion", aiHandler.ChatCompletion)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepStop := startSweepLoop(fileSvc, cfg.SweepInterval, zlog)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Infow("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("server error", "error", err)
		}
	}()

	<-quit
	zlog.Info("shutting down gracefully...")
	close(sweepStop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatalw("forced shutdown", "error", err)
	}

	zlog.Info("server stopped")
}

// newStorage selects the backend variant once from configuration; it is
// never re-checked per call.
func newStorage(cfg *config.Config) (storage.Backend, storage.Variant, error) {
	if cfg.StorageBackend == "remote" {
		m, err := storage.NewMinio(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageUseSSL,
			cfg.StorageTimeout,
		)
		return m, storage.VariantRemote, err
	}

	l, err := storage.NewLocal(cfg.LocalDir)
	return l, storage.VariantLocal, err
}

// startSweepLoop reclaims expired temporary files in the background until
// the returned channel is closed.
func startSweepLoop(svc *files.Service, interval time.Duration, zlog *zap.SugaredLogger) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := svc.Cleanup(context.Background()); err != nil {
					zlog.Errorw("background cleanup failed", "error", err)
				}
			case <-stop:
				return
			}
		}
	}()
	return stop
}
