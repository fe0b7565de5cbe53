package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/orbitalworks/salvage-exchange/internal/config"
	"github.com/orbitalworks/salvage-exchange/internal/docstore"
	"github.com/orbitalworks/salvage-exchange/internal/lobby"
	"github.com/orbitalworks/salvage-exchange/internal/market"
	"github.com/orbitalworks/salvage-exchange/internal/metrics"
	"github.com/orbitalworks/salvage-exchange/internal/middleware"
	"github.com/orbitalworks/salvage-exchange/internal/player"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	var cleanup []func()
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Database pool (shared by the player store and, absent Redis,
	// the document store) ---
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		slog.Info("connected to PostgreSQL")
	}

	// --- Document store for the marketplace ledger ---
	// Redis preferred, then PostgreSQL, then in-memory fallback.
	var docs docstore.Store
	switch {
	case cfg.RedisURL != "":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		docs = docstore.NewRedisStore(rdb, "salvage")
		slog.Info("marketplace documents on Redis")
	case pool != nil:
		ps := docstore.NewPostgresStore(pool)
		if err := ps.Init(ctx); err != nil {
			slog.Error("document schema init failed", "err", err)
			os.Exit(1)
		}
		docs = ps
		slog.Info("marketplace documents on PostgreSQL")
	default:
		slog.Warn("no REDIS_URL or DATABASE_URL set, marketplace data will not persist")
		docs = docstore.NewMemoryStore()
	}

	// --- Player store ---
	var players player.Store
	if pool != nil {
		ps := player.NewPostgresStore(pool)
		if err := ps.Init(ctx); err != nil {
			slog.Error("player schema init failed", "err", err)
			os.Exit(1)
		}
		players = ps
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory player store")
		players = player.NewMemoryStore()
	}

	// --- Services ---
	marketSvc := market.NewService(market.NewLedger(docs))
	playerSvc := player.NewService(players)

	lobbyHub := lobby.NewHub(cfg.LobbyTTL)
	go lobbyHub.Run()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(rateLimiter.Handler)

	// CORS middleware for the game client.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"salvage-exchange"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Lobby presence WebSocket.
		r.Get("/lobby/ws", lobbyHub.HandleWS)

		// Marketplace ledger.
		marketSvc.Routes(r)

		// Player persistence.
		playerSvc.Routes(r)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("salvage-exchange listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down salvage-exchange...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("salvage-exchange stopped")
}
