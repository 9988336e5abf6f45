// Package main is the entry point for the Voyager portal server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for goose
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/voyager-portal/internal/cartedit"
	"github.com/pkordes/voyager-portal/internal/config"
	"github.com/pkordes/voyager-portal/internal/handler"
	"github.com/pkordes/voyager-portal/internal/middleware"
	"github.com/pkordes/voyager-portal/internal/profile"
	"github.com/pkordes/voyager-portal/internal/repo"
	"github.com/pkordes/voyager-portal/internal/session"
	"github.com/pkordes/voyager-portal/internal/upstream"
	"github.com/pkordes/voyager-portal/internal/workspace"
	"github.com/pkordes/voyager-portal/migrations"
)

// maxBodyBytes bounds JSON request bodies. Avatar uploads get their own,
// larger limit on top of AVATAR_MAX_BYTES.
const maxBodyBytes = 64 << 10

// sweepInterval paces the expired-session purge and the page registry sweep.
const sweepInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Upstream ---------------------------------------------------------
	client, err := upstream.New(cfg.APIBaseURL, cfg.UpstreamTimeout, logger)
	if err != nil {
		return err
	}

	// --- Session store ----------------------------------------------------
	g, ctx := errgroup.WithContext(ctx)

	var store session.Store
	switch cfg.SessionStore {
	case config.StorePostgres:
		pool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = repo.NewSessionStore(pool)
		g.Go(func() error {
			return purgeLoop(ctx, logger, func(ctx context.Context, now time.Time) (int64, error) {
				return repo.PurgeExpired(ctx, pool, now)
			})
		})
	case config.StoreRedis:
		rdb, err := repo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = repo.NewRedisSessionStore(rdb)
	default:
		mem := session.NewMemoryStore()
		store = mem
		g.Go(func() error {
			return purgeLoop(ctx, logger, func(_ context.Context, now time.Time) (int64, error) {
				return mem.PurgeExpired(now), nil
			})
		})
	}
	slog.Info("session store ready", "backend", cfg.SessionStore)

	sessions := session.NewManager(client, store, cfg.SessionTTL, logger)
	pages := workspace.New(workspace.Deps{
		Cart:    client,
		Profile: client,
		Reauth:  sessions,
		CartOpts: cartedit.Options{
			Flash:    cfg.StatusFlash,
			Location: loc,
			Log:      logger,
		},
		ProfileOpts: profile.Options{
			AvatarMaxBytes: cfg.AvatarMaxBytes,
			Location:       loc,
			Log:            logger,
		},
		Log: logger,
	})
	sessions.OnEnd(pages.EndSession)
	// Abandoned sessions are never looked up again; the registry sweeps them.
	g.Go(func() error { return pages.Run(ctx, sessions, sweepInterval) })

	srv := handler.NewServer(sessions, pages, handler.Options{
		CookieSecure:   cfg.CookieSecure,
		AvatarMaxBytes: cfg.AvatarMaxBytes,
		LoginLimit:     middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst).Handler,
		Log:            logger,
	})

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(bodyLimit(cfg.AvatarMaxBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.UpstreamTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// bodyLimit applies the JSON body limit everywhere except the avatar upload.
func bodyLimit(avatarMax int64) func(http.Handler) http.Handler {
	small := middleware.NewMaxBodySizeHandler(maxBodyBytes)
	large := middleware.NewMaxBodySizeHandler(avatarMax + 1<<20)
	return func(next http.Handler) http.Handler {
		s, l := small(next), large(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/userData/avatar" {
				l.ServeHTTP(w, r)
				return
			}
			s.ServeHTTP(w, r)
		})
	}
}

// openPostgres connects the session pool and applies pending migrations.
func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migrations db: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration_ms", res.Duration.Milliseconds())
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")
	return pool, nil
}

// purgeLoop removes expired sessions from the store every sweepInterval
// until ctx ends.
func purgeLoop(ctx context.Context, log *slog.Logger, purge func(context.Context, time.Time) (int64, error)) error {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			n, err := purge(ctx, now)
			if err != nil {
				log.WarnContext(ctx, "purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}
