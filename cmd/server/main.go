package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	auth "github.com/spsgroup/go-auth"
	"github.com/spsgroup/go-auth/ratelimit"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfig(os.Getenv("AUTH_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.Debug),
	}))
	logger := appLogger{l: slogger}

	if cfg.UsingDefaultSigningKey() {
		slogger.Warn("running with the default signing key; set AUTH_AUTH_SIGNING_KEY in any real deployment")
	}

	ctx := context.Background()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		slogger.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	provider := auth.NewUserProvider(store).WithLogger(logger)
	auther := auth.NewAuthenticator(provider, authOptions{cfg: cfg.Auth}).WithLogger(logger)

	httpAuth, err := auth.NewHTTPAuth(auther, authOptions{cfg: cfg.Auth})
	if err != nil {
		slogger.Error("http auth initialization failed", "error", err)
		os.Exit(1)
	}
	httpAuth.WithLogger(logger)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "sps-auth",
			StrictRouting: false,
		}))
	})

	r := srv.Router()
	r.Use(auth.ErrorBoundary(logger))

	limiterStore, limiterCleanup := buildLimiterStore(cfg, slogger)
	defer limiterCleanup()

	r.Use(ratelimit.New(ratelimit.Config{
		Name: "api",
		Limiter: ratelimit.NewLimiter(limiterStore, ratelimit.Rule{
			Max:            cfg.Limits.API.Max,
			Window:         cfg.Limits.API.Window(),
			SkipSuccessful: cfg.Limits.API.SkipSuccessful,
		}),
	}))

	loginLimiter := ratelimit.New(ratelimit.Config{
		Name: "login",
		Limiter: ratelimit.NewLimiter(limiterStore, ratelimit.Rule{
			Max:            cfg.Limits.Login.Max,
			Window:         cfg.Limits.Login.Window(),
			SkipSuccessful: cfg.Limits.Login.SkipSuccessful,
		}),
	})

	auth.RegisterAPIRoutes(r,
		auth.WithAPIStore(store),
		auth.WithAPIAuther(httpAuth),
		auth.WithAPILogger(logger),
		auth.WithAPIDebug(cfg.Server.Debug),
		auth.WithAPILoginLimiter(loginLimiter),
	)

	go func() {
		if err := srv.Serve(cfg.Server.Address); err != nil {
			slogger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	slogger.Info("server listening", "address", cfg.Server.Address)

	WaitExitSignal()

	if err := srv.Shutdown(ctx); err != nil {
		slogger.Error("shutdown failed", "error", err)
	}
}

// buildStore creates the configured Users backend with the primary admin
// seeded, returning a cleanup to run on exit.
func buildStore(ctx context.Context, cfg *Config) (auth.Users, func(), error) {
	hash, err := auth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash seed password: %w", err)
	}

	admin := &auth.User{
		ID:           auth.PrimaryAdminID,
		Name:         cfg.Seed.AdminName,
		Email:        cfg.Seed.AdminEmail,
		Role:         auth.RoleAdmin,
		PasswordHash: hash,
	}

	switch cfg.Store.Driver {
	case "", "memory":
		return auth.NewMemoryStore(admin), func() {}, nil

	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}

		db := bun.NewDB(sqldb, sqlitedialect.New())

		repo := auth.NewBunUsers(db)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.EnsureSeed(ctx, admin); err != nil {
			db.Close()
			return nil, nil, err
		}

		return repo, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildLimiterStore picks Redis when enabled so all instances share one
// budget per client, in-process counters otherwise.
func buildLimiterStore(cfg *Config, slogger *slog.Logger) (ratelimit.Store, func()) {
	if !cfg.Redis.Enabled {
		return ratelimit.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	slogger.Info("rate limit counters on redis", "addr", cfg.Redis.Addr)

	return ratelimit.NewRedisStore(client, "ratelimit"), func() { client.Close() }
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func logLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// appLogger adapts slog's key-value API to the library's Logger contract.
type appLogger struct {
	l *slog.Logger
}

func (a appLogger) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a appLogger) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a appLogger) Error(msg string, args ...any) { a.l.Error(msg, args...) }
