package main

import (
	"SessionSync/internal/config"
	"SessionSync/internal/handlers"
	"SessionSync/internal/middleware"
	"SessionSync/internal/notify"
	"SessionSync/internal/repo"
	"SessionSync/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	purgeInterval   = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	clock := clockwork.NewRealClock()
	userRepo := repo.NewUserRepository(gormDB)
	sessionRepo := repo.NewSessionRepository(gormDB)
	userService := service.NewUserService(userRepo)
	sessionService := service.NewSessionService(sessionRepo, userRepo, cfg.AuthSecret, cfg.TokenTTL, clock)

	g, gctx := errgroup.WithContext(ctx)

	var broker notify.Broker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("invalid redis url", "error", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Fatalw("redis is unreachable", "error", err)
		}
		rb := notify.NewRedisBroker(rdb, sugar)
		g.Go(func() error {
			rb.Start(gctx)
			return nil
		})
		broker = rb
	} else {
		broker = notify.NewMemoryBroker()
	}

	g.Go(func() error {
		sessionService.RunPurge(gctx, purgeInterval, sugar)
		return nil
	})

	h := handlers.NewHandler(userService, sessionService, broker, sugar, cfg)

	addr := cfg.BaseURL
	srv := &http.Server{Addr: addr, Handler: h.Router}

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"Redis", cfg.RedisURL != "",
		"TokenTTL", cfg.TokenTTL,
	)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}
