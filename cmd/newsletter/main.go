package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/newsletter/internal/auth"
	"github.com/dmitrymomot/newsletter/internal/config"
	"github.com/dmitrymomot/newsletter/internal/delivery"
	"github.com/dmitrymomot/newsletter/internal/email"
	"github.com/dmitrymomot/newsletter/internal/idempotency"
	"github.com/dmitrymomot/newsletter/internal/migrations"
	"github.com/dmitrymomot/newsletter/internal/newsletter"
	"github.com/dmitrymomot/newsletter/internal/pg"
	"github.com/dmitrymomot/newsletter/internal/server"
	"github.com/dmitrymomot/newsletter/internal/subscriber"
)

func main() {
	var (
		appCfg   config.App
		redisCfg config.Redis
		pgCfg    pg.Config
		emailCfg email.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&emailCfg)

	log := newLogger(appCfg)

	if err := run(appCfg, redisCfg, pgCfg, emailCfg, log); err != nil {
		log.Error("service stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.App) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func newEmailSender(cfg email.Config, log *slog.Logger) (email.Sender, error) {
	if cfg.PostmarkServerToken == "" {
		log.Warn("postmark token not configured, writing outbound email to disk",
			slog.String("dir", cfg.DevOutputDir))
		return email.NewDevSender(cfg.DevOutputDir), nil
	}
	return email.NewPostmarkSender(cfg)
}

func run(appCfg config.App, redisCfg config.Redis, pgCfg pg.Config, emailCfg email.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	sender, err := newEmailSender(emailCfg, log)
	if err != nil {
		return err
	}

	subscribers := subscriber.NewService(subscriber.NewPgRepository(pool), sender, appCfg.BaseURL, log)
	newsletters := newsletter.NewService(idempotency.NewStore(pool), newsletter.NewPgIssueRepository(), log)
	authSvc := auth.NewService(auth.NewPgUserRepository(pool), log)
	sessions := auth.NewSessionStore(redisClient, redisCfg.SessionTTL)

	worker, err := delivery.NewWorker(delivery.NewPgQueue(pool), sender, log)
	if err != nil {
		return err
	}
	pruner, err := delivery.NewPruner(delivery.NewPgIdempotencyPruner(pool), log)
	if err != nil {
		return err
	}

	srv := server.New(subscribers, newsletters, authSvc, sessions, log)
	httpServer := server.HTTPServer(appCfg, srv.Router())

	// Any loop exiting takes the whole process down so the supervisor can
	// restart it in a known-good state.
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", slog.String("addr", appCfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return worker.Run(ctx)
	})

	g.Go(func() error {
		return pruner.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
