package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showroom/internal/config"
	"showroom/internal/http/handlers"
	applog "showroom/internal/log"
	"showroom/internal/ratelimit"
	"showroom/internal/repos"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.L.Fatal().Err(err).Msg("config")
	}

	// Optional file logging
	var sink io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.L.Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			sink = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init(cfg.LogLevel, cfg.LogFormat, sink)
	applog.L.Info().
		Str("port", cfg.Port).
		Str("db_driver", cfg.DBDriver).
		Bool("redis", cfg.RedisAddr != "").
		Bool("jwt", cfg.JWTSecret != "").
		Msg("config loaded")

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		applog.L.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed {
		if err := repos.Seed(ctx, db); err != nil {
			applog.L.Fatal().Err(err).Msg("seed")
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		limiter = ratelimit.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.RLLimit, cfg.RLWindow)
		defer limiter.Close()
	}

	deps := handlers.NewDeps(db, cfg, limiter)
	app := handlers.NewApp(deps, handlers.Options{
		RateMax:    cfg.RLLimit,
		RateWindow: cfg.RLWindow,
		AccessLog:  true,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.L.Info().Str("addr", ":"+cfg.Port).Msg("listening")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.L.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		applog.L.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
