package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reportdash/internal/api"
	"reportdash/internal/backend"
	"reportdash/internal/cache"
	"reportdash/internal/config"
	"reportdash/internal/db"
	"reportdash/internal/logger"
	"reportdash/internal/service"
	"reportdash/internal/store"
	"reportdash/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "reportdash")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	sqdb, err := db.Open(cfg)
	if err != nil {
		zlog.Fatal("open db", zap.Error(err))
	}
	defer sqdb.Close()
	if err := db.ApplyMigrationFile(sqdb, "migrations/001_init.sql"); err != nil {
		zlog.Fatal("migration", zap.Error(err))
	}
	st := store.New(sqdb, cfg.DBDriver)

	var kv cache.KV = cache.NewMemory()
	if cfg.RedisAddr != "" {
		kv = cache.NewRedis(cfg.RedisAddr)
		zlog.Info("using redis response cache", zap.String("addr", cfg.RedisAddr))
	}
	responses := cache.NewResponses(kv, zlog)

	live := backend.NewHTTPClient(cfg.BackendBaseURL, cfg.BackendTimeout())
	demo := backend.NewDemoClient(cfg.DemoDelay())
	client := backend.NewFallback(live, demo, cfg.DemoMode, zlog)

	svc := service.New(cfg, zlog, client, responses, st)
	r := api.NewRouter(cfg, zlog, svc)

	hsrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTPReadHeaderTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("backend", cfg.BackendBaseURL),
			zap.Bool("demo_mode", cfg.DemoMode),
			zap.String("version", version.Version))
		errCh <- hsrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := hsrv.Shutdown(ctx); err != nil {
			zlog.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server", zap.Error(err))
		}
	}
}
