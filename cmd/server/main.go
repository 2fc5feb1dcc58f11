package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/urltrimmer/url-trimmer/pkg/adapters/cache"
	"github.com/urltrimmer/url-trimmer/pkg/adapters/handler"
	"github.com/urltrimmer/url-trimmer/pkg/adapters/repository/sqlite"
	"github.com/urltrimmer/url-trimmer/pkg/config"
	"github.com/urltrimmer/url-trimmer/pkg/core/services"
	"github.com/urltrimmer/url-trimmer/pkg/ports"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// The resolver cache is optional; an unset REDIS_ADDR disables it.
	var linkCache ports.LinkCache
	if cfg.RedisAddr != "" {
		rc, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		linkCache = rc
	}

	service := services.NewLinkService(repo, linkCache, cfg.BaseURL, logger)
	resolver := services.NewResolverService(repo, linkCache, logger)

	mux := handler.NewRouter(cfg, service, resolver)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("baseUrl", cfg.BaseURL))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(appEnv string) *zap.Logger {
	if appEnv == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
