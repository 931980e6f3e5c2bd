// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jwks-server/config"
	"jwks-server/internal/handler"
	"jwks-server/internal/infra"
	"jwks-server/internal/repository"
	"jwks-server/internal/usecase"
	"jwks-server/migrations"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	slog.SetDefault(infra.NewLogger(os.Stdout, cfg))

	// メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := infra.NewMetrics(registry)
	if err != nil {
		slog.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// 鍵の初期生成（有効1つ・期限切れ1つ）。失敗したら起動しない
	store := repository.NewKeyRepository()
	generator := usecase.NewKeyGenerator(
		usecase.WithKeyTTL(cfg.KeyTTL),
		usecase.WithGeneratorMetrics(metrics),
	)
	if err := generator.Seed(ctx, store); err != nil {
		slog.Error("failed to seed signing keys", "error", err)
		os.Exit(1)
	}

	// 発行履歴（DATABASE_URL が設定されている場合のみ）
	var issuances *usecase.IssuanceService
	if cfg.DatabaseURL != "" {
		db, err := infra.NewDB(cfg.DatabaseURL, cfg)
		if err != nil {
			slog.Error("failed to init database", "error", err)
			os.Exit(1)
		}
		migrator := usecase.NewMigrationService(repository.NewMigrationRepository(db), db, migrations.FS)
		if _, err := migrator.Apply(ctx); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		issuances = usecase.NewIssuanceService(repository.NewIssuanceRepository(db))
	}

	// DI
	jwksService := usecase.NewJWKSService(store, cfg.JWKSCacheTTL, metrics)
	tokenService := usecase.NewTokenService(store, cfg.TokenSubject, cfg.TokenTTL, metrics)
	authHandler := handler.NewAuthHandler(jwksService, tokenService, issuances, time.Now)

	var keyHandler *handler.KeyHandler
	if cfg.AdminAPIEnabled {
		keyHandler = handler.NewKeyHandler(usecase.NewKeyService(store, generator), issuances, time.Now)
	}
	router := handler.NewRouter(authHandler, keyHandler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "jwks-server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "keys", store.Len())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
