package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/neobank/neobank/internal/accounts"
	"github.com/neobank/neobank/internal/config"
	"github.com/neobank/neobank/internal/database"
	"github.com/neobank/neobank/internal/identities"
	"github.com/neobank/neobank/internal/ledger"
	"github.com/neobank/neobank/internal/server"
	"github.com/neobank/neobank/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	identitiesSvc, err := identities.NewService(zapLogger, db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		zapLogger.Fatal("Failed to create identities service", zap.Error(err))
	}

	accountsSvc, err := accounts.NewService(zapLogger, db, accounts.NewRandomNumberSource())
	if err != nil {
		zapLogger.Fatal("Failed to create accounts service", zap.Error(err))
	}

	ledgerSvc, err := ledger.NewService(zapLogger, db)
	if err != nil {
		zapLogger.Fatal("Failed to create ledger service", zap.Error(err))
	}

	srv := server.NewServer(zapLogger, identitiesSvc, accountsSvc, ledgerSvc)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
