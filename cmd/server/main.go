package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"keydepot/config"
	keysHttp "keydepot/internal/keys/delivery/http"
	"keydepot/internal/keys/repository"
	"keydepot/internal/keys/usecase"
	"keydepot/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v, err := config.LoadConfig("config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	lg, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Bun.DSN))
	sqlDB := sql.OpenDB(connector)
	db := bun.NewDB(sqlDB, pgdialect.New())
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		log.Fatalf("failed to ping database: %v", err)
	}
	cancel()
	lg.Info("connected to postgres")

	repo := repository.NewKeyRepository(db, *lg)
	uc := usecase.NewKeyUsecase(repo, *lg, *cfg)
	handlers := keysHttp.NewHandlers(uc, *lg)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Device-ID"},
		AllowCredentials: true,
	}))
	keysHttp.SetupRoutes(r, handlers)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("key distribution server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", "err", err)
	}
}
