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

	"huntclub/internal/infrastructure/config"
	"huntclub/internal/infrastructure/db"
	httpapi "huntclub/internal/interface/http"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatalf("CRITICAL: load config failed: %v", err)
	}
	log.Printf("configuration loaded (HTTP_ADDR=%s, SESSION_BACKEND=%s)", cfg.HTTP.Addr, cfg.Session.Backend)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Printf("testing database connection...")
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		if cfg.Session.Backend == config.BackendPostgres {
			log.Fatalf("CRITICAL: database required by session backend: %v", err)
		}
		log.Printf("warning: database connection failed, falling back to in-memory users: %v", err)
	} else if pool == nil {
		log.Printf("no DB_DSN provided; running with in-memory users only")
	} else {
		defer pool.Close()
		log.Printf("database connected successfully")
	}

	rdb, err := db.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("CRITICAL: redis connection failed: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Printf("redis connected successfully")
	}

	apiServer, err := httpapi.NewServer(cfg, pool, rdb)
	if err != nil {
		log.Fatalf("CRITICAL: build server failed: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	go func() {
		<-stop.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("starting HTTP server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server stopped: %v", err)
	}
	log.Printf("server stopped")
}
