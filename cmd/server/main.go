package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minibar/backend/internal/cache"
	"minibar/backend/internal/config"
	"minibar/backend/internal/httpapi"
	"minibar/backend/internal/service"
	"minibar/backend/internal/store"
	"minibar/backend/internal/store/memory"
	pgstore "minibar/backend/internal/store/postgres"
	"minibar/backend/internal/store/script"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.ScriptURL != "":
		repo = script.New(cfg.ScriptURL)
		log.Println("repository: remote script")
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	default:
		repo = memory.NewSeeded()
		log.Println("repository: in-memory (seeded)")
	}

	carts := cache.CartCache(cache.NewMemory())
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("redis unavailable (%v), using in-memory cart cache", err)
		} else {
			carts = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cart cache: redis")
		}
	} else {
		log.Println("cart cache: in-memory")
	}

	svc := service.New(repo, carts, time.Duration(cfg.CartTTLMinutes)*time.Minute, log.Default())
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("minibar backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
