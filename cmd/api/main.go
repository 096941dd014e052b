package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"civicport/api/internal/app"
	"civicport/api/internal/config"
	"civicport/api/internal/media"
	"civicport/api/internal/search"
	"civicport/api/internal/session"
	"civicport/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var service *app.Service
	var fallback search.Searcher

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}

		dataStore := store.NewPostgresStore(db)
		service = app.New(cfg, dataStore)
		fallback = search.NewPgFTS(db)
	} else {
		// Demo mode: in-memory store, seeded with the sample issues.
		log.Printf("DATABASE_URL not set, running with the in-memory demo store")
		memStore := store.NewSeededMemStore()
		service = app.New(cfg, memStore)
		fallback = search.NewLinear(memStore)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		defer meiliClient.Close()
	}
	service.UseSearch(search.NewService(meiliClient, fallback))

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		service.UseSessionStore(redisStore)
	} else {
		log.Printf("Using the primary store for refresh session storage")
	}

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		photos, err := media.New(ctx, media.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		service.UseMedia(photos)
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Civic Portal API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
