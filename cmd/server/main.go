package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posales/backend/internal/cache"
	"posales/backend/internal/config"
	"posales/backend/internal/events"
	"posales/backend/internal/httpapi"
	"posales/backend/internal/metrics"
	"posales/backend/internal/provider"
	"posales/backend/internal/provider/appscript"
	"posales/backend/internal/provider/memory"
	pgprovider "posales/backend/internal/provider/postgres"
	"posales/backend/internal/service"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	repo, closeRepo, err := openProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("data provider unavailable: %v", err)
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	catalogCache := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			catalogCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if cfg.KafkaBrokers != "" {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher.Close)
		log.Printf("events: kafka topic=%s", cfg.KafkaTopic)
	} else {
		log.Println("events: noop")
	}

	registry := metrics.NewRegistry()
	svc := service.New(repo, catalogCache, publisher, registry, serviceOptions(cfg))
	tokens := httpapi.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL())
	api := httpapi.New(svc, tokens, registry.Handler(), cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ProviderTimeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("PO form backend listening on %s", cfg.Address())
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

// openProvider builds the configured data provider. The returned close
// function is nil when there is nothing to release.
func openProvider(ctx context.Context, cfg config.Config) (provider.DataProvider, func() error, error) {
	switch cfg.Provider {
	case config.ProviderMemory:
		log.Println("provider: in-memory")
		return memory.NewSeeded(), nil, nil
	case config.ProviderAppScript:
		log.Println("provider: apps script")
		return appscript.New(cfg.ScriptURL, cfg.ProviderTimeout()), nil, nil
	case config.ProviderPostgres:
		pg, err := pgprovider.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Println("provider: postgres")
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func serviceOptions(cfg config.Config) service.Options {
	return service.Options{
		SessionTTL:      cfg.SessionTTL(),
		CatalogCacheTTL: cfg.CatalogCacheTTL(),
		ProviderTimeout: cfg.ProviderTimeout(),
		POPrefix:        cfg.POPrefix,
		PaymentMethods:  cfg.PaymentMethods,
		SearchLimit:     cfg.SearchLimit,
	}
}
