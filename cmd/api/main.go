package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/veststore/internal/api"
	"github.com/example/veststore/internal/auth"
	"github.com/example/veststore/internal/cache"
	"github.com/example/veststore/internal/config"
	"github.com/example/veststore/internal/domain/cart"
	"github.com/example/veststore/internal/domain/order"
	"github.com/example/veststore/internal/domain/product"
	"github.com/example/veststore/internal/domain/user"
	"github.com/example/veststore/internal/kafka"
	"github.com/example/veststore/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Configuration error: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Vest Store API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)

	// Kafka producer; every state change is published after commit
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// PostgreSQL is the system of record
	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("[API] Failed to ensure schema: %v", err)
	}
	log.Println("[API] Connected to PostgreSQL")

	st := store.NewPostgresStore(db)

	// Domain services
	productSvc := product.NewService(st, producer)
	cartSvc := cart.NewService(st, producer)
	orderSvc := order.NewService(st, producer)
	userSvc := user.NewService(st)

	jwtService := auth.NewJWTService(
		cfg.JWTSecret,
		15*time.Minute, // Access token expiry
		7*24*time.Hour, // Refresh token expiry (7 days)
	)

	handlers := api.NewHandlers(productSvc, cartSvc, orderSvc, st)

	// Redis cache for the catalog; the API degrades to Postgres reads when
	// Redis is unreachable
	if rdb, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Printf("[API] Redis unavailable, catalog reads go to PostgreSQL: %v", err)
	} else {
		defer rdb.Close()
		productCache := cache.NewProductCache(productSvc, rdb)
		handlers = handlers.WithProductCache(productCache, productCache)
		log.Printf("[API] Catalog cache enabled (Redis %s)", cfg.RedisAddr)
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers:     handlers,
		AuthHandlers: api.NewAuthHandlers(userSvc, jwtService),
		JWTService:   jwtService,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
