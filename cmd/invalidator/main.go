package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"resto-pos/internal/config"
	"resto-pos/internal/invalidator"
	kafkax "resto-pos/internal/kafka"
	"resto-pos/internal/orders"
	"resto-pos/internal/postgres"
	"resto-pos/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &invalidator.Service{
		DB:          db,
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-invalidator",
	}

	group := getenv("INVALIDATOR_GROUP", "pos-invalidator")
	workers := mustAtoi(os.Getenv("INVALIDATOR_WORKERS"), "4")

	cOrders := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrdersChanged, workers)
	cInventory := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicInventoryChanged, workers)

	go func() {
		log.Printf("consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrdersChanged, workers)
		if err := cOrders.Start(ctx, svc.HandleOrdersChanged); err != nil {
			log.Printf("orders consumer exit: %v", err)
			cancel()
		}
	}()
	go func() {
		log.Printf("consumer started: group=%s topic=%s workers=%d", group, orders.TopicInventoryChanged, workers)
		if err := cInventory.Start(ctx, svc.HandleInventoryChanged); err != nil {
			log.Printf("inventory consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumers...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
