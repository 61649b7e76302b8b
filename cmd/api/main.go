package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"resto-pos/internal/catalog"
	"resto-pos/internal/config"
	"resto-pos/internal/httpx"
	kafkax "resto-pos/internal/kafka"
	"resto-pos/internal/orders"
	"resto-pos/internal/postgres"
	"resto-pos/internal/redisx"
	"resto-pos/internal/sales"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producers for the two invalidation signals
	pOrders := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrdersChanged, 1024)
	pOrders.Start(ctx)
	pInventory := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInventoryChanged, 1024)
	pInventory.Start(ctx)

	// Stores & services
	store := &orders.PgStore{
		DB:     db,
		Limits: postgres.Limits{MaxWait: cfg.TxMaxWait, Timeout: cfg.TxTimeout},
	}
	svc := &orders.Service{
		Store: store,
		Notifier: &orders.EventNotifier{
			Orders:    pOrders,
			Inventory: pInventory,
			Service:   cfg.ServiceName,
		},
	}

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Service: svc, Store: store}).Register(router)
	(&httpx.ProductsHandler{Repo: &catalog.Repo{DB: db}, Redis: rdb}).Register(router)
	(&httpx.SalesHandler{Repo: &sales.Repo{DB: db}, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pOrders.Close()
	pInventory.Close()
	cancel()
	pOrders.WaitClosed()
	pInventory.WaitClosed()
}
