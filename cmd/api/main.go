package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/atelierworks/orderflow/internal/cart"
	"github.com/atelierworks/orderflow/internal/catalog"
	"github.com/atelierworks/orderflow/internal/config"
	"github.com/atelierworks/orderflow/internal/dispatch"
	"github.com/atelierworks/orderflow/internal/downloads"
	"github.com/atelierworks/orderflow/internal/httpx"
	kafkax "github.com/atelierworks/orderflow/internal/kafka"
	"github.com/atelierworks/orderflow/internal/orders"
	"github.com/atelierworks/orderflow/internal/postgres"
	"github.com/atelierworks/orderflow/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)
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

	// Kafka producers, one per side-effect topic
	notifyProd := kafkax.NewProducer(cfg.KafkaBrokers, dispatch.TopicNotify, 1024, logger)
	notifyProd.Start(ctx)
	digitalProd := kafkax.NewProducer(cfg.KafkaBrokers, dispatch.TopicDigitalFulfill, 1024, logger)
	digitalProd.Start(ctx)
	queue := &dispatch.KafkaQueue{Notify: notifyProd, Digital: digitalProd, Service: cfg.ServiceName}

	// Repos & services
	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	cartStore := &cart.Store{RDB: rdb}
	cartSvc := &cart.Service{Lines: cartStore, Catalog: catalogRepo}
	statusCache := &orders.RedisStatusCache{RDB: rdb}

	checkout := &orders.CheckoutService{
		Store:   orderRepo,
		Catalog: catalogRepo,
		Cart:    cartStore,
		Queue:   queue,
		Log:     logger,
	}
	lifecycle := &orders.LifecycleService{
		Store: orderRepo,
		Cache: statusCache,
		Queue: queue,
		Log:   logger,
	}
	feedback := &orders.FeedbackService{Store: orderRepo}
	issuer := downloads.NewIssuer(
		&downloads.Repo{DB: db}, catalogRepo,
		cfg.DownloadWindow, cfg.DownloadCap, cfg.LinkTTL,
		cfg.AssetBaseURL, []byte(cfg.SigningSecret),
	)

	// Router
	router := httpx.NewRouter()
	(&httpx.CartHandler{Store: cartStore, Pricer: cartSvc}).Register(router)
	(&httpx.CheckoutHandler{Checkout: checkout}).Register(router)
	(&httpx.OrdersHandler{Repo: orderRepo, Lifecycle: lifecycle, Cache: statusCache}).Register(router)
	(&httpx.FeedbackHandler{Feedback: feedback}).Register(router)
	(&httpx.DownloadsHandler{Issuer: issuer}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	notifyProd.Close() // close inbox -> flush & close writer
	digitalProd.Close()
	cancel() // stop producer loops
	notifyProd.WaitClosed()
	digitalProd.WaitClosed()
}
