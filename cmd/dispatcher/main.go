package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/atelierworks/orderflow/internal/catalog"
	"github.com/atelierworks/orderflow/internal/config"
	"github.com/atelierworks/orderflow/internal/dispatch"
	"github.com/atelierworks/orderflow/internal/downloads"
	kafkax "github.com/atelierworks/orderflow/internal/kafka"
	"github.com/atelierworks/orderflow/internal/notify"
	"github.com/atelierworks/orderflow/internal/orders"
	"github.com/atelierworks/orderflow/internal/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName+"-dispatcher")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	mailer, err := notify.NewSESMailer(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey, cfg.SESSender)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}
	var push notify.PushSender
	if cfg.PushGatewayURL != "" {
		push = &notify.HTTPPushSender{Client: http.DefaultClient, URL: cfg.PushGatewayURL, APIKey: cfg.PushAPIKey}
	}

	catalogRepo := &catalog.Repo{DB: db}
	worker := &dispatch.Worker{
		Orders:  &orders.Repo{DB: db},
		Catalog: catalogRepo,
		Issuer: downloads.NewIssuer(
			&downloads.Repo{DB: db}, catalogRepo,
			cfg.DownloadWindow, cfg.DownloadCap, cfg.LinkTTL,
			cfg.AssetBaseURL, []byte(cfg.SigningSecret),
		),
		Mailer:          mailer,
		Push:            push,
		Renderer:        &notify.Renderer{StudioName: cfg.StudioName, PreviewBaseURL: cfg.PreviewBaseURL},
		AdminEmail:      cfg.AdminEmail,
		DownloadBaseURL: cfg.PublicBaseURL,
		Timeout:         cfg.DispatchTimeout,
		Log:             logger,
	}

	notifyConsumer := kafkax.NewConsumer(cfg.KafkaBrokers, "orderflow-dispatcher", dispatch.TopicNotify, cfg.DispatchWorkers, logger)
	digitalConsumer := kafkax.NewConsumer(cfg.KafkaBrokers, "orderflow-dispatcher", dispatch.TopicDigitalFulfill, cfg.DispatchWorkers, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- notifyConsumer.Start(ctx, worker.HandleNotify) }()
	go func() { errCh <- digitalConsumer.Start(ctx, worker.HandleDigitalFulfillment) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("consumer stopped", "err", err)
		}
	}
	cancel()
}
