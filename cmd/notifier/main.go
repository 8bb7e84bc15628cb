package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/orial-storefront/internal/config"
	kafkax "github.com/ariefcatur/orial-storefront/internal/kafka"
	"github.com/ariefcatur/orial-storefront/internal/logging"
	"github.com/ariefcatur/orial-storefront/internal/notify"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-notifier"
	log, err := logging.New(name, cfg.Dev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Redis:       rdb,
		Sender:      notify.LogSender{Log: log},
		Log:         log,
		ServiceName: "notifier",
	}

	topics := []string{orders.TopicOrderPlaced, orders.TopicOrderCancelled}
	reader := kafkax.NewReader(cfg.KafkaBrokers, cfg.NotifierGroup, topics...)
	cons := kafkax.NewConsumer(reader, cfg.NotifierWorkers, log.Named("consumer"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("notifier consumer started",
			zap.String("group", cfg.NotifierGroup),
			zap.Strings("topics", topics),
			zap.Int("workers", cfg.NotifierWorkers))
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
