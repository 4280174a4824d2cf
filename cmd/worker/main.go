package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/config"
	kafkax "github.com/ariefcatur/go-bookstore/internal/kafka"
	"github.com/ariefcatur/go-bookstore/internal/logger"
	"github.com/ariefcatur/go-bookstore/internal/notify"
	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/postgres"
	"github.com/ariefcatur/go-bookstore/internal/redisx"
	"github.com/ariefcatur/go-bookstore/internal/users"
	"github.com/ariefcatur/go-bookstore/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := logger.Init(cfg.IsDev()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("no kafka brokers configured (KAFKA_BROKERS)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	store := &redisx.Store{RDB: rdb, ProfileTTL: cfg.ProfileCacheTTL}

	h := &worker.Handler{
		Service:  cfg.ServiceName + "-worker",
		Dedup:    store,
		Profiles: store,
		Users:    &users.Repo{DB: db},
		Log:      log,
	}
	if cfg.SMTP.Enabled() {
		h.Mailer = notify.NewSender(cfg.SMTP)
	} else {
		log.Info("SMTP not configured, order e-mails disabled")
	}

	topics := []string{orders.TopicOrderCreated, orders.TopicOrderStatusChanged}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topics, cfg.WorkerCount, log)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("consumer started",
			zap.String("group", cfg.WorkerGroup), zap.Strings("topics", topics), zap.Int("workers", cfg.WorkerCount))
		if err := cons.Start(ctx, h.Handle); err != nil {
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
