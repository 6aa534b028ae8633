package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-event-tickets/internal/config"
	kafkax "github.com/ariefcatur/go-event-tickets/internal/kafka"
	"github.com/ariefcatur/go-event-tickets/internal/postgres"
	"github.com/ariefcatur/go-event-tickets/internal/tickets"
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

	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, tickets.TopicOrderCancelled, 1024)
	pCancel.Start(ctx)

	pub := &tickets.Publisher{
		OrderCancelledProducer: pCancel,
		Service:                cfg.ServiceName + "-sweeper",
	}
	sweeper := &tickets.Sweeper{
		Repo:        &tickets.Repo{DB: db},
		Notifier:    pub,
		PageSize:    cfg.SweepPageSize,
		Parallelism: cfg.SweepParallelism,
		Interval:    cfg.SweepInterval,
	}

	go sweeper.Run(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	pCancel.Close()
	cancel()
	pCancel.WaitClosed()
}
