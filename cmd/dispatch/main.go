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

	"github.com/ariefcatur/go-event-tickets/internal/comms"
	"github.com/ariefcatur/go-event-tickets/internal/config"
	"github.com/ariefcatur/go-event-tickets/internal/dispatch"
	kafkax "github.com/ariefcatur/go-event-tickets/internal/kafka"
	"github.com/ariefcatur/go-event-tickets/internal/postgres"
	"github.com/ariefcatur/go-event-tickets/internal/redisx"
	"github.com/ariefcatur/go-event-tickets/internal/rewards"
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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	commsRepo := &comms.Repo{DB: db}
	svc := &dispatch.Service{
		Tickets:     &tickets.Repo{DB: db},
		Comms:       &comms.Service{Store: commsRepo, Quota: cfg.CommQuotaPerEvent},
		CommsRepo:   commsRepo,
		Rewards:     &rewards.Repo{DB: db},
		Sender:      comms.LogSender{},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-dispatch",
	}

	group := getenv("DISPATCH_GROUP", "tickets-dispatch")
	workers := mustAtoi(os.Getenv("DISPATCH_WORKERS"), "8")
	topics := []string{
		tickets.TopicOrderCancelled,
		tickets.TopicOrderRefunded,
		tickets.TopicCheckInRecorded,
		tickets.TopicCommQueued,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers)

	go func() {
		log.Printf("dispatch consumer started: group=%s topics=%v workers=%d", group, topics, workers)
		if err := cons.Start(ctx, svc.Handle); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down dispatcher...")
	cancel()
	time.Sleep(500 * time.Millisecond)
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

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
