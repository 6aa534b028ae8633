package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-event-tickets/internal/checkin"
	"github.com/ariefcatur/go-event-tickets/internal/comms"
	"github.com/ariefcatur/go-event-tickets/internal/config"
	"github.com/ariefcatur/go-event-tickets/internal/httpx"
	kafkax "github.com/ariefcatur/go-event-tickets/internal/kafka"
	"github.com/ariefcatur/go-event-tickets/internal/postgres"
	"github.com/ariefcatur/go-event-tickets/internal/redisx"
	"github.com/ariefcatur/go-event-tickets/internal/tickets"
	"github.com/ariefcatur/go-event-tickets/internal/token"
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

	// Outbox producers, one per topic
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, tickets.TopicOrderCancelled, 1024)
	pCancel.Start(ctx)
	pRefund := kafkax.NewProducer(cfg.KafkaBrokers, tickets.TopicOrderRefunded, 1024)
	pRefund.Start(ctx)
	pCheckIn := kafkax.NewProducer(cfg.KafkaBrokers, tickets.TopicCheckInRecorded, 1024)
	pCheckIn.Start(ctx)
	pComm := kafkax.NewProducer(cfg.KafkaBrokers, tickets.TopicCommQueued, 1024)
	pComm.Start(ctx)

	pub := &tickets.Publisher{
		OrderCancelledProducer: pCancel,
		OrderRefundedProducer:  pRefund,
		CheckInProducer:        pCheckIn,
		CommProducer:           pComm,
		Service:                cfg.ServiceName,
	}

	repo := &tickets.Repo{DB: db}
	commsRepo := &comms.Repo{DB: db}
	tokenRepo := &token.Repo{DB: db}
	limiter := token.NewRedisRateLimiter(rdb, cfg.RateLimitWindow, cfg.RateLimitMax)

	checkInSvc := &checkin.Service{Store: repo, Publisher: pub, Lead: cfg.CheckInLead}
	commsSvc := &comms.Service{
		Store:       commsRepo,
		Registrants: repo,
		Publisher:   pub,
		Quota:       cfg.CommQuotaPerEvent,
	}

	oh := &httpx.OrdersHandler{
		Repo:              repo,
		Publisher:         pub,
		Redis:             rdb,
		ExpirationMinutes: cfg.OrderExpirationMinutes,
	}
	ch := &httpx.CheckInHandler{Service: checkInSvc}
	mh := &httpx.CommsHandler{Service: commsSvc, Staff: repo}
	th := &httpx.TokenHandler{Repo: tokenRepo}

	router := httpx.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(httpx.SessionAuth(rdb))
		oh.Register(r)
		ch.Register(r)
		mh.Register(r)
		th.Register(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(httpx.TokenAuth(tokenRepo, limiter))
		r.Route("/machine", func(r chi.Router) {
			oh.RegisterMachine(r)
			mh.RegisterMachine(r)
		})
	})

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

	for _, p := range []*kafkax.Producer{pCancel, pRefund, pCheckIn, pComm} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCancel, pRefund, pCheckIn, pComm} {
		p.WaitClosed()
	}
}
