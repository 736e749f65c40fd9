package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-tour-booking.git/internal/booking"
	"github.com/ariefcatur/go-tour-booking.git/internal/calendar"
	"github.com/ariefcatur/go-tour-booking.git/internal/catalog"
	"github.com/ariefcatur/go-tour-booking.git/internal/config"
	"github.com/ariefcatur/go-tour-booking.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-tour-booking.git/internal/kafka"
	"github.com/ariefcatur/go-tour-booking.git/internal/orders"
	"github.com/ariefcatur/go-tour-booking.git/internal/postgres"
	"github.com/ariefcatur/go-tour-booking.git/internal/redisx"
	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicOrderCreated, 1024, log)
	prodCreated.Start(ctx)
	prodStatus := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicOrderStatus, 1024, log)
	prodStatus.Start(ctx)
	prodProduct := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicProductStatus, 1024, log)
	prodProduct.Start(ctx)

	// Repos & services
	userRepo := &users.Repo{DB: db}
	productRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	calStore := calendar.NewPGStore(db)

	svc := &booking.Service{
		Products:      productRepo,
		Calendar:      calStore,
		Orders:        orderRepo,
		CommissionPct: cfg.CommissionPct,
		Log:           log,
	}

	oh := &httpx.OrdersHandler{
		Booking:        svc,
		Orders:         orderRepo,
		Redis:          rdb,
		Producer:       prodCreated,
		StatusProducer: prodStatus,
		Log:            log,
		Service:        cfg.ServiceName,
	}
	ph := &httpx.ProductsHandler{
		Products: productRepo,
		Calendar: calStore,
		Producer: prodProduct,
		Log:      log,
		Service:  cfg.ServiceName,
	}

	router := httpx.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(httpx.Identity(userRepo))
		oh.Register(r)
		ph.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer
	prodCreated.Close()
	prodStatus.Close()
	prodProduct.Close()
	prodCreated.WaitClosed()
	prodStatus.WaitClosed()
	prodProduct.WaitClosed()
}
