package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lamesa-pos-service/internal/config"
	"lamesa-pos-service/internal/db"
	httpapi "lamesa-pos-service/internal/http"
	"lamesa-pos-service/internal/logger"
	"lamesa-pos-service/internal/pagofacil"
	"lamesa-pos-service/internal/queue"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureEventTopology(qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
			log.Info("domain events enabled", zap.String("exchange", queue.EventsExchange))
			go func() {
				err := qc.ConsumeWithRetry(queue.NotificationsQueue, func(ctx context.Context, body []byte) error {
					return queue.LogEvent(log, body)
				}, 5, 5*time.Second)
				if err != nil {
					log.Error("event consumer stopped", zap.Error(err))
				}
			}()
		}
	} else {
		log.Info("domain events disabled (RABBITMQ_URL is empty)")
	}

	gateway := pagofacil.NewClient(cfg.PagoFacilBaseURL, cfg.PagoFacilToken, cfg.PagoFacilCallbackURL)
	payments := pagofacil.NewPendingStore(cfg.PaymentCacheTTL)

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(pool, log, cfg, queueClient, gateway, payments),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("pos service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
