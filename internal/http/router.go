package httpapi

import (
	"net/http"
	"time"

	"lamesa-pos-service/internal/config"
	"lamesa-pos-service/internal/http/handlers"
	"lamesa-pos-service/internal/middleware"
	"lamesa-pos-service/internal/pagofacil"
	"lamesa-pos-service/internal/queue"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, gateway *pagofacil.Client, payments *pagofacil.PendingStore) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{
		DB:       db,
		Logger:   logger,
		Config:   cfg,
		Queue:    queueClient,
		Gateway:  gateway,
		Payments: payments,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// The gateway posts payment confirmations here; it carries no bearer token.
	r.Post("/api/pagofacil/callback", h.PaymentCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{categoryId}", h.UpdateCategory)
			r.Delete("/{categoryId}", h.DeleteCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{productId}", h.GetProduct)
			r.Put("/{productId}", h.UpdateProduct)
			r.Delete("/{productId}", h.DeleteProduct)
		})

		r.Route("/combos", func(r chi.Router) {
			r.Get("/", h.ListCombos)
			r.Post("/", h.CreateCombo)
			r.Get("/{comboId}", h.GetCombo)
			r.Put("/{comboId}", h.UpdateCombo)
			r.Patch("/{comboId}/state", h.UpdateComboState)
			r.Get("/{comboId}/price", h.PreviewComboPrice)
			r.Delete("/{comboId}", h.DeleteCombo)
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", h.ListTables)
			r.Post("/", h.CreateTable)
			r.Put("/{tableId}", h.UpdateTable)
			r.Delete("/{tableId}", h.DeleteTable)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{orderId}", h.GetOrder)
			r.Patch("/{orderId}/status", h.UpdateOrderStatus)
			r.Get("/{orderId}/receipt", h.OrderReceiptPDF)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Post("/availability", h.TableAvailabilityForSlot)
			r.Get("/{reservationId}", h.GetReservation)
			r.Patch("/{reservationId}/status", h.UpdateReservationStatus)
			r.Post("/{reservationId}/pay-second-installment", h.PaySecondInstallment)
			r.Post("/{reservationId}/cancel", h.CancelReservation)
		})

		r.Route("/supplies", func(r chi.Router) {
			r.Use(middleware.RequireStaff())
			r.Get("/", h.ListSupplies)
			r.Post("/", h.CreateSupply)
			r.Put("/{supplyId}", h.UpdateSupply)
			r.Delete("/{supplyId}", h.DeleteSupply)
			r.Get("/movements", h.ListMovements)
			r.Post("/movements", h.CreateMovement)
		})

		r.Route("/pagofacil", func(r chi.Router) {
			r.Post("/generate-qr", h.GenerateQR)
			r.Post("/query-transaction", h.QueryTransaction)
			r.Get("/payments/{paymentNumber}", h.PaymentStatus)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireStaff())
			r.Get("/movements.pdf", h.MovementReportPDF)
			r.Get("/reservations.pdf", h.ReservationReportPDF)
		})
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
