package handlers

import (
	"lamesa-pos-service/internal/config"
	"lamesa-pos-service/internal/pagofacil"
	"lamesa-pos-service/internal/queue"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *pgxpool.Pool
	Logger   *zap.Logger
	Config   config.Config
	Queue    *queue.Client
	Gateway  *pagofacil.Client
	Payments *pagofacil.PendingStore
}
