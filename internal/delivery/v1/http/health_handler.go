package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

const healthCheckTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type AvailabilityChecker interface {
	Available(ctx context.Context) bool
}

type HealthHandler struct {
	db       Pinger
	provider AvailabilityChecker
	logger   logger.Logger
}

func NewHealthHandler(db Pinger, provider AvailabilityChecker, logger logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, provider: provider, logger: logger}
}

// health
//
//	@Summary		Состояние сервиса
//	@Description	503, если недоступна БД. Недоступный провайдер эмбеддингов отмечается как degraded
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/health [get]
func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	res := HealthResponse{Status: "ok", Database: "up", EmbeddingProvider: "up"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warnf("health: database ping failed: %v", err)
		res.Database = "down"
		res.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.provider == nil || !h.provider.Available(ctx) {
		res.EmbeddingProvider = "down"
		if status == http.StatusOK {
			res.Status = "degraded"
		}
	}

	WriteSuccess(w, status, res)
}
