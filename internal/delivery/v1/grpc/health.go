package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// EmbeddingService - имя сервиса в health-проверке, отражающее доступность провайдера эмбеддингов.
const EmbeddingService = "catalog.v1.Embedding"

const defaultHealthInterval = 15 * time.Second

type AvailabilityChecker interface {
	Available(ctx context.Context) bool
}

// HealthWatcher периодически опрашивает провайдер и обновляет статус.
// Общий статус ("") остаётся SERVING: без провайдера поиск деградирует, но сервис работает.
type HealthWatcher struct {
	health   *health.Server
	provider AvailabilityChecker
	interval time.Duration
	logger   logger.Logger
}

func NewHealthWatcher(h *health.Server, provider AvailabilityChecker, interval time.Duration, logger logger.Logger) *HealthWatcher {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	return &HealthWatcher{health: h, provider: provider, interval: interval, logger: logger}
}

func (w *HealthWatcher) Run(ctx context.Context) {
	w.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	w.Refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh выставляет статус EmbeddingService по текущей доступности провайдера.
func (w *HealthWatcher) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if !w.provider.Available(ctx) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	w.logger.Debugf("embedding health status: %s", status)
	w.health.SetServingStatus(EmbeddingService, status)
}
