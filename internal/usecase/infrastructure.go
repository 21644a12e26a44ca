package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
)

// EmbeddingProvider превращает текст в вектор фиксированной размерности.
// Ошибки: e.ErrProviderUnavailable, e.ErrProviderTimeout, e.ErrDimensionMismatch.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, mode domain.EmbeddingMode) (domain.Vector, error)
	Available(ctx context.Context) bool
	Dimension() int
}

type ImagesInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
