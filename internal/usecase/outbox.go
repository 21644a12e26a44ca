package usecase

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/google/uuid"
)

// ProductEventPayload - содержимое события об изменении товара.
type ProductEventPayload struct {
	ProductID        int64   `json:"product_id"`
	EAN              string  `json:"ean"`
	Title            string  `json:"title"`
	Category         string  `json:"category"`
	Brand            string  `json:"brand,omitempty"`
	Color            string  `json:"color,omitempty"`
	Price            int64   `json:"price"`
	Rating           float64 `json:"rating"`
	Stock            int64   `json:"stock"`
	ImageURL         string  `json:"image_url,omitempty"`
	HasEmbedding     bool    `json:"has_embedding"`
	EmbeddingVersion int32   `json:"embedding_version"`
	OccurredAt       int64   `json:"occurred_at"` // unix nano
}

// NewProductUpsertedEvent формирует outbox-событие product.upserted.
func NewProductUpsertedEvent(p *domain.Product) (*OutboxEvent, error) {
	now := time.Now().UTC()

	payload, err := json.Marshal(ProductEventPayload{
		ProductID:        p.ID,
		EAN:              p.EAN,
		Title:            p.Title,
		Category:         p.Category,
		Brand:            p.Brand,
		Color:            p.Color,
		Price:            p.Price,
		Rating:           p.Rating,
		Stock:            p.Stock,
		ImageURL:         p.ImageURL,
		HasEmbedding:     p.HasEmbedding(),
		EmbeddingVersion: p.EmbeddingVersion,
		OccurredAt:       now.UnixNano(),
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   uuid.New(),
		EventType: ProductUpserted,
		ProductID: p.ID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: now,
	}, nil
}

// ProductDeletedPayload - содержимое события об удалении товара.
type ProductDeletedPayload struct {
	ProductID  int64 `json:"product_id"`
	OccurredAt int64 `json:"occurred_at"` // unix nano
}

func NewProductDeletedEvent(productID int64) (*OutboxEvent, error) {
	now := time.Now().UTC()

	payload, err := json.Marshal(ProductDeletedPayload{ProductID: productID, OccurredAt: now.UnixNano()})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   uuid.New(),
		EventType: ProductDeleted,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: now,
	}, nil
}
