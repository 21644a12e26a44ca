package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID               int64            `db:"id"`
	EAN              string           `db:"ean"`
	Title            string           `db:"title"`
	Description      *string          `db:"description"`
	Category         string           `db:"category"`
	Brand            *string          `db:"brand"`
	Color            *string          `db:"color"`
	Price            int64            `db:"price"`
	Rating           float64          `db:"rating"`
	Stock            int64            `db:"stock"`
	ImageURL         *string          `db:"image_url"`
	Embedding        *pgvector.Vector `db:"embedding"`
	EmbeddingVersion int32            `db:"embedding_version"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        *time.Time       `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID                  int64      `db:"id"`
	EventID             uuid.UUID  `db:"event_id"`
	EventType           string     `db:"event_type"`
	ProductID           int64      `db:"product_id"`
	Payload             []byte     `db:"payload"`
	Status              string     `db:"status"`
	CreatedAt           time.Time  `db:"created_at"`
	ProcessingStartedAt *time.Time `db:"processing_started_at"`
	ProcessedAt         *time.Time `db:"processed_at"`
}
