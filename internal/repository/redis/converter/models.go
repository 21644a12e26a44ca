package converter

import "time"

type ProductInfoRedisModel struct {
	ID           int64      `json:"id"`
	EAN          string     `json:"ean"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	Brand        string     `json:"brand,omitempty"`
	Color        string     `json:"color,omitempty"`
	Price        int64      `json:"price"`
	Rating       float64    `json:"rating"`
	Stock        int64      `json:"stock"`
	ImageURL     string     `json:"image_url,omitempty"`
	HasEmbedding bool       `json:"has_embedding"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// QueryEmbeddingRedisModel хранит вектор вместе с моделью, которой он построен.
type QueryEmbeddingRedisModel struct {
	Model  string    `json:"model"`
	Vector []float32 `json:"vector"`
}
