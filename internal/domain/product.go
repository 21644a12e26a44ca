package domain

import (
	"strings"
	"time"
)

// Поля товара, изменение которых делает эмбеддинг устаревшим.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldBrand       = "brand"
	FieldColor       = "color"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldStock       = "stock"
	FieldEAN         = "ean"
)

const (
	maxRating             = 5.0
	descriptionSnippetLen = 80
)

// EmbeddingFields - набор полей, от которых зависит текст документа.
var EmbeddingFields = map[string]struct{}{
	FieldTitle:       {},
	FieldDescription: {},
	FieldCategory:    {},
	FieldBrand:       {},
	FieldColor:       {},
}

// NeedsReembedding возвращает true, если множество изменённых полей пересекается с EmbeddingFields.
func NeedsReembedding(changed []string) bool {
	for _, f := range changed {
		if _, ok := EmbeddingFields[f]; ok {
			return true
		}
	}
	return false
}

// Product описывает товар каталога
type Product struct {
	ID               int64
	EAN              string
	Title            string
	Description      string
	Category         string
	Brand            string
	Color            string
	Price            int64 // Цена хранится в копейках
	Rating           float64
	Stock            int64
	ImageURL         string
	Embedding        Vector // nil, если эмбеддинг ещё не построен
	EmbeddingVersion int32
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

func NewProduct(ean, title, description, category, brand, color string, price int64, rating float64, stock int64) *Product {
	return &Product{
		EAN:         ean,
		Title:       title,
		Description: description,
		Category:    category,
		Brand:       brand,
		Color:       color,
		Price:       price,
		Rating:      rating,
		Stock:       stock,
	}
}

// HasEmbedding сообщает, участвует ли товар в семантическом ранжировании.
func (p *Product) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// PopularityScore - рейтинг, нормированный в [0,1].
func (p *Product) PopularityScore() float64 {
	return p.Rating / maxRating
}

// DocumentText собирает текст для эмбеддинга: название, бренд, цвет, категория
// и начало описания, непустые части через ". ".
func (p *Product) DocumentText() string {
	// сначала срез исходного описания, потом trim: ведущие пробелы входят в лимит
	desc := p.Description
	if r := []rune(desc); len(r) > descriptionSnippetLen {
		desc = string(r[:descriptionSnippetLen])
	}
	desc = strings.TrimSpace(desc)

	parts := make([]string, 0, 5)
	for _, s := range []string{p.Title, p.Brand, p.Color, p.Category, desc} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, ". ")
}
