package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SEARCH

// SearchReq - запрос семантического поиска.
type SearchReq struct {
	Query         string
	Limit         int
	Filters       domain.SearchFilters
	MinSimilarity float64
}

// SearchRes - результат поиска, Query содержит нормализованный текст.
type SearchRes struct {
	Query         string
	Products      []domain.ScoredProduct
	Limit         int
	MinSimilarity float64
}

// RankOptions - параметры ранжирования кандидатов.
type RankOptions struct {
	Threshold float64 // применяется только при значении > 0
	Filters   domain.SearchFilters
	Limit     int // <= 0 означает без ограничения
}

// IndexQuery - запрос к векторному индексу.
type IndexQuery struct {
	Vector     domain.Vector
	ExcludeIDs []int64
	Filters    domain.SearchFilters
	Threshold  float64
	Limit      int
}

// RECOMMENDATIONS

// RecommendReq - запрос персональных рекомендаций пользователя.
type RecommendReq struct {
	UserID           int64
	ExcludeIDs       []int64
	Limit            int
	MinSimilarity    float64
	Strategy         domain.Strategy
	ExcludePurchased bool
}

// InterestSetReq - рекомендации по уже загруженному списку интересов.
type InterestSetReq struct {
	InterestSet   []domain.Product
	ExcludeIDs    []int64
	Limit         int
	MinSimilarity float64
	Strategy      domain.Strategy
}

// RecommendRes - результат рекомендаций вместе с тем, как он был получен.
type RecommendRes struct {
	Products           []domain.ScoredProduct
	RequestedStrategy  domain.Strategy
	AppliedStrategy    domain.Strategy
	WishlistSize       int
	MinSimilarity      float64
	EffectiveThreshold float64
	ThresholdRelaxed   bool
	ThresholdIgnored   bool // результаты получены повторным запросом без порога
}

// PRODUCT USECASE

// CreateProductReq - запрос на создание товара.
type CreateProductReq struct {
	EAN         string
	Title       string
	Description string
	Category    string
	Brand       string
	Color       string
	Price       int64
	Rating      float64
	Stock       int64
}

// ProductPatch - частичное обновление товара, nil означает "поле не передано".
type ProductPatch struct {
	EAN         *string
	Title       *string
	Description *string
	Category    *string
	Brand       *string
	Color       *string
	Price       *int64
	Rating      *float64
	Stock       *int64
}

// IsEmpty сообщает, что в патче нет ни одного поля.
func (p *ProductPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields возвращает имена переданных полей.
func (p *ProductPatch) Fields() []string {
	fields := make([]string, 0, 9)
	if p.EAN != nil {
		fields = append(fields, domain.FieldEAN)
	}
	if p.Title != nil {
		fields = append(fields, domain.FieldTitle)
	}
	if p.Description != nil {
		fields = append(fields, domain.FieldDescription)
	}
	if p.Category != nil {
		fields = append(fields, domain.FieldCategory)
	}
	if p.Brand != nil {
		fields = append(fields, domain.FieldBrand)
	}
	if p.Color != nil {
		fields = append(fields, domain.FieldColor)
	}
	if p.Price != nil {
		fields = append(fields, domain.FieldPrice)
	}
	if p.Rating != nil {
		fields = append(fields, domain.FieldRating)
	}
	if p.Stock != nil {
		fields = append(fields, domain.FieldStock)
	}
	return fields
}

// Apply переносит переданные поля на товар и возвращает множество изменённых полей.
func (p *ProductPatch) Apply(product *domain.Product) []string {
	if p.EAN != nil {
		product.EAN = *p.EAN
	}
	if p.Title != nil {
		product.Title = *p.Title
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Color != nil {
		product.Color = *p.Color
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Rating != nil {
		product.Rating = *p.Rating
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	return p.Fields()
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// ListProductsReq - страница каталога.
type ListProductsReq struct {
	Filters domain.SearchFilters
	Skip    int
	Limit   int
}

// ListProductsRes - страница каталога и общее число товаров под фильтрами.
type ListProductsRes struct {
	Products []ProductInfo
	Total    int
	Skip     int
	Limit    int
}

// ReindexRes - итог дозаполнения эмбеддингов.
type ReindexRes struct {
	Processed int
	Failed    int
}

// ProductInfo - DTO товара без эмбеддинга, хранится в кэше.
type ProductInfo struct {
	ID           int64
	EAN          string
	Title        string
	Description  string
	Category     string
	Brand        string
	Color        string
	Price        int64
	Rating       float64
	Stock        int64
	ImageURL     string
	HasEmbedding bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// INFRASTRUCTURE

// UploadImagesReq - запрос на загрузку изображений товара.
type UploadImagesReq struct {
	ProductID int64
	Images    []ProductImage
}

// UploadImagesRes - результат загрузки изображений (ключи в MinIO).
type UploadImagesRes struct {
	ImagesKeys []string
	URLs       []string
}

// WriteRawMessageReq - готовое сообщение для брокера.
type WriteRawMessageReq struct {
	EventID   string
	EventType OutboxEventType
	ProductID int64
	Payload   []byte // JSON
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	// Failed - событие отклонено брокером без шансов на повтор, воркер его больше не берёт
	Failed     OutboxStatus = "failed"
)

type OutboxEventType string

const (
	ProductUpserted OutboxEventType = "product.upserted"
	ProductDeleted  OutboxEventType = "product.deleted"
)

// OutboxEvent - событие, записанное в одной транзакции с изменением товара.
type OutboxEvent struct {
	ID                  int64
	EventID             uuid.UUID
	EventType           OutboxEventType
	ProductID           int64
	Payload             []byte // JSON
	Status              OutboxStatus
	CreatedAt           time.Time
	ProcessingStartedAt *time.Time
	ProcessedAt         *time.Time
}

// MAPPERS

func NewProductInfo(p *domain.Product) ProductInfo {
	return ProductInfo{
		ID:           p.ID,
		EAN:          p.EAN,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Brand:        p.Brand,
		Color:        p.Color,
		Price:        p.Price,
		Rating:       p.Rating,
		Stock:        p.Stock,
		ImageURL:     p.ImageURL,
		HasEmbedding: p.HasEmbedding(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImagesReq(productID int64, images []ProductImage) *UploadImagesReq {
	return &UploadImagesReq{
		ProductID: productID,
		Images:    images,
	}
}

func NewUploadImagesRes(imagesKeys []string, urls []string) *UploadImagesRes {
	return &UploadImagesRes{
		ImagesKeys: imagesKeys,
		URLs:       urls,
	}
}

func NewWriteRawMessageReq(event *OutboxEvent) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		EventID:   event.EventID.String(),
		EventType: event.EventType,
		ProductID: event.ProductID,
		Payload:   event.Payload,
	}
}
