package http

import (
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/shopspring/decimal"
)

// ProductResponse - карточка товара. Цена в рублях.
type ProductResponse struct {
	ID           int64           `json:"id"`
	EAN          string          `json:"ean"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand,omitempty"`
	Color        string          `json:"color,omitempty"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"599.99"`
	Rating       float64         `json:"rating"`
	Stock        int64           `json:"stock"`
	ImageURL     string          `json:"image_url,omitempty"`
	HasEmbedding bool            `json:"has_embedding"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

type ScoredProductResponse struct {
	ProductResponse
	SimilarityScore float64 `json:"similarity_score"`
}

type SearchResponse struct {
	Query         string                  `json:"query"`
	Products      []ScoredProductResponse `json:"products"`
	Total         int                     `json:"total"`
	Limit         int                     `json:"limit"`
	MinSimilarity float64                 `json:"min_similarity"`
}

type RecommendationResponse struct {
	Products           []ScoredProductResponse `json:"products"`
	Total              int                     `json:"total"`
	Limit              int                     `json:"limit"`
	Strategy           string                  `json:"strategy"`
	AppliedStrategy    string                  `json:"applied_strategy"`
	WishlistSize       int                     `json:"wishlist_size"`
	MinSimilarity      *float64                `json:"min_similarity"`
	EffectiveThreshold float64                 `json:"effective_threshold"`
	ThresholdRelaxed   bool                    `json:"threshold_relaxed"`
	ThresholdIgnored   bool                    `json:"threshold_ignored"`
}

type CreateProductRequest struct {
	EAN         string          `json:"ean"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price" swaggertype:"string" example:"25000.00"`
	Rating      float64         `json:"rating"`
	Stock       int64           `json:"stock"`
}

// UpdateProductRequest - частичное обновление, отсутствующие поля не меняются.
type UpdateProductRequest struct {
	EAN         *string          `json:"ean,omitempty"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	Rating      *float64         `json:"rating,omitempty"`
	Stock       *int64           `json:"stock,omitempty"`
}

// ProductListResponse - страница каталога.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Skip     int               `json:"skip"`
	Limit    int               `json:"limit"`
}

type HealthResponse struct {
	Status            string `json:"status"`
	Database          string `json:"database"`
	EmbeddingProvider string `json:"embedding_provider"`
}

func (r *CreateProductRequest) ToUseCase() (*usecase.CreateProductReq, error) {
	if strings.TrimSpace(r.EAN) == "" || strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Category) == "" {
		return nil, e.ErrMissingFields
	}

	price, err := priceToCents(r.Price)
	if err != nil {
		return nil, err
	}

	return &usecase.CreateProductReq{
		EAN:         r.EAN,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Brand:       r.Brand,
		Color:       r.Color,
		Price:       price,
		Rating:      r.Rating,
		Stock:       r.Stock,
	}, nil
}

func (r *UpdateProductRequest) ToUseCase() (*usecase.ProductPatch, error) {
	patch := &usecase.ProductPatch{
		EAN:         trimmed(r.EAN),
		Title:       trimmed(r.Title),
		Description: trimmed(r.Description),
		Category:    trimmed(r.Category),
		Brand:       trimmed(r.Brand),
		Color:       trimmed(r.Color),
		Rating:      r.Rating,
		Stock:       r.Stock,
	}

	if r.Price != nil {
		price, err := priceToCents(*r.Price)
		if err != nil {
			return nil, err
		}
		patch.Price = &price
	}

	return patch, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func NewProductResponse(info *usecase.ProductInfo) ProductResponse {
	return ProductResponse{
		ID:           info.ID,
		EAN:          info.EAN,
		Title:        info.Title,
		Description:  info.Description,
		Category:     info.Category,
		Brand:        info.Brand,
		Color:        info.Color,
		Price:        centsToPrice(info.Price),
		Rating:       info.Rating,
		Stock:        info.Stock,
		ImageURL:     info.ImageURL,
		HasEmbedding: info.HasEmbedding,
		CreatedAt:    info.CreatedAt,
		UpdatedAt:    info.UpdatedAt,
	}
}

func NewProductListResponse(res *usecase.ListProductsRes) ProductListResponse {
	products := make([]ProductResponse, 0, len(res.Products))
	for i := range res.Products {
		products = append(products, NewProductResponse(&res.Products[i]))
	}
	return ProductListResponse{
		Products: products,
		Total:    res.Total,
		Skip:     res.Skip,
		Limit:    res.Limit,
	}
}

func newScoredProducts(products []domain.ScoredProduct) []ScoredProductResponse {
	result := make([]ScoredProductResponse, 0, len(products))
	for i := range products {
		info := usecase.NewProductInfo(&products[i].Product)
		result = append(result, ScoredProductResponse{
			ProductResponse: NewProductResponse(&info),
			SimilarityScore: products[i].Score,
		})
	}
	return result
}

func NewSearchResponse(res *usecase.SearchRes) SearchResponse {
	products := newScoredProducts(res.Products)
	return SearchResponse{
		Query:         res.Query,
		Products:      products,
		Total:         len(products),
		Limit:         res.Limit,
		MinSimilarity: res.MinSimilarity,
	}
}

// NewRecommendationResponse отдаёт min_similarity только для стратегий, где порог применяется.
func NewRecommendationResponse(res *usecase.RecommendRes, limit int) RecommendationResponse {
	products := newScoredProducts(res.Products)

	var minSimilarity *float64
	if res.RequestedStrategy == domain.StrategySemantic || res.RequestedStrategy == domain.StrategyHybrid {
		v := res.MinSimilarity
		minSimilarity = &v
	}

	return RecommendationResponse{
		Products:           products,
		Total:              len(products),
		Limit:              limit,
		Strategy:           string(res.RequestedStrategy),
		AppliedStrategy:    string(res.AppliedStrategy),
		WishlistSize:       res.WishlistSize,
		MinSimilarity:      minSimilarity,
		EffectiveThreshold: res.EffectiveThreshold,
		ThresholdRelaxed:   res.ThresholdRelaxed,
		ThresholdIgnored:   res.ThresholdIgnored,
	}
}
