package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
)

// ProductRepository - хранилище товаров. Отсутствие товара возвращается как e.ErrProductNotFound.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	GetByEAN(ctx context.Context, ean string) (*domain.Product, error)
	TopRated(ctx context.Context, limit int) ([]domain.Product, error)
	TopRatedInCategory(ctx context.Context, category string, excludeIDs []int64, limit int) ([]domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	List(ctx context.Context, filters domain.SearchFilters, skip, limit int) ([]domain.Product, error)
	Count(ctx context.Context, filters domain.SearchFilters) (int, error)
	Delete(ctx context.Context, id int64) error
	ListWithoutEmbedding(ctx context.Context, limit int) ([]domain.Product, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding domain.Vector) error
	SetImageURL(ctx context.Context, id int64, url string) error
}

// WishlistRepository читает список интересов пользователя.
type WishlistRepository interface {
	GetProductsByUser(ctx context.Context, userID int64) ([]domain.Product, error)
}

// OrderRepository читает историю покупок пользователя.
type OrderRepository interface {
	GetPurchasedProductIDs(ctx context.Context, userID int64) ([]int64, error)
}

// VectorIndex - поиск ближайших соседей по косинусному сходству. Запросы только читают данные.
type VectorIndex interface {
	Query(ctx context.Context, q IndexQuery) ([]domain.ScoredProduct, error)
	CountEligible(ctx context.Context, excludeIDs []int64) (int, error)
	Upsert(ctx context.Context, products []domain.Product) error
	// Delete убирает товары из индекса, отсутствующие id не считаются ошибкой.
	Delete(ctx context.Context, ids []int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// ReturnToPending возвращает событие в очередь после неудачной отправки.
	ReturnToPending(ctx context.Context, id int64) error
	// MarkAsFailed закрывает событие, которое брокер не примет и при повторе.
	MarkAsFailed(ctx context.Context, id int64) error
}

// CacheRepository кэширует карточки товаров.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

// EmbeddingCache кэширует эмбеддинги нормализованных поисковых запросов.
type EmbeddingCache interface {
	GetQueryEmbedding(ctx context.Context, text string) (domain.Vector, bool, error)
	SetQueryEmbedding(ctx context.Context, text string, vector domain.Vector) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

// TxManager выполняет функцию в транзакции, транзакция передаётся через контекст.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
