package pgdb

import (
	"context"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// WishlistRepo читает избранное пользователя вместе с товарами.
type WishlistRepo struct {
	products *ProductRepo
}

func NewWishlistRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *WishlistRepo {
	return &WishlistRepo{products: NewProductRepo(pool, conv)}
}

// GetProductsByUser возвращает товары из избранного в порядке добавления.
func (w *WishlistRepo) GetProductsByUser(ctx context.Context, userID int64) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.ean, p.title, p.description, p.category, p.brand, p.color, p.price, p.rating, p.stock,
			p.image_url, p.embedding, p.embedding_version, p.created_at, p.updated_at
		FROM wishlist w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.added_at, w.id`

	products, err := w.products.queryMany(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}
