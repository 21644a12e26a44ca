package pgdb

import (
	"context"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// GetPurchasedProductIDs возвращает уникальные id купленных товаров, отменённые заказы не учитываются.
func (o *OrderRepo) GetPurchasedProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT product_id
		FROM orders
		WHERE user_id = $1 AND status <> 'cancelled'
		ORDER BY product_id`

	rows, err := tr.QuerierFromCtx(ctx, o.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return ids, nil
}
