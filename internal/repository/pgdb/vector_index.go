package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/pgvector/pgvector-go"
)

// VectorIndex ищет ближайшие товары через pgvector. Эмбеддинги живут в той же таблице products,
// поэтому Upsert и Delete ничего не делают: запись происходит вместе с товаром.
type VectorIndex struct {
	products  *ProductRepo
	dimension int
}

func NewVectorIndex(pool *pgxpool.Pool, conv converter.ProductConverter, dimension int) *VectorIndex {
	return &VectorIndex{
		products:  NewProductRepo(pool, conv),
		dimension: dimension,
	}
}

// Query возвращает товары по убыванию сходства 1 - cosine distance, при равенстве по возрастанию id.
func (v *VectorIndex) Query(ctx context.Context, q usecase.IndexQuery) ([]domain.ScoredProduct, error) {
	if len(q.Vector) != v.dimension {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: query %d, index %d", e.ErrDimensionMismatch, len(q.Vector), v.dimension))
	}

	query, args := buildSimilarityQuery(q)

	rows, err := tr.QuerierFromCtx(ctx, v.products.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.ScoredProduct, 0)
	for rows.Next() {
		var model converter.ProductModel
		var embedding *pgvector.Vector
		var similarity float64

		if err := rows.Scan(
			&model.ID, &model.EAN, &model.Title, &model.Description, &model.Category,
			&model.Brand, &model.Color, &model.Price, &model.Rating, &model.Stock,
			&model.ImageURL, &embedding, &model.EmbeddingVersion, &model.CreatedAt, &model.UpdatedAt,
			&similarity,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		model.Embedding = embedding

		result = append(result, domain.ScoredProduct{
			Product: *v.products.conv.ToEntity(&model),
			Score:   similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// CountEligible считает товары с эмбеддингом, не попавшие в исключения.
func (v *VectorIndex) CountEligible(ctx context.Context, excludeIDs []int64) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE embedding IS NOT NULL AND NOT (id = ANY($1::bigint[]))`

	var count int
	if err := tr.QuerierFromCtx(ctx, v.products.pool).QueryRow(ctx, query, nonNilIDs(excludeIDs)).Scan(&count); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

func (v *VectorIndex) Upsert(context.Context, []domain.Product) error {
	return nil
}

func (v *VectorIndex) Delete(context.Context, []int64) error {
	return nil
}

func buildSimilarityQuery(q usecase.IndexQuery) (string, []any) {
	args := []any{pgvector.NewVector(q.Vector), nonNilIDs(q.ExcludeIDs)}
	conditions := []string{
		"embedding IS NOT NULL",
		"NOT (id = ANY($2::bigint[]))",
	}

	if q.Threshold > 0 {
		args = append(args, q.Threshold)
		conditions = append(conditions, fmt.Sprintf("1 - (embedding <=> $1::vector) >= $%d::float8", len(args)))
	}
	if q.Filters.Category != "" {
		args = append(args, q.Filters.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Filters.MinPrice != nil {
		args = append(args, *q.Filters.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d::bigint", len(args)))
	}
	if q.Filters.MaxPrice != nil {
		args = append(args, *q.Filters.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d::bigint", len(args)))
	}

	// сортировка по самому расстоянию, иначе планировщик не использует HNSW-индекс
	query := `SELECT` + productColumns + `, 1 - (embedding <=> $1::vector) AS similarity
		FROM products
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY embedding <=> $1::vector ASC, id ASC`

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return query, args
}
