package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/pgvector/pgvector-go"
)

const productColumns = `
	id, ean, title, description, category, brand, color, price, rating, stock,
	image_url, embedding, embedding_version, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE id = $1`

	product, err := p.scanOne(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

func (p *ProductRepo) GetByEAN(ctx context.Context, ean string) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE ean = $1`

	product, err := p.scanOne(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query, ean))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// GetByIDs возвращает найденные товары в порядке ids, отсутствующие пропускаются.
func (p *ProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT` + productColumns + ` FROM products WHERE id = ANY($1)`

	products, err := p.queryMany(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	result := make([]domain.Product, 0, len(products))
	for _, id := range ids {
		if product, ok := byID[id]; ok {
			result = append(result, product)
			delete(byID, id)
		}
	}

	return result, nil
}

// TopRated возвращает товары по убыванию рейтинга, при равенстве по возрастанию id.
func (p *ProductRepo) TopRated(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products ORDER BY rating DESC, id ASC LIMIT $1`

	products, err := p.queryMany(ctx, query, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) TopRatedInCategory(ctx context.Context, category string, excludeIDs []int64, limit int) ([]domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE category = $1 AND NOT (id = ANY($2))
		ORDER BY rating DESC, id ASC
		LIMIT $3`

	products, err := p.queryMany(ctx, query, category, nonNilIDs(excludeIDs), limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// Create вставляет товар. Нарушение уникальности EAN возвращается как e.ErrDuplicateEAN.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (
			ean, title, description, category, brand, color, price, rating, stock,
			image_url, embedding, embedding_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING` + productColumns

	created, err := p.scanOne(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.EAN, model.Title, model.Description, model.Category, model.Brand, model.Color,
		model.Price, model.Rating, model.Stock, model.ImageURL, model.Embedding, model.EmbeddingVersion,
	))
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrDuplicateEAN)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

// Update перезаписывает все поля товара, включая эмбеддинг и его версию.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products SET
			ean = $2, title = $3, description = $4, category = $5, brand = $6, color = $7,
			price = $8, rating = $9, stock = $10, image_url = $11,
			embedding = $12, embedding_version = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING` + productColumns

	updated, err := p.scanOne(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.EAN, model.Title, model.Description, model.Category, model.Brand, model.Color,
		model.Price, model.Rating, model.Stock, model.ImageURL, model.Embedding, model.EmbeddingVersion,
	))
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrDuplicateEAN)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return updated, nil
}

func (p *ProductRepo) ListWithoutEmbedding(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE embedding IS NULL ORDER BY id LIMIT $1`

	products, err := p.queryMany(ctx, query, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// List возвращает страницу каталога по возрастанию id.
func (p *ProductRepo) List(ctx context.Context, filters domain.SearchFilters, skip, limit int) ([]domain.Product, error) {
	where, args := buildFilterConditions(filters)
	args = append(args, skip, limit)

	query := `SELECT` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY id ASC OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	products, err := p.queryMany(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (p *ProductRepo) Count(ctx context.Context, filters domain.SearchFilters) (int, error) {
	where, args := buildFilterConditions(filters)

	var count int
	if err := tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&count); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

// Delete удаляет товар вместе с записями избранного. Товар из заказов удалить нельзя.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if postgresReferenced(err) {
			return e.Wrap(whereami.WhereAmI(), e.ErrProductHasOrders)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// UpdateEmbedding сохраняет новый эмбеддинг и увеличивает его версию.
func (p *ProductRepo) UpdateEmbedding(ctx context.Context, id int64, embedding domain.Vector) error {
	query := `
		UPDATE products
		SET embedding = $2, embedding_version = embedding_version + 1, updated_at = NOW()
		WHERE id = $1`

	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query, id, converter.NullableVector(embedding))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) SetImageURL(ctx context.Context, id int64, url string) error {
	query := `UPDATE products SET image_url = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query, id, url)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// buildFilterConditions собирает WHERE по фильтрам каталога, плейсхолдеры начинаются с $1.
func buildFilterConditions(filters domain.SearchFilters) (string, []any) {
	var (
		args       []any
		conditions []string
	)

	if filters.Category != "" {
		args = append(args, filters.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filters.MinPrice != nil {
		args = append(args, *filters.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d::bigint", len(args)))
	}
	if filters.MaxPrice != nil {
		args = append(args, *filters.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d::bigint", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (p *ProductRepo) queryMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := tr.QuerierFromCtx(ctx, p.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		product, err := p.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *ProductRepo) scanOne(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	var embedding *pgvector.Vector

	err := row.Scan(
		&model.ID, &model.EAN, &model.Title, &model.Description, &model.Category,
		&model.Brand, &model.Color, &model.Price, &model.Rating, &model.Stock,
		&model.ImageURL, &embedding, &model.EmbeddingVersion, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, err
	}
	model.Embedding = embedding

	return p.conv.ToEntity(&model), nil
}
