package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadProductID = "product_id"
	payloadCategory  = "category"
	payloadPrice     = "price"
	payloadRating    = "rating"
)

// VectorIndex хранит эмбеддинги товаров в коллекции Qdrant, id точки совпадает с id товара.
// Карточки товаров читаются из основного хранилища.
type VectorIndex struct {
	client   *qdrant.Client
	cfg      *cfg.QdrantCfg
	products usecase.ProductRepository
}

func NewVectorIndex(client *qdrant.Client, cfg *cfg.QdrantCfg, products usecase.ProductRepository) *VectorIndex {
	return &VectorIndex{
		client:   client,
		cfg:      cfg,
		products: products,
	}
}

// Query ищет ближайшие точки и возвращает товары по убыванию сходства, при равенстве по возрастанию id.
func (v *VectorIndex) Query(ctx context.Context, q usecase.IndexQuery) ([]domain.ScoredProduct, error) {
	if uint64(len(q.Vector)) != v.cfg.VectorSize {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: query %d, index %d", e.ErrDimensionMismatch, len(q.Vector), v.cfg.VectorSize))
	}

	limit := uint64(q.Limit)
	if q.Limit <= 0 {
		count, err := v.CountEligible(ctx, q.ExcludeIDs)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return []domain.ScoredProduct{}, nil
		}
		limit = uint64(count)
	}

	req := &qdrant.QueryPoints{
		CollectionName: v.cfg.QdrantCollectionName,
		Query:          qdrant.NewQuery(q.Vector...),
		Filter:         buildFilter(q.ExcludeIDs, q.Filters),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(false),
	}
	if q.Threshold > 0 {
		req.ScoreThreshold = qdrant.PtrOf(float32(q.Threshold))
	}

	points, err := v.client.Query(ctx, req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids := make([]int64, 0, len(points))
	scores := make(map[int64]float64, len(points))
	for _, point := range points {
		id := int64(point.GetId().GetNum())
		ids = append(ids, id)
		scores[id] = float64(point.GetScore())
	}

	products, err := v.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.ScoredProduct, 0, len(products))
	for _, product := range products {
		result = append(result, domain.ScoredProduct{Product: product, Score: scores[product.ID]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Product.ID < result[j].Product.ID
	})

	return result, nil
}

func (v *VectorIndex) CountEligible(ctx context.Context, excludeIDs []int64) (int, error) {
	count, err := v.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: v.cfg.QdrantCollectionName,
		Filter:         buildFilter(excludeIDs, domain.SearchFilters{}),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return int(count), nil
}

// Upsert записывает точки товаров с эмбеддингом и удаляет точки товаров, у которых эмбеддинга нет.
func (v *VectorIndex) Upsert(ctx context.Context, products []domain.Product) error {
	points := make([]*qdrant.PointStruct, 0, len(products))
	stale := make([]int64, 0)

	for _, product := range products {
		if !product.HasEmbedding() || product.Embedding.IsZero() {
			stale = append(stale, product.ID)
			continue
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(product.ID)),
			Vectors: qdrant.NewVectors(product.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadProductID: product.ID,
				payloadCategory:  product.Category,
				payloadPrice:     product.Price,
				payloadRating:    product.Rating,
			}),
		})
	}

	if len(points) > 0 {
		if _, err := v.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: v.cfg.QdrantCollectionName,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		}); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return v.Delete(ctx, stale)
}

func (v *VectorIndex) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := v.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: v.cfg.QdrantCollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func pointIDs(ids []int64) []*qdrant.PointId {
	result := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		result = append(result, qdrant.NewIDNum(uint64(id)))
	}
	return result
}

func buildFilter(excludeIDs []int64, filters domain.SearchFilters) *qdrant.Filter {
	filter := &qdrant.Filter{}

	if len(excludeIDs) > 0 {
		filter.MustNot = append(filter.MustNot, qdrant.NewHasID(pointIDs(excludeIDs)...))
	}

	if filters.Category != "" {
		filter.Must = append(filter.Must, qdrant.NewMatch(payloadCategory, filters.Category))
	}

	if filters.MinPrice != nil || filters.MaxPrice != nil {
		r := &qdrant.Range{}
		if filters.MinPrice != nil {
			r.Gte = qdrant.PtrOf(float64(*filters.MinPrice))
		}
		if filters.MaxPrice != nil {
			r.Lte = qdrant.PtrOf(float64(*filters.MaxPrice))
		}
		filter.Must = append(filter.Must, qdrant.NewRange(payloadPrice, r))
	}

	if len(filter.Must) == 0 && len(filter.MustNot) == 0 {
		return nil
	}

	return filter
}
