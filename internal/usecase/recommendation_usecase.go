package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

const (
	DefaultSmallCatalogSize = 20

	minRelaxedThreshold = 0.05
	relaxFactor         = 0.5
)

// RecommendationUseCase строит персональные рекомендации по списку интересов пользователя.
type RecommendationUseCase struct {
	wishlistRepo     WishlistRepository
	orderRepo        OrderRepository
	productRepo      ProductRepository
	index            VectorIndex
	ranker           *SimilarityRanker
	smallCatalogSize int
	logger           logger.Logger
}

func NewRecommendationUC(
	wishlistRepo WishlistRepository,
	orderRepo OrderRepository,
	productRepo ProductRepository,
	index VectorIndex,
	ranker *SimilarityRanker,
	smallCatalogSize int,
	logger logger.Logger,
) *RecommendationUseCase {
	if smallCatalogSize <= 0 {
		smallCatalogSize = DefaultSmallCatalogSize
	}

	return &RecommendationUseCase{
		wishlistRepo:     wishlistRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		index:            index,
		ranker:           ranker,
		smallCatalogSize: smallCatalogSize,
		logger:           logger,
	}
}

// Recommend загружает wishlist и, при необходимости, купленные товары пользователя.
// Ошибки чтения этих данных возвращаются вызывающему.
func (r *RecommendationUseCase) Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error) {
	const op = "RecommendationUseCase.Recommend"

	interestSet, err := r.wishlistRepo.GetProductsByUser(ctx, req.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	exclude := append([]int64(nil), req.ExcludeIDs...)
	if req.ExcludePurchased {
		purchased, err := r.orderRepo.GetPurchasedProductIDs(ctx, req.UserID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		exclude = append(exclude, purchased...)
	}

	return r.RecommendForInterestSet(ctx, &InterestSetReq{
		InterestSet:   interestSet,
		ExcludeIDs:    exclude,
		Limit:         req.Limit,
		MinSimilarity: req.MinSimilarity,
		Strategy:      req.Strategy,
	})
}

// RecommendForInterestSet выбирает стратегию и строит рекомендации.
// Любая внутренняя ошибка ранжирования превращается в пустой результат,
// кроме расхождения размерностей эмбеддингов.
func (r *RecommendationUseCase) RecommendForInterestSet(ctx context.Context, req *InterestSetReq) (res *RecommendRes, err error) {
	const op = "RecommendationUseCase.RecommendForInterestSet"

	res = &RecommendRes{
		Products:          []domain.ScoredProduct{},
		RequestedStrategy: req.Strategy,
		WishlistSize:      len(req.InterestSet),
		MinSimilarity:     req.MinSimilarity,
	}
	limit := normalizeLimit(req.Limit)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf(fmt.Errorf("%v", rec), "%s: recovered from panic", op)
			res = emptyRecommendRes(req)
			err = nil
		}
	}()

	if len(req.InterestSet) == 0 {
		r.logger.Infof("empty wishlist, falling back to popular products")
		res.AppliedStrategy = domain.StrategyPopular
		res.Products, err = r.popular(ctx, limit)
		return r.degrade(op, res, req, err)
	}

	exclude := excludeIDs(req.InterestSet, req.ExcludeIDs)

	switch req.Strategy {
	case domain.StrategyCategory:
		res.AppliedStrategy = domain.StrategyCategory
		res.Products, err = r.byCategory(ctx, req.InterestSet, exclude, limit)
	case domain.StrategySemantic, domain.StrategyHybrid:
		res.AppliedStrategy = domain.StrategySemantic
		err = r.bySemanticSimilarity(ctx, req.InterestSet, exclude, limit, req.MinSimilarity, res)
	default:
		r.logger.Warnf("unknown recommendation strategy %q, using %q", req.Strategy, domain.StrategySemantic)
		res.AppliedStrategy = domain.StrategySemantic
		err = r.bySemanticSimilarity(ctx, req.InterestSet, exclude, limit, req.MinSimilarity, res)
	}

	return r.degrade(op, res, req, err)
}

// bySemanticSimilarity ранжирует каталог по сходству с центроидом эмбеддингов wishlist.
func (r *RecommendationUseCase) bySemanticSimilarity(
	ctx context.Context,
	interestSet []domain.Product,
	exclude []int64,
	limit int,
	minSimilarity float64,
	res *RecommendRes,
) error {
	vectors := make([]domain.Vector, 0, len(interestSet))
	for _, p := range interestSet {
		if p.HasEmbedding() {
			vectors = append(vectors, p.Embedding)
		}
	}

	if len(vectors) == 0 {
		r.logger.Warnf("no embeddings among %d wishlist products", len(interestSet))
		return nil
	}

	centroid, err := domain.Centroid(vectors)
	if err != nil {
		return err
	}

	eligible, err := r.index.CountEligible(ctx, exclude)
	if err != nil {
		return err
	}

	threshold := EffectiveThreshold(minSimilarity, eligible, r.smallCatalogSize)
	res.EffectiveThreshold = threshold
	res.ThresholdRelaxed = threshold != minSimilarity
	if res.ThresholdRelaxed {
		r.logger.Infof("small catalog (%d eligible), relaxing threshold from %.3f to %.3f", eligible, minSimilarity, threshold)
	}

	products, err := r.rankByCentroid(ctx, centroid, exclude, threshold, limit)
	if err != nil {
		return err
	}

	if len(products) == 0 && threshold > 0 {
		r.logger.Warnf("no semantic recommendations with threshold %.3f, retrying without threshold", threshold)
		products, err = r.rankByCentroid(ctx, centroid, exclude, 0, limit)
		if err != nil {
			return err
		}
		res.ThresholdIgnored = true
	}

	res.Products = products
	return nil
}

func (r *RecommendationUseCase) rankByCentroid(ctx context.Context, centroid domain.Vector, exclude []int64, threshold float64, limit int) ([]domain.ScoredProduct, error) {
	candidates, err := r.index.Query(ctx, IndexQuery{
		Vector:     centroid,
		ExcludeIDs: exclude,
		Threshold:  threshold,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	return r.ranker.Rank(excludeCandidates(candidates, exclude), RankOptions{
		Threshold: threshold,
		Limit:     limit,
	}), nil
}

// byCategory рекомендует самые рейтинговые товары из наиболее частой категории wishlist.
func (r *RecommendationUseCase) byCategory(ctx context.Context, interestSet []domain.Product, exclude []int64, limit int) ([]domain.ScoredProduct, error) {
	category := MostFrequentCategory(interestSet)
	if category == "" {
		return []domain.ScoredProduct{}, nil
	}
	r.logger.Infof("most frequent wishlist category: %s", category)

	products, err := r.productRepo.TopRatedInCategory(ctx, category, exclude, limit)
	if err != nil {
		return nil, err
	}

	return popularityScored(products), nil
}

// popular возвращает самые рейтинговые товары каталога.
func (r *RecommendationUseCase) popular(ctx context.Context, limit int) ([]domain.ScoredProduct, error) {
	products, err := r.productRepo.TopRated(ctx, limit)
	if err != nil {
		return nil, err
	}

	return popularityScored(products), nil
}

// degrade превращает ошибку ранжирования в пустой результат. Ошибки конфигурации пробрасываются.
func (r *RecommendationUseCase) degrade(op string, res *RecommendRes, req *InterestSetReq, err error) (*RecommendRes, error) {
	if err == nil {
		if res.Products == nil {
			res.Products = []domain.ScoredProduct{}
		}
		return res, nil
	}

	if errors.Is(err, e.ErrDimensionMismatch) {
		return nil, e.Wrap(op, err)
	}

	r.logger.Errorf(err, "%s: recommendations degraded to empty result", op)
	empty := emptyRecommendRes(req)
	empty.AppliedStrategy = res.AppliedStrategy
	return empty, nil
}

// EffectiveThreshold ослабляет порог для маленького каталога: max(0.05, min*0.5),
// если подходящих кандидатов меньше smallCatalogSize и порог задан.
func EffectiveThreshold(minSimilarity float64, eligible, smallCatalogSize int) float64 {
	if eligible < smallCatalogSize && minSimilarity > 0 {
		return max(minRelaxedThreshold, minSimilarity*relaxFactor)
	}
	return minSimilarity
}

// MostFrequentCategory возвращает самую частую категорию, при равенстве меньшую по алфавиту.
func MostFrequentCategory(products []domain.Product) string {
	counts := make(map[string]int)
	for _, p := range products {
		if p.Category != "" {
			counts[p.Category]++
		}
	}

	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	best := ""
	for _, c := range categories {
		if best == "" || counts[c] > counts[best] {
			best = c
		}
	}

	return best
}

func popularityScored(products []domain.Product) []domain.ScoredProduct {
	result := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		result = append(result, domain.ScoredProduct{Product: p, Score: p.PopularityScore()})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Product.Rating != result[j].Product.Rating {
			return result[i].Product.Rating > result[j].Product.Rating
		}
		return result[i].Product.ID < result[j].Product.ID
	})

	return result
}

func excludeIDs(interestSet []domain.Product, extra []int64) []int64 {
	seen := make(map[int64]struct{}, len(interestSet)+len(extra))
	ids := make([]int64, 0, len(interestSet)+len(extra))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, p := range interestSet {
		add(p.ID)
	}
	for _, id := range extra {
		add(id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// excludeCandidates повторно применяет список исключений к выдаче индекса.
func excludeCandidates(candidates []domain.ScoredProduct, exclude []int64) []domain.ScoredProduct {
	if len(exclude) == 0 {
		return candidates
	}

	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	result := make([]domain.ScoredProduct, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := skip[c.Product.ID]; !ok {
			result = append(result, c)
		}
	}

	return result
}

func emptyRecommendRes(req *InterestSetReq) *RecommendRes {
	return &RecommendRes{
		Products:          []domain.ScoredProduct{},
		RequestedStrategy: req.Strategy,
		WishlistSize:      len(req.InterestSet),
		MinSimilarity:     req.MinSimilarity,
	}
}
