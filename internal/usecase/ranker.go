package usecase

import (
	"sort"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
)

// SimilarityRanker упорядочивает кандидатов по сходству. Состояния не хранит.
type SimilarityRanker struct{}

func NewSimilarityRanker() *SimilarityRanker {
	return &SimilarityRanker{}
}

// Rank отбрасывает товары без эмбеддинга, применяет порог (если он > 0) и структурные фильтры,
// сортирует по убыванию оценки с разрешением равенства по возрастанию ID и обрезает до лимита.
// Оценки не ограничиваются диапазоном [0,1].
func (r *SimilarityRanker) Rank(candidates []domain.ScoredProduct, opts RankOptions) []domain.ScoredProduct {
	result := make([]domain.ScoredProduct, 0, len(candidates))
	for _, c := range candidates {
		if !c.Product.HasEmbedding() {
			continue
		}
		if opts.Threshold > 0 && c.Score < opts.Threshold {
			continue
		}
		if !opts.Filters.Match(&c.Product) {
			continue
		}
		result = append(result, c)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Product.ID < result[j].Product.ID
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// RankVectors считает сходство query с эмбеддингом каждого товара и ранжирует результат.
// Расхождение размерностей возвращается как e.ErrDimensionMismatch.
func (r *SimilarityRanker) RankVectors(query domain.Vector, products []domain.Product, opts RankOptions) ([]domain.ScoredProduct, error) {
	scored := make([]domain.ScoredProduct, 0, len(products))
	for _, p := range products {
		if !p.HasEmbedding() {
			continue
		}

		score, err := domain.CosineSimilarity(query, p.Embedding)
		if err != nil {
			return nil, err
		}

		scored = append(scored, domain.ScoredProduct{Product: p, Score: score})
	}

	return r.Rank(scored, opts), nil
}
