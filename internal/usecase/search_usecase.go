package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

const cacheFillTimeout = 500 * time.Millisecond

// SearchUseCase реализует семантический поиск по каталогу.
type SearchUseCase struct {
	provider EmbeddingProvider
	index    VectorIndex
	ranker   *SimilarityRanker
	cache    EmbeddingCache
	logger   logger.Logger
}

func NewSearchUC(
	provider EmbeddingProvider,
	index VectorIndex,
	ranker *SimilarityRanker,
	cache EmbeddingCache,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		provider: provider,
		index:    index,
		ranker:   ranker,
		cache:    cache,
		logger:   logger,
	}
}

// Search нормализует запрос, строит его эмбеддинг и ранжирует товары по сходству.
// Недоступность провайдера или индекса даёт пустой результат, ошибкой возвращаются
// только ошибки конфигурации.
func (s *SearchUseCase) Search(ctx context.Context, req *SearchReq) (*SearchRes, error) {
	const op = "SearchUseCase.Search"

	query := NormalizeQuery(req.Query)
	limit := normalizeLimit(req.Limit)
	res := &SearchRes{
		Query:         query,
		Products:      []domain.ScoredProduct{},
		Limit:         limit,
		MinSimilarity: req.MinSimilarity,
	}

	if query == "" {
		s.logger.Debugf("empty semantic query after normalization")
		return res, nil
	}

	vector, err := s.queryEmbedding(ctx, query)
	if err != nil {
		if IsConfigError(err) {
			return nil, e.Wrap(op, err)
		}
		s.logger.Warnf("semantic search degraded to empty result: %v", e.Wrap(op, err))
		return res, nil
	}

	candidates, err := s.index.Query(ctx, IndexQuery{
		Vector:    vector,
		Filters:   req.Filters,
		Threshold: req.MinSimilarity,
		Limit:     limit,
	})
	if err != nil {
		if IsConfigError(err) {
			return nil, e.Wrap(op, err)
		}
		s.logger.Warnf("vector index query failed: %v", e.Wrap(op, err))
		return res, nil
	}

	res.Products = s.ranker.Rank(candidates, RankOptions{
		Threshold: req.MinSimilarity,
		Filters:   req.Filters,
		Limit:     limit,
	})
	s.logger.Infof("semantic search %q returned %d products", query, len(res.Products))

	return res, nil
}

// queryEmbedding берёт эмбеддинг запроса из кэша, при промахе обращается к провайдеру
// и в фоне кладёт результат в кэш.
func (s *SearchUseCase) queryEmbedding(ctx context.Context, query string) (domain.Vector, error) {
	const op = "SearchUseCase.queryEmbedding"

	if s.cache != nil {
		vector, ok, err := s.cache.GetQueryEmbedding(ctx, query)
		if err != nil {
			s.logger.Warnf("query embedding cache lookup failed: %v", e.Wrap(op, err))
		} else if ok {
			if len(vector) == s.provider.Dimension() {
				return vector, nil
			}
			s.logger.Warnf("cached query embedding has dimension %d, expected %d", len(vector), s.provider.Dimension())
		}
	}

	vector, err := s.provider.Generate(ctx, query, domain.ModeQuery)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !vector.IsZero() {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), cacheFillTimeout)
			defer cancel()

			if err := s.cache.SetQueryEmbedding(bgCtx, query, vector); err != nil {
				s.logger.Warnf("Failed to cache query embedding in background: %v", e.Wrap(op, err))
			}
		}()
	}

	return vector, nil
}

// NormalizeQuery обрезает пробелы по краям, схлопывает внутренние и приводит к нижнему регистру.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// IsConfigError сообщает, что ошибка вызвана конфигурацией и не должна замалчиваться.
func IsConfigError(err error) bool {
	return errors.Is(err, e.ErrDimensionMismatch) || errors.Is(err, e.ErrProviderNotConfigured)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
