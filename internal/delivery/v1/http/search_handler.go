package http

import (
	"net/http"

	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

// SearchHandler подставляет defaultMinSimilarity, если min_similarity не передан.
type SearchHandler struct {
	searchUsecase        usecase.SearchUC
	defaultMinSimilarity float64
	logger               logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, defaultMinSimilarity float64, logger logger.Logger) *SearchHandler {
	return &SearchHandler{
		searchUsecase:        searchUsecase,
		defaultMinSimilarity: defaultMinSimilarity,
		logger:               logger,
	}
}

// semanticSearch
//
//	@Summary		Семантический поиск товаров
//	@Description	Ищет товары по смыслу запроса. Пустой запрос или недоступный провайдер эмбеддингов дают пустой список
//	@Tags			search
//	@Produce		json
//	@Param			q				query		string	true	"Текст запроса"
//	@Param			limit			query		int		false	"Количество результатов (1-100)"	default(10)
//	@Param			category		query		string	false	"Категория"
//	@Param			min_price		query		string	false	"Минимальная цена"
//	@Param			max_price		query		string	false	"Максимальная цена"
//	@Param			min_similarity	query		number	false	"Порог сходства (0-1), 0 без фильтра"	default(0.3)
//	@Success		200				{object}	SearchResponse
//	@Failure		400				{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products/search/semantic [get]
func (s *SearchHandler) semanticSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.logger.Warnf("%d %s: limit=%q", http.StatusBadRequest, err.Error(), q.Get("limit"))
		WriteError(w, err)
		return
	}

	minSimilarity, err := parseSimilarity(q.Get("min_similarity"), s.defaultMinSimilarity)
	if err != nil {
		s.logger.Warnf("%d %s: min_similarity=%q", http.StatusBadRequest, err.Error(), q.Get("min_similarity"))
		WriteError(w, err)
		return
	}

	filters, err := parseFilters(q.Get("category"), q.Get("min_price"), q.Get("max_price"))
	if err != nil {
		s.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := s.searchUsecase.Search(r.Context(), &usecase.SearchReq{
		Query:         q.Get("q"),
		Limit:         limit,
		Filters:       filters,
		MinSimilarity: minSimilarity,
	})
	if err != nil {
		s.logger.Errorf(err, "semantic search failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewSearchResponse(res))
}
