package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type RecommendationHandler struct {
	recommendationUsecase usecase.RecommendationUC
	logger                logger.Logger
}

func NewRecommendationHandler(recommendationUsecase usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommendationUsecase: recommendationUsecase, logger: logger}
}

// personalized
//
//	@Summary		Персональные рекомендации
//	@Description	Рекомендации по избранному пользователя. Пустое избранное даёт популярные товары
//	@Tags			recommendations
//	@Produce		json
//	@Param			userID				path		int		true	"ID пользователя"
//	@Param			limit				query		int		false	"Количество рекомендаций (1-100)"	default(10)
//	@Param			strategy			query		string	false	"semantic, category или hybrid"	default(semantic)
//	@Param			min_similarity		query		number	false	"Порог сходства (0-1)"
//	@Param			exclude_purchased	query		bool	false	"Исключить купленные товары"
//	@Param			exclude				query		string	false	"ID товаров через запятую"
//	@Success		200					{object}	RecommendationResponse
//	@Failure		400					{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/users/{userID}/recommendations [get]
func (h *RecommendationHandler) personalized(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := parseID(chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Warnf("%d %s: user_id=%q", http.StatusBadRequest, err.Error(), chi.URLParam(r, "userID"))
		WriteError(w, err)
		return
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, err)
		return
	}

	minSimilarity, err := parseSimilarity(q.Get("min_similarity"), 0)
	if err != nil {
		WriteError(w, err)
		return
	}

	excludePurchased, err := parseBool(q.Get("exclude_purchased"))
	if err != nil {
		WriteError(w, err)
		return
	}

	exclude, err := parseIDList(q["exclude"])
	if err != nil {
		WriteError(w, err)
		return
	}

	strategy := domain.Strategy(strings.ToLower(strings.TrimSpace(q.Get("strategy"))))
	if strategy == "" {
		strategy = domain.StrategySemantic
	}

	res, err := h.recommendationUsecase.Recommend(r.Context(), &usecase.RecommendReq{
		UserID:           userID,
		ExcludeIDs:       exclude,
		Limit:            limit,
		MinSimilarity:    minSimilarity,
		Strategy:         strategy,
		ExcludePurchased: excludePurchased,
	})
	if err != nil {
		h.logger.Errorf(err, "recommendations for user %d failed", userID)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewRecommendationResponse(res, limit))
}
