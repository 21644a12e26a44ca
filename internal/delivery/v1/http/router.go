package http

import (
	_ "github.com/DRSN-tech/catalog-recommender/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Handlers - зависимости HTTP-слоя.
type Handlers struct {
	Search         usecase.SearchUC
	Recommendation usecase.RecommendationUC
	Product        usecase.ProductUC
	DB             Pinger
	Provider       AvailabilityChecker

	DefaultMinSimilarity float64
}

func (r *Router) Init(h Handlers) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	healthHandler := NewHealthHandler(h.DB, h.Provider, r.logger)
	r.router.Get("/health", healthHandler.health)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerProductRoutes(v1,
			NewProductHandler(h.Product, r.logger),
			NewSearchHandler(h.Search, h.DefaultMinSimilarity, r.logger),
		)
		registerRecommendationRoutes(v1, NewRecommendationHandler(h.Recommendation, r.logger))
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler, searchHandler *SearchHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/search/semantic", searchHandler.semanticSearch)
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Patch("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
		pr.Post("/{id}/image", prHandler.uploadImage)
	})
}

func registerRecommendationRoutes(router chi.Router, recHandler *RecommendationHandler) {
	router.Get("/users/{userID}/recommendations", recHandler.personalized)
}
