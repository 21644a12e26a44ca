package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
)

// angleCatalog строит n товаров с единичными эмбеддингами, равномерно распределёнными по четверти окружности.
func angleCatalog(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		angle := float64(i) * (math.Pi / 2) / float64(n)
		products = append(products, domain.Product{
			ID:        int64(i + 1),
			Category:  "Electronics",
			Rating:    float64(i%5) + 0.5,
			Embedding: domain.Vector{float32(math.Cos(angle)), float32(math.Sin(angle))},
		})
	}
	return products
}

func newRecommendationUC(catalog []domain.Product, wishlist map[int64][]domain.Product, purchased map[int64][]int64) (*RecommendationUseCase, *fakeIndex) {
	index := &fakeIndex{products: catalog}
	uc := NewRecommendationUC(
		&fakeWishlistRepo{products: wishlist},
		&fakeOrderRepo{purchased: purchased},
		newFakeProductRepo(catalog...),
		index,
		NewSimilarityRanker(),
		DefaultSmallCatalogSize,
		testLogger(),
	)
	return uc, index
}

func assertSortedDesc(t *testing.T, products []domain.ScoredProduct) {
	t.Helper()
	for i := 1; i < len(products); i++ {
		if products[i-1].Score < products[i].Score {
			t.Fatalf("results not sorted by score at %d: %v < %v", i, products[i-1].Score, products[i].Score)
		}
	}
}

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		name     string
		min      float64
		eligible int
		want     float64
	}{
		{"small catalog halves threshold", 0.4, 12, 0.2},
		{"floor at 0.05", 0.06, 5, 0.05},
		{"zero threshold stays zero", 0, 5, 0},
		{"large catalog unchanged", 0.4, 20, 0.4},
		{"boundary 19 relaxes", 0.3, 19, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveThreshold(tt.min, tt.eligible, DefaultSmallCatalogSize); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("EffectiveThreshold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMostFrequentCategory(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       string
	}{
		{"majority", []string{"Electronics", "Electronics", "Home"}, "Electronics"},
		{"tie broken alphabetically", []string{"Home", "Electronics"}, "Electronics"},
		{"tie regardless of order", []string{"Toys", "Books", "Toys", "Books"}, "Books"},
		{"empty categories ignored", []string{"", "", "Garden"}, "Garden"},
		{"nothing", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := make([]domain.Product, len(tt.categories))
			for i, c := range tt.categories {
				products[i] = domain.Product{ID: int64(i + 1), Category: c}
			}
			if got := MostFrequentCategory(products); got != tt.want {
				t.Errorf("MostFrequentCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecommendSmallCatalogRelaxesThreshold(t *testing.T) {
	catalog := angleCatalog(15)
	uc, index := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet:   catalog[:3],
		Limit:         10,
		MinSimilarity: 0.4,
		Strategy:      domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.EffectiveThreshold != 0.2 {
		t.Errorf("effective threshold = %v, want 0.2", res.EffectiveThreshold)
	}
	if !res.ThresholdRelaxed {
		t.Error("expected ThresholdRelaxed")
	}
	if res.ThresholdIgnored {
		t.Error("threshold must not be ignored when results exist")
	}

	queries := index.Queries()
	if len(queries) != 1 || queries[0].Threshold != 0.2 {
		t.Fatalf("index queries = %+v, want one query with threshold 0.2", queries)
	}

	for _, p := range res.Products {
		if p.Product.ID <= 3 {
			t.Errorf("wishlist product %d must be excluded", p.Product.ID)
		}
		if p.Score < res.EffectiveThreshold {
			t.Errorf("score %v below effective threshold", p.Score)
		}
	}
	assertSortedDesc(t, res.Products)
}

func TestRecommendLargeCatalogKeepsThreshold(t *testing.T) {
	catalog := angleCatalog(30)
	uc, _ := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet:   catalog[:3],
		Limit:         50,
		MinSimilarity: 0.9,
		Strategy:      domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ThresholdRelaxed || res.EffectiveThreshold != 0.9 {
		t.Errorf("threshold = %v relaxed=%v, want 0.9 unrelaxed", res.EffectiveThreshold, res.ThresholdRelaxed)
	}
	for _, p := range res.Products {
		if p.Score < 0.9 {
			t.Errorf("score %v below threshold", p.Score)
		}
	}
}

func TestRecommendRetriesWithoutThreshold(t *testing.T) {
	catalog := []domain.Product{
		{ID: 1, Embedding: domain.Vector{1, 0}},
		{ID: 2, Embedding: domain.Vector{-1, 0.2}},
		{ID: 3, Embedding: domain.Vector{-1, -0.1}},
		{ID: 4, Embedding: domain.Vector{0, 1}},
	}
	uc, index := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet:   catalog[:1],
		Limit:         10,
		MinSimilarity: 0.5,
		Strategy:      domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.ThresholdIgnored {
		t.Fatal("expected ThresholdIgnored after no-threshold retry")
	}
	if want := []int64{4, 2, 3}; !equalIDs(ids(res.Products), want) {
		t.Errorf("products = %v, want %v", ids(res.Products), want)
	}
	assertSortedDesc(t, res.Products)

	queries := index.Queries()
	if len(queries) != 2 || queries[0].Threshold != 0.25 || queries[1].Threshold != 0 {
		t.Errorf("queries = %+v, want thresholds [0.25 0]", queries)
	}
}

func TestRecommendZeroThresholdAdmitsAll(t *testing.T) {
	catalog := angleCatalog(10)
	uc, _ := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: catalog[:1],
		Limit:       100,
		Strategy:    domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 9 {
		t.Errorf("got %d products, want 9", len(res.Products))
	}
	if res.ThresholdRelaxed || res.ThresholdIgnored {
		t.Error("zero threshold must not be relaxed or ignored")
	}
}

func TestRecommendUnknownStrategyBehavesAsSemantic(t *testing.T) {
	catalog := angleCatalog(15)

	run := func(strategy domain.Strategy) *RecommendRes {
		uc, _ := newRecommendationUC(catalog, nil, nil)
		res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
			InterestSet:   catalog[2:5],
			Limit:         5,
			MinSimilarity: 0.3,
			Strategy:      strategy,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}

	semantic := run(domain.StrategySemantic)
	for _, strategy := range []domain.Strategy{"unknown_value", domain.StrategyHybrid} {
		got := run(strategy)
		if got.AppliedStrategy != domain.StrategySemantic {
			t.Errorf("%s: applied = %s, want semantic", strategy, got.AppliedStrategy)
		}
		if got.RequestedStrategy != strategy {
			t.Errorf("%s: requested = %s", strategy, got.RequestedStrategy)
		}
		if !equalIDs(ids(got.Products), ids(semantic.Products)) {
			t.Errorf("%s: products %v, semantic %v", strategy, ids(got.Products), ids(semantic.Products))
		}
		for i := range got.Products {
			if got.Products[i].Score != semantic.Products[i].Score {
				t.Errorf("%s: score %d differs", strategy, i)
			}
		}
	}
}

func TestRecommendCategoryStrategy(t *testing.T) {
	catalog := []domain.Product{
		{ID: 1, Category: "Electronics", Rating: 4},
		{ID: 2, Category: "Electronics", Rating: 3},
		{ID: 3, Category: "Home", Rating: 5},
		{ID: 4, Category: "Electronics", Rating: 4.5},
		{ID: 5, Category: "Electronics", Rating: 2.5},
		{ID: 6, Category: "Home", Rating: 4.9},
		{ID: 7, Category: "Electronics", Rating: 4.5},
	}
	uc, index := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: []domain.Product{catalog[0], catalog[1], catalog[2]},
		Limit:       10,
		Strategy:    domain.StrategyCategory,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.AppliedStrategy != domain.StrategyCategory {
		t.Errorf("applied = %s", res.AppliedStrategy)
	}
	if want := []int64{4, 7, 5}; !equalIDs(ids(res.Products), want) {
		t.Fatalf("products = %v, want %v", ids(res.Products), want)
	}
	for _, p := range res.Products {
		if p.Score != p.Product.Rating/5.0 {
			t.Errorf("product %d score %v, want rating/5", p.Product.ID, p.Score)
		}
	}
	if len(index.Queries()) != 0 {
		t.Error("category strategy must not query the vector index")
	}
}

func TestRecommendEmptyWishlistFallsBackToPopular(t *testing.T) {
	catalog := []domain.Product{
		{ID: 1, Rating: 3},
		{ID: 2, Rating: 5},
		{ID: 3, Rating: 4},
		{ID: 4, Rating: 5},
	}
	uc, index := newRecommendationUC(catalog, nil, nil)

	res, err := uc.Recommend(context.Background(), &RecommendReq{UserID: 42, Limit: 3, MinSimilarity: 0.5, Strategy: domain.StrategySemantic})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.AppliedStrategy != domain.StrategyPopular {
		t.Errorf("applied = %s, want popular", res.AppliedStrategy)
	}
	if res.WishlistSize != 0 {
		t.Errorf("wishlist size = %d", res.WishlistSize)
	}
	if want := []int64{2, 4, 3}; !equalIDs(ids(res.Products), want) {
		t.Errorf("products = %v, want %v", ids(res.Products), want)
	}
	if res.Products[0].Score != 1 || res.Products[2].Score != 0.8 {
		t.Errorf("popularity scores = %v, %v", res.Products[0].Score, res.Products[2].Score)
	}
	if len(index.Queries()) != 0 {
		t.Error("popular fallback must not touch embeddings")
	}
}

func TestRecommendWishlistWithoutEmbeddings(t *testing.T) {
	catalog := angleCatalog(5)
	uc, index := newRecommendationUC(catalog, nil, nil)

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: []domain.Product{{ID: 100, Category: "Home"}},
		Strategy:    domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 0 {
		t.Errorf("expected empty result, got %v", ids(res.Products))
	}
	if len(index.Queries()) != 0 {
		t.Error("index must not be queried without a centroid")
	}
}

func TestRecommendExcludesPurchased(t *testing.T) {
	catalog := angleCatalog(8)
	wishlist := map[int64][]domain.Product{7: {catalog[0]}}
	purchased := map[int64][]int64{7: {2, 3}}
	uc, index := newRecommendationUC(catalog, wishlist, purchased)

	res, err := uc.Recommend(context.Background(), &RecommendReq{
		UserID:           7,
		ExcludeIDs:       []int64{4},
		Limit:            10,
		Strategy:         domain.StrategySemantic,
		ExcludePurchased: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int64{5, 6, 7, 8}; !equalIDs(ids(res.Products), want) {
		t.Errorf("products = %v, want %v", ids(res.Products), want)
	}
	if q := index.Queries(); len(q) != 1 || !equalIDs(q[0].ExcludeIDs, []int64{1, 2, 3, 4}) {
		t.Errorf("exclude ids = %+v", q)
	}
	if res.WishlistSize != 1 {
		t.Errorf("wishlist size = %d", res.WishlistSize)
	}
}

func TestRecommendPropagatesWishlistErrors(t *testing.T) {
	uc := NewRecommendationUC(
		&fakeWishlistRepo{err: errors.New("db down")},
		&fakeOrderRepo{},
		newFakeProductRepo(),
		&fakeIndex{},
		NewSimilarityRanker(),
		0,
		testLogger(),
	)

	if _, err := uc.Recommend(context.Background(), &RecommendReq{UserID: 1}); err == nil {
		t.Fatal("expected wishlist error to propagate")
	}
}

func TestRecommendDegradesOnIndexFailure(t *testing.T) {
	catalog := angleCatalog(5)
	uc, index := newRecommendationUC(catalog, nil, nil)
	index.err = errors.New("index unavailable")

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: catalog[:1],
		Strategy:    domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(res.Products) != 0 {
		t.Error("expected empty result")
	}
}

func TestRecommendRecoversFromPanic(t *testing.T) {
	catalog := angleCatalog(5)
	uc, index := newRecommendationUC(catalog, nil, nil)
	index.panicOn = true

	res, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: catalog[:1],
		Strategy:    domain.StrategySemantic,
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if res == nil || len(res.Products) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRecommendFailsOnDimensionMismatch(t *testing.T) {
	catalog := angleCatalog(5)
	uc, _ := newRecommendationUC(catalog, nil, nil)

	_, err := uc.RecommendForInterestSet(context.Background(), &InterestSetReq{
		InterestSet: []domain.Product{
			{ID: 1, Embedding: domain.Vector{1, 0}},
			{ID: 2, Embedding: domain.Vector{1, 0, 0}},
		},
		Strategy: domain.StrategySemantic,
	})
	if !errors.Is(err, e.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
