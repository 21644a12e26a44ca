package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type fakeSearchUC struct {
	last *usecase.SearchReq
	res  *usecase.SearchRes
	err  error
}

func (f *fakeSearchUC) Search(_ context.Context, req *usecase.SearchReq) (*usecase.SearchRes, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &usecase.SearchRes{Query: req.Query, Products: []domain.ScoredProduct{}, Limit: req.Limit}, nil
}

type fakeRecommendationUC struct {
	last *usecase.RecommendReq
	res  *usecase.RecommendRes
}

func (f *fakeRecommendationUC) Recommend(_ context.Context, req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
	f.last = req
	if f.res != nil {
		return f.res, nil
	}
	return &usecase.RecommendRes{Products: []domain.ScoredProduct{}, RequestedStrategy: req.Strategy}, nil
}

type fakeProductUC struct {
	created *usecase.CreateProductReq
	patch   *usecase.ProductPatch
	image   *usecase.ProductImage
	listed  *usecase.ListProductsReq
	deleted []int64
	err     error
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.CreateProductReq) (*usecase.ProductInfo, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ProductInfo{ID: 1, EAN: req.EAN, Title: req.Title, Category: req.Category, Price: req.Price, CreatedAt: time.Now()}, nil
}

func (f *fakeProductUC) UpdateProduct(_ context.Context, id int64, patch *usecase.ProductPatch) (*usecase.ProductInfo, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ProductInfo{ID: id}, nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*usecase.ProductInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ProductInfo{ID: id, Price: 59999}, nil
}

func (f *fakeProductUC) ListProducts(_ context.Context, req *usecase.ListProductsReq) (*usecase.ListProductsRes, error) {
	f.listed = req
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ListProductsRes{
		Products: []usecase.ProductInfo{{ID: 4, Title: "Mug", Price: 1500}},
		Total:    7,
		Skip:     req.Skip,
		Limit:    req.Limit,
	}, nil
}

func (f *fakeProductUC) DeleteProduct(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProductUC) UploadImage(_ context.Context, id int64, image *usecase.ProductImage) (*usecase.ProductInfo, error) {
	f.image = image
	return &usecase.ProductInfo{ID: id, ImageURL: "http://minio/products/1/x.png"}, nil
}

func (f *fakeProductUC) ReindexEmbeddings(context.Context, int) (*usecase.ReindexRes, error) {
	return &usecase.ReindexRes{}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeAvailability bool

func (f fakeAvailability) Available(context.Context) bool { return bool(f) }

type testEnv struct {
	handler http.Handler
	search  *fakeSearchUC
	rec     *fakeRecommendationUC
	product *fakeProductUC
}

func newTestEnv(db Pinger, provider AvailabilityChecker) *testEnv {
	env := &testEnv{
		search:  &fakeSearchUC{},
		rec:     &fakeRecommendationUC{},
		product: &fakeProductUC{},
	}

	mux := chi.NewRouter()
	NewRouter(mux, logger.New(io.Discard, zerolog.InfoLevel)).Init(Handlers{
		Search:         env.search,
		Recommendation: env.rec,
		Product:        env.product,
		DB:             db,
		Provider:       provider,

		DefaultMinSimilarity: 0.3,
	})
	env.handler = mux

	return env
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestSemanticSearchDefaultMinSimilarity(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/search/semantic?q=chair", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.search.last.MinSimilarity != 0.3 || env.search.last.Limit != 10 {
		t.Errorf("request = %+v", env.search.last)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/search/semantic?q=chair&min_similarity=0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.search.last.MinSimilarity != 0 {
		t.Errorf("explicit zero must disable the threshold, got %v", env.search.last.MinSimilarity)
	}
}

func TestSemanticSearchParsesQuery(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/products/search/semantic?q=laptop+gaming&limit=5&category=Electronics&min_price=100.50&min_similarity=0.3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	last := env.search.last
	if last.Query != "laptop gaming" || last.Limit != 5 || last.MinSimilarity != 0.3 {
		t.Errorf("request = %+v", last)
	}
	if last.Filters.Category != "Electronics" || last.Filters.MinPrice == nil || *last.Filters.MinPrice != 10050 {
		t.Errorf("filters = %+v", last.Filters)
	}
	if last.Filters.MaxPrice != nil {
		t.Error("max price must be unset")
	}
}

func TestSemanticSearchValidation(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	tests := map[string]string{
		"limit too big":    "/api/v1/products/search/semantic?q=x&limit=101",
		"limit zero":       "/api/v1/products/search/semantic?q=x&limit=0",
		"similarity > 1":   "/api/v1/products/search/semantic?q=x&min_similarity=1.5",
		"price precision":  "/api/v1/products/search/semantic?q=x&min_price=1.999",
		"inverted range":   "/api/v1/products/search/semantic?q=x&min_price=10&max_price=5",
		"negative price":   "/api/v1/products/search/semantic?q=x&max_price=-1",
		"similarity = abc": "/api/v1/products/search/semantic?q=x&min_similarity=abc",
		"similarity = NaN": "/api/v1/products/search/semantic?q=x&min_similarity=NaN",
		"recommend NaN":    "/api/v1/users/7/recommendations?min_similarity=nan",
	}

	for name, url := range tests {
		rec := env.do(httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestSemanticSearchResponseShape(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))
	env.search.res = &usecase.SearchRes{
		Query: "mug",
		Products: []domain.ScoredProduct{
			{Product: domain.Product{ID: 3, Title: "Mug", Price: 1500, Embedding: domain.Vector{1}}, Score: 0.91},
		},
		Limit: 10,
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/search/semantic?q=mug", nil))

	var body struct {
		Query    string `json:"query"`
		Total    int    `json:"total"`
		Products []struct {
			ID              int64   `json:"id"`
			Price           string  `json:"price"`
			HasEmbedding    bool    `json:"has_embedding"`
			SimilarityScore float64 `json:"similarity_score"`
		} `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.Total != 1 || body.Products[0].ID != 3 || body.Products[0].SimilarityScore != 0.91 {
		t.Errorf("body = %+v", body)
	}
	if body.Products[0].Price != "15" || !body.Products[0].HasEmbedding {
		t.Errorf("product = %+v", body.Products[0])
	}
}

func TestSemanticSearchConfigError(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))
	env.search.err = e.Wrap("SearchUseCase.Search", e.ErrDimensionMismatch)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/search/semantic?q=x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecommendationsQuery(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/users/7/recommendations?strategy=Category&exclude_purchased=true&exclude=1,2&exclude=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	last := env.rec.last
	if last.UserID != 7 || last.Strategy != domain.StrategyCategory || !last.ExcludePurchased || last.Limit != usecase.DefaultLimit {
		t.Errorf("request = %+v", last)
	}
	if len(last.ExcludeIDs) != 3 || last.ExcludeIDs[2] != 5 {
		t.Errorf("exclude = %v", last.ExcludeIDs)
	}

	var body RecommendationResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.MinSimilarity != nil {
		t.Error("min_similarity must be null for category strategy")
	}
}

func TestRecommendationsDefaultStrategy(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/7/recommendations?min_similarity=0.4", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.rec.last.Strategy != domain.StrategySemantic {
		t.Errorf("strategy = %q", env.rec.last.Strategy)
	}

	var body RecommendationResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.MinSimilarity == nil {
		t.Error("min_similarity must be present for semantic strategy")
	}
}

func TestRecommendationsInvalidUser(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	for _, url := range []string{"/api/v1/users/abc/recommendations", "/api/v1/users/0/recommendations", "/api/v1/users/1/recommendations?exclude=x"} {
		if rec := env.do(httptest.NewRequest(http.MethodGet, url, nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rec.Code)
		}
	}
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	body := `{"ean":"4006381333931","title":"Laptop Gaming","category":"Electronics","price":"25000.00","stock":10}`
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.product.created.Price != 2500000 || env.product.created.Stock != 10 {
		t.Errorf("request = %+v", env.product.created)
	}
}

func TestCreateProductErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ucErr  error
		status int
	}{
		{"missing title", `{"ean":"4006381333931","category":"Electronics","price":10}`, nil, http.StatusBadRequest},
		{"bad json", `{"ean":`, nil, http.StatusBadRequest},
		{"unknown field", `{"ean":"4006381333931","title":"x","category":"y","price":1,"subcategory":"z"}`, nil, http.StatusBadRequest},
		{"precision", `{"ean":"4006381333931","title":"x","category":"y","price":1.001}`, nil, http.StatusBadRequest},
		{"duplicate", `{"ean":"4006381333931","title":"x","category":"y","price":1}`, e.ErrDuplicateEAN, http.StatusConflict},
	}

	for _, tt := range tests {
		env := newTestEnv(fakePinger{}, fakeAvailability(true))
		env.product.err = tt.ucErr

		rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(tt.body)))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
	}
}

func TestUpdateProductPatch(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodPatch, "/api/v1/products/4", bytes.NewBufferString(`{"price":"10.5","title":" New "}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	patch := env.product.patch
	if patch.Price == nil || *patch.Price != 1050 || patch.Title == nil || *patch.Title != "New" {
		t.Errorf("patch = %+v", patch)
	}
	if patch.Description != nil || patch.Stock != nil {
		t.Error("absent fields must stay nil")
	}
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))
	env.product.err = e.Wrap("ProductUseCase.GetProduct", e.ErrProductNotFound)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products?category=Kitchen&max_price=20&skip=5&limit=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	listed := env.product.listed
	if listed.Skip != 5 || listed.Limit != 3 || listed.Filters.Category != "Kitchen" ||
		listed.Filters.MaxPrice == nil || *listed.Filters.MaxPrice != 2000 {
		t.Errorf("request = %+v", listed)
	}

	var body ProductListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 7 || body.Skip != 5 || len(body.Products) != 1 || body.Products[0].Price.String() != "15" {
		t.Errorf("body = %+v", body)
	}
}

func TestListProductsValidation(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	for _, url := range []string{
		"/api/v1/products?skip=-1",
		"/api/v1/products?skip=x",
		"/api/v1/products?limit=0",
		"/api/v1/products?min_price=9&max_price=1",
	} {
		if rec := env.do(httptest.NewRequest(http.MethodGet, url, nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rec.Code)
		}
	}
	if env.product.listed != nil {
		t.Error("invalid requests must not reach the use case")
	}
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/v1/products/4", nil))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(env.product.deleted) != 1 || env.product.deleted[0] != 4 {
		t.Errorf("deleted = %v", env.product.deleted)
	}
}

func TestDeleteProductErrors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		ucErr  error
		status int
	}{
		{"bad id", "/api/v1/products/abc", nil, http.StatusBadRequest},
		{"not found", "/api/v1/products/9", e.Wrap("ProductUseCase.DeleteProduct", e.ErrProductNotFound), http.StatusNotFound},
		{"ordered", "/api/v1/products/9", e.Wrap("ProductUseCase.DeleteProduct", e.ErrProductHasOrders), http.StatusConflict},
	}

	for _, tt := range tests {
		env := newTestEnv(fakePinger{}, fakeAvailability(true))
		env.product.err = tt.ucErr

		if rec := env.do(httptest.NewRequest(http.MethodDelete, tt.url, nil)); rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
	}
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", "front.png")
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env.product.image.MimeType != "image/png" || env.product.image.Name != "front.png" {
		t.Errorf("image = %+v", env.product.image)
	}
}

func TestUploadImageRequiresMultipart(t *testing.T) {
	env := newTestEnv(fakePinger{}, fakeAvailability(true))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/1/image", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	if rec := env.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		provider AvailabilityChecker
		status   int
		want     string
	}{
		{"ok", fakePinger{}, fakeAvailability(true), http.StatusOK, "ok"},
		{"degraded", fakePinger{}, fakeAvailability(false), http.StatusOK, "degraded"},
		{"db down", fakePinger{err: errors.New("refused")}, fakeAvailability(true), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		env := newTestEnv(tt.db, tt.provider)
		rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

		var body HealthResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if rec.Code != tt.status || body.Status != tt.want {
			t.Errorf("%s: status = %d (%s), want %d (%s)", tt.name, rec.Code, body.Status, tt.status, tt.want)
		}
	}
}
