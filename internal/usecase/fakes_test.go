package usecase

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/rs/zerolog"
)

func testLogger() logger.Logger {
	return logger.New(io.Discard, zerolog.DebugLevel)
}

type generateCall struct {
	text string
	mode domain.EmbeddingMode
}

// fakeProvider возвращает заранее заданные векторы по тексту.
type fakeProvider struct {
	mu        sync.Mutex
	dim       int
	vectors   map[string]domain.Vector
	fallback  domain.Vector
	err       error
	available bool
	calls     []generateCall
}

func newFakeProvider(dim int) *fakeProvider {
	return &fakeProvider{dim: dim, vectors: map[string]domain.Vector{}, available: true}
}

func (f *fakeProvider) Generate(_ context.Context, text string, mode domain.EmbeddingMode) (domain.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, generateCall{text: text, mode: mode})
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return domain.ZeroVector(f.dim), nil
}

func (f *fakeProvider) Available(context.Context) bool {
	return f.available
}

func (f *fakeProvider) Dimension() int {
	return f.dim
}

func (f *fakeProvider) Calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateCall(nil), f.calls...)
}

// fakeIndex - точный поиск по срезу товаров.
type fakeIndex struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	queries  []IndexQuery
	upserted []domain.Product
	deleted  []int64
	panicOn  bool
}

func (f *fakeIndex) Query(_ context.Context, q IndexQuery) ([]domain.ScoredProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panicOn {
		panic("index exploded")
	}
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}

	return NewSimilarityRanker().RankVectors(q.Vector, f.eligible(q.ExcludeIDs), RankOptions{
		Threshold: q.Threshold,
		Filters:   q.Filters,
		Limit:     q.Limit,
	})
}

func (f *fakeIndex) CountEligible(_ context.Context, excludeIDs []int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	return len(f.eligible(excludeIDs)), nil
}

func (f *fakeIndex) Upsert(_ context.Context, products []domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserted = append(f.upserted, products...)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeIndex) Queries() []IndexQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]IndexQuery(nil), f.queries...)
}

func (f *fakeIndex) eligible(excludeIDs []int64) []domain.Product {
	skip := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}

	result := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		if _, ok := skip[p.ID]; ok || !p.HasEmbedding() {
			continue
		}
		result = append(result, p)
	}
	return result
}

// fakeProductRepo - хранилище товаров в памяти.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	nextID   int64
	err      error
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]domain.Product{}, nextID: 1}
	for _, p := range products {
		r.products[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) GetByEAN(_ context.Context, ean string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.EAN == ean {
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (r *fakeProductRepo) TopRated(_ context.Context, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return r.topRated(func(domain.Product) bool { return true }, limit), nil
}

func (r *fakeProductRepo) TopRatedInCategory(_ context.Context, category string, excludeIDs []int64, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	skip := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}
	return r.topRated(func(p domain.Product) bool {
		_, excluded := skip[p.ID]
		return p.Category == category && !excluded
	}, limit), nil
}

func (r *fakeProductRepo) topRated(keep func(domain.Product) bool, limit int) []domain.Product {
	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Rating != result[j].Rating {
			return result[i].Rating > result[j].Rating
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	p := *product
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = p
	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.products[product.ID]; !ok {
		return nil, e.ErrProductNotFound
	}
	p := *product
	r.products[p.ID] = p
	return &p, nil
}

func (r *fakeProductRepo) List(_ context.Context, filters domain.SearchFilters, skip, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	result := r.filtered(filters)
	if skip >= len(result) {
		return []domain.Product{}, nil
	}
	result = result[skip:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeProductRepo) Count(_ context.Context, filters domain.SearchFilters) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return 0, r.err
	}
	return len(r.filtered(filters)), nil
}

func (r *fakeProductRepo) filtered(filters domain.SearchFilters) []domain.Product {
	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filters.Match(&p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if _, ok := r.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) ListWithoutEmbedding(_ context.Context, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Product, 0)
	for _, p := range r.products {
		if !p.HasEmbedding() {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeProductRepo) UpdateEmbedding(_ context.Context, id int64, embedding domain.Vector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p.Embedding = embedding
	p.EmbeddingVersion++
	r.products[id] = p
	return nil
}

func (r *fakeProductRepo) SetImageURL(_ context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p.ImageURL = url
	r.products[id] = p
	return nil
}

func (r *fakeProductRepo) Get(id int64) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id]
}

type fakeWishlistRepo struct {
	products map[int64][]domain.Product
	err      error
}

func (f *fakeWishlistRepo) GetProductsByUser(_ context.Context, userID int64) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[userID], nil
}

type fakeOrderRepo struct {
	purchased map[int64][]int64
	err       error
}

func (f *fakeOrderRepo) GetPurchasedProductIDs(_ context.Context, userID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.purchased[userID], nil
}

type fakeEmbeddingCache struct {
	mu      sync.Mutex
	vectors map[string]domain.Vector
	sets    chan string
}

func newFakeEmbeddingCache() *fakeEmbeddingCache {
	return &fakeEmbeddingCache{vectors: map[string]domain.Vector{}, sets: make(chan string, 16)}
}

func (c *fakeEmbeddingCache) GetQueryEmbedding(_ context.Context, text string) (domain.Vector, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.vectors[text]
	return v, ok, nil
}

func (c *fakeEmbeddingCache) SetQueryEmbedding(_ context.Context, text string, vector domain.Vector) error {
	c.mu.Lock()
	c.vectors[text] = vector
	c.mu.Unlock()

	c.sets <- text
	return nil
}

type fakeCacheRepo struct {
	mu       sync.Mutex
	products map[int64]ProductInfo
	deleted  []int64
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{products: map[int64]ProductInfo{}}
}

func (c *fakeCacheRepo) GetProducts(_ context.Context, ids []int64) (map[int64]ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[int64]ProductInfo)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (c *fakeCacheRepo) SetProducts(_ context.Context, products []ProductInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *fakeCacheRepo) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.products, id)
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *fakeCacheRepo) Deleted() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.deleted...)
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []OutboxEvent
	err    error
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	ev := *event
	ev.ID = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return &ev, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error {
	return nil
}

func (f *fakeOutboxRepo) ReturnToPending(context.Context, int64) error {
	return nil
}

func (f *fakeOutboxRepo) MarkAsFailed(context.Context, int64) error {
	return nil
}

// fakeTxManager выполняет fn без транзакции и считает вызовы.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type fakeImages struct {
	uploaded []UploadImagesReq
	cleaned  []string
	err      error
}

func (f *fakeImages) UploadImages(_ context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, *req)
	return NewUploadImagesRes([]string{"products/1/a.jpg"}, []string{"http://minio/product-images/products/1/a.jpg"}), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.cleaned = append(f.cleaned, keys...)
}
