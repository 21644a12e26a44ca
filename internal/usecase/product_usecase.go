package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
)

const (
	eanLength        = 13
	maxProductRating = 5.0
)

// ProductUseCase управляет товарами и жизненным циклом их эмбеддингов.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	txManager   TxManager
	provider    EmbeddingProvider
	index       VectorIndex
	imagesInfra ImagesInfra
	cacheRepo   CacheRepository
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	txManager TxManager,
	provider EmbeddingProvider,
	index VectorIndex,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		provider:    provider,
		index:       index,
		imagesInfra: imagesInfra,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateProduct валидирует товар, строит эмбеддинг документа и сохраняет товар вместе с outbox-событием.
// Если провайдер недоступен, товар сохраняется без эмбеддинга.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.CreateProduct"

	product := domain.NewProduct(
		strings.TrimSpace(req.EAN),
		strings.TrimSpace(req.Title),
		strings.TrimSpace(req.Description),
		strings.TrimSpace(req.Category),
		strings.TrimSpace(req.Brand),
		strings.TrimSpace(req.Color),
		req.Price,
		req.Rating,
		req.Stock,
	)

	// Валидация данных
	if err := validateProduct(product); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.ensureUniqueEAN(ctx, product.EAN, 0); err != nil {
		return nil, e.Wrap(op, err)
	}

	embedding, err := p.documentEmbedding(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if embedding != nil {
		product.Embedding = embedding
		product.EmbeddingVersion = 1
	}

	created, err := p.save(ctx, product, p.productRepo.Create)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.afterWrite(ctx, created)

	info := NewProductInfo(created)
	return &info, nil
}

// UpdateProduct применяет патч. Эмбеддинг перестраивается только если патч затрагивает
// поля из domain.EmbeddingFields, иначе остаётся прежним.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, patch *ProductPatch) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	if patch == nil || patch.IsEmpty() {
		return nil, e.Wrap(op, e.ErrEmptyPatch)
	}

	existing, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	updated := *existing
	changed := patch.Apply(&updated)

	if err := validateProduct(&updated); err != nil {
		return nil, e.Wrap(op, err)
	}

	if updated.EAN != existing.EAN {
		if err := p.ensureUniqueEAN(ctx, updated.EAN, id); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	if domain.NeedsReembedding(changed) {
		embedding, err := p.documentEmbedding(ctx, &updated)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		if embedding != nil {
			updated.Embedding = embedding
			updated.EmbeddingVersion = existing.EmbeddingVersion + 1
		} else {
			// старый вектор описывает прежний текст, товар уходит из поиска до reindex
			updated.Embedding = nil
			p.logger.Warnf("product %d embedding dropped until reindex, version %d", id, existing.EmbeddingVersion)
		}
	}

	saved, err := p.save(ctx, &updated, p.productRepo.Update)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.afterWrite(ctx, saved)

	info := NewProductInfo(saved)
	return &info, nil
}

// GetProduct возвращает карточку товара из кэша, при промахе из БД.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	cached, err := p.cacheRepo.GetProducts(ctx, []int64{id})
	if err == nil {
		if info, ok := cached[id]; ok {
			return &info, nil
		}
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	info := NewProductInfo(product)

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheFillTimeout)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, []ProductInfo{info}); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return &info, nil
}

// ListProducts возвращает страницу каталога. Кэш карточек не используется: страница собирается одним запросом.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error) {
	const op = "ProductUseCase.ListProducts"

	if req.Limit < 1 || req.Limit > MaxLimit {
		return nil, e.Wrap(op, e.ErrInvalidLimit)
	}
	if req.Skip < 0 {
		return nil, e.Wrap(op, e.ErrInvalidSkip)
	}

	total, err := p.productRepo.Count(ctx, req.Filters)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := &ListProductsRes{Products: []ProductInfo{}, Total: total, Skip: req.Skip, Limit: req.Limit}
	if req.Skip >= total {
		return res, nil
	}

	products, err := p.productRepo.List(ctx, req.Filters, req.Skip, req.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	for i := range products {
		res.Products = append(res.Products, NewProductInfo(&products[i]))
	}

	return res, nil
}

// DeleteProduct удаляет товар, пишет product.deleted в outbox и убирает товар из индекса и кэша.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	if id <= 0 {
		return e.Wrap(op, e.ErrInvalidID)
	}

	err := p.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := p.productRepo.Delete(ctx, id); err != nil {
			return err
		}

		event, err := NewProductDeletedEvent(id)
		if err != nil {
			return err
		}
		_, err = p.outboxRepo.Create(ctx, event)
		return err
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := p.index.Delete(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to remove product %d from vector index: %v", id, e.Wrap(op, err))
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap(op, err))
	}

	return nil
}

// UploadImage сохраняет изображение товара в объектное хранилище и обновляет image_url.
func (p *ProductUseCase) UploadImage(ctx context.Context, id int64, image *ProductImage) (*ProductInfo, error) {
	const op = "ProductUseCase.UploadImage"

	if image == nil || len(image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	uploaded, err := p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(id, []ProductImage{*image}))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(uploaded.URLs) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	if err := p.productRepo.SetImageURL(ctx, id, uploaded.URLs[0]); err != nil {
		p.logger.Warnf(
			"Cleaning up orphaned images after failed update. product_id: %d, error: %v",
			id,
			e.Wrap(op, err),
		)
		p.imagesInfra.CleanupImages(uploaded.ImagesKeys)
		return nil, e.Wrap(op, err)
	}
	product.ImageURL = uploaded.URLs[0]

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap(op, err))
	}

	info := NewProductInfo(product)
	return &info, nil
}

// ReindexEmbeddings строит эмбеддинги для товаров, у которых их нет, пачками по batchSize.
// Пачка с ошибками генерации прерывает проход, оставшиеся товары обработает следующий запуск.
func (p *ProductUseCase) ReindexEmbeddings(ctx context.Context, batchSize int) (*ReindexRes, error) {
	const op = "ProductUseCase.ReindexEmbeddings"

	if batchSize <= 0 {
		batchSize = MaxLimit
	}

	if !p.provider.Available(ctx) {
		return nil, e.Wrap(op, e.ErrProviderUnavailable)
	}

	res := &ReindexRes{}
	for {
		if err := ctx.Err(); err != nil {
			return res, e.Wrap(op, err)
		}

		products, err := p.productRepo.ListWithoutEmbedding(ctx, batchSize)
		if err != nil {
			return res, e.Wrap(op, err)
		}
		if len(products) == 0 {
			return res, nil
		}

		failed := 0
		for i := range products {
			if err := p.reindexOne(ctx, &products[i]); err != nil {
				if IsConfigError(err) {
					return res, e.Wrap(op, err)
				}
				p.logger.Warnf("reindex of product %d failed: %v", products[i].ID, e.Wrap(op, err))
				failed++
				continue
			}
			res.Processed++
		}
		res.Failed += failed

		if failed > 0 || len(products) < batchSize {
			return res, nil
		}
	}
}

func (p *ProductUseCase) reindexOne(ctx context.Context, product *domain.Product) error {
	embedding, err := p.provider.Generate(ctx, product.DocumentText(), domain.ModeDocument)
	if err != nil {
		return err
	}
	if embedding.IsZero() {
		return e.ErrEmptyEmbedding
	}

	product.Embedding = embedding
	product.EmbeddingVersion++

	err = p.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := p.productRepo.UpdateEmbedding(ctx, product.ID, embedding); err != nil {
			return err
		}
		return p.writeEvent(ctx, product)
	})
	if err != nil {
		return err
	}

	p.afterWrite(ctx, product)
	return nil
}

// save выполняет запись товара и outbox-события в одной транзакции.
func (p *ProductUseCase) save(
	ctx context.Context,
	product *domain.Product,
	write func(ctx context.Context, product *domain.Product) (*domain.Product, error),
) (*domain.Product, error) {
	var saved *domain.Product

	err := p.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		saved, err = write(ctx, product)
		if err != nil {
			return err
		}
		if saved.Embedding == nil {
			saved.Embedding = product.Embedding
		}
		return p.writeEvent(ctx, saved)
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (p *ProductUseCase) writeEvent(ctx context.Context, product *domain.Product) error {
	event, err := NewProductUpsertedEvent(product)
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, event)
	return err
}

// afterWrite синхронизирует векторный индекс и сбрасывает кэш. Ошибки только логируются.
func (p *ProductUseCase) afterWrite(ctx context.Context, product *domain.Product) {
	const op = "ProductUseCase.afterWrite"

	if product.HasEmbedding() {
		if err := p.index.Upsert(ctx, []domain.Product{*product}); err != nil {
			p.logger.Warnf("Failed to sync vector index: %v", e.Wrap(op, err))
		}
	} else if err := p.index.Delete(ctx, []int64{product.ID}); err != nil {
		p.logger.Warnf("Failed to drop stale vector: %v", e.Wrap(op, err))
	}

	// Удаление из кэша старых данных товара
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{product.ID}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap(op, err))
	}
}

// documentEmbedding строит эмбеддинг товара. При недоступности провайдера возвращает nil без ошибки.
func (p *ProductUseCase) documentEmbedding(ctx context.Context, product *domain.Product) (domain.Vector, error) {
	const op = "ProductUseCase.documentEmbedding"

	vector, err := p.provider.Generate(ctx, product.DocumentText(), domain.ModeDocument)
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}
		p.logger.Warnf("embedding provider failed, product stored without embedding: %v", e.Wrap(op, err))
		return nil, nil
	}

	if vector.IsZero() {
		return nil, nil
	}

	return vector, nil
}

// ensureUniqueEAN проверяет, что EAN не занят другим товаром.
func (p *ProductUseCase) ensureUniqueEAN(ctx context.Context, ean string, selfID int64) error {
	existing, err := p.productRepo.GetByEAN(ctx, ean)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil
		}
		return err
	}

	if existing.ID != selfID {
		return e.ErrDuplicateEAN
	}

	return nil
}

// validateProduct проверяет корректность полей товара.
func validateProduct(p *domain.Product) error {
	if strings.TrimSpace(p.Title) == "" {
		return e.ErrProductTitleRequired
	}

	if strings.TrimSpace(p.Category) == "" {
		return e.ErrProductCategoryEmpty
	}

	if utf8.RuneCountInString(p.EAN) != eanLength {
		return e.ErrInvalidEAN
	}

	if p.Price <= 0 {
		return e.ErrPriceMustBePositive
	}

	if p.Rating < 0 || p.Rating > maxProductRating {
		return e.ErrInvalidRating
	}

	if p.Stock < 0 {
		return e.ErrInvalidStock
	}

	return nil
}
