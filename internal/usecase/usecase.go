package usecase

import "context"

type SearchUC interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
}

type RecommendationUC interface {
	Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, id int64, patch *ProductPatch) (*ProductInfo, error)
	GetProduct(ctx context.Context, id int64) (*ProductInfo, error)
	ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	DeleteProduct(ctx context.Context, id int64) error
	UploadImage(ctx context.Context, id int64, image *ProductImage) (*ProductInfo, error)
	ReindexEmbeddings(ctx context.Context, batchSize int) (*ReindexRes, error)
}
