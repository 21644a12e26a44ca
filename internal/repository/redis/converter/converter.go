package converter

import "github.com/DRSN-tech/catalog-recommender/internal/usecase"

type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
}

type ProductInfoConverterImpl struct{}

func (ProductInfoConverterImpl) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	if entity == nil {
		return nil
	}

	return &ProductInfoRedisModel{
		ID:           entity.ID,
		EAN:          entity.EAN,
		Title:        entity.Title,
		Description:  entity.Description,
		Category:     entity.Category,
		Brand:        entity.Brand,
		Color:        entity.Color,
		Price:        entity.Price,
		Rating:       entity.Rating,
		Stock:        entity.Stock,
		ImageURL:     entity.ImageURL,
		HasEmbedding: entity.HasEmbedding,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (ProductInfoConverterImpl) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	if model == nil {
		return nil
	}

	return &usecase.ProductInfo{
		ID:           model.ID,
		EAN:          model.EAN,
		Title:        model.Title,
		Description:  model.Description,
		Category:     model.Category,
		Brand:        model.Brand,
		Color:        model.Color,
		Price:        model.Price,
		Rating:       model.Rating,
		Stock:        model.Stock,
		ImageURL:     model.ImageURL,
		HasEmbedding: model.HasEmbedding,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func (c ProductInfoConverterImpl) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	result := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}
