package converter

import (
	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/pgvector/pgvector-go"
)

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func (ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
		ID:               entity.ID,
		EAN:              entity.EAN,
		Title:            entity.Title,
		Description:      NullableString(entity.Description),
		Category:         entity.Category,
		Brand:            NullableString(entity.Brand),
		Color:            NullableString(entity.Color),
		Price:            entity.Price,
		Rating:           entity.Rating,
		Stock:            entity.Stock,
		ImageURL:         NullableString(entity.ImageURL),
		Embedding:        NullableVector(entity.Embedding),
		EmbeddingVersion: entity.EmbeddingVersion,
		CreatedAt:        entity.CreatedAt,
		UpdatedAt:        entity.UpdatedAt,
	}
}

func (ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	product := &domain.Product{
		ID:               model.ID,
		EAN:              model.EAN,
		Title:            model.Title,
		Description:      StringValue(model.Description),
		Category:         model.Category,
		Brand:            StringValue(model.Brand),
		Color:            StringValue(model.Color),
		Price:            model.Price,
		Rating:           model.Rating,
		Stock:            model.Stock,
		ImageURL:         StringValue(model.ImageURL),
		EmbeddingVersion: model.EmbeddingVersion,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if model.Embedding != nil {
		product.Embedding = domain.Vector(model.Embedding.Slice())
	}

	return product
}

type OutboxEventConverterImpl struct{}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:                  entity.ID,
		EventID:             entity.EventID,
		EventType:           string(entity.EventType),
		ProductID:           entity.ProductID,
		Payload:             entity.Payload,
		Status:              string(entity.Status),
		CreatedAt:           entity.CreatedAt,
		ProcessingStartedAt: entity.ProcessingStartedAt,
		ProcessedAt:         entity.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:                  model.ID,
		EventID:             model.EventID,
		EventType:           usecase.OutboxEventType(model.EventType),
		ProductID:           model.ProductID,
		Payload:             model.Payload,
		Status:              usecase.OutboxStatus(model.Status),
		CreatedAt:           model.CreatedAt,
		ProcessingStartedAt: model.ProcessingStartedAt,
		ProcessedAt:         model.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}

// NullableString превращает пустую строку в NULL.
func NullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NullableVector не сохраняет пустые и нулевые векторы: такой товар считается без эмбеддинга.
func NullableVector(v domain.Vector) *pgvector.Vector {
	if len(v) == 0 || v.IsZero() {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}
