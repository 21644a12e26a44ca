package clients

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

type QdrantClient struct {
	Client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewQdrantClient(cfg *cfg.QdrantCfg) (*QdrantClient, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &QdrantClient{
		Client: client,
		cfg:    cfg,
	}, nil
}

// EnsureCollection создаёт коллекцию товаров с косинусной метрикой и размерностью из конфигурации.
// Если коллекция уже есть, проверяет, что размерность совпадает.
func EnsureCollection(ctx context.Context, client *QdrantClient) error {
	name := client.cfg.QdrantCollectionName

	exists, err := client.Client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if exists {
		info, err := client.Client.GetCollectionInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get collection info: %w", err)
		}

		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && size != client.cfg.VectorSize {
			return e.Wrap(
				fmt.Sprintf("collection %s has size %d, expected %d", name, size, client.cfg.VectorSize),
				e.ErrDimensionMismatch,
			)
		}

		return nil
	}

	if err := client.Client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     client.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}
