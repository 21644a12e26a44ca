package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/domain"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/clients"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix        = "product:"
	queryEmbeddingKeyPrefix = "embedding:query:"
)

// CacheRepo кэширует карточки товаров и эмбеддинги поисковых запросов.
// Ошибки записи только логируются: кэш не должен ломать основной путь.
type CacheRepo struct {
	client         *clients.RedisClient
	conv           converter.ProductInfoConverter
	cfg            *cfg.RedisCfg
	embeddingModel string
	logger         logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, embeddingModel string, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client:         client,
		conv:           conv,
		cfg:            cfg,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
}

// GetProducts возвращает найденные в кэше карточки. Отсутствующие и битые ключи считаются промахом.
func (r *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]usecase.ProductInfo, error) {
	result := make(map[int64]usecase.ProductInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := productKeys(ids)
	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var stale []string
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
			stale = append(stale, keys[i])
			continue
		}
		if data == nil {
			continue
		}

		var model converter.ProductInfoRedisModel
		if err := json.Unmarshal(data, &model); err != nil || model.ID != ids[i] {
			r.logger.Warnf("dropping corrupt cache entry %s", keys[i])
			stale = append(stale, keys[i])
			continue
		}

		result[ids[i]] = *r.conv.ToUseCase(&model)
	}

	if len(stale) > 0 {
		if err := r.client.Client.Del(ctx, stale...).Err(); err != nil {
			r.logger.Warnf("redis DEL of corrupt entries failed: %v", err)
		}
	}

	return result, nil
}

// SetProducts пишет карточки одним pipeline с ProductTTL.
func (r *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo) error {
	if len(products) == 0 {
		return nil
	}

	models := r.conv.ToArrRedisModel(products)
	_, err := r.client.Client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, model := range models {
			data, err := json.Marshal(model)
			if err != nil {
				r.logger.Warnf("skip caching product %d: %v", model.ID, err)
				continue
			}
			pipe.Set(ctx, productKey(model.ID), data, r.cfg.ProductTTL)
		}
		return nil
	})
	if err != nil {
		r.logger.Warnf("cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.client.Client.Del(ctx, productKeys(ids)...).Err(); err != nil {
		r.logger.Warnf("redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// GetQueryEmbedding возвращает закэшированный эмбеддинг запроса. Промах даёт (nil, false, nil).
func (r *CacheRepo) GetQueryEmbedding(ctx context.Context, text string) (domain.Vector, bool, error) {
	data, err := r.client.Client.Get(ctx, QueryEmbeddingKey(r.embeddingModel, text)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.QueryEmbeddingRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}
	if model.Model != r.embeddingModel || len(model.Vector) == 0 {
		return nil, false, nil
	}

	return domain.Vector(model.Vector), true, nil
}

func (r *CacheRepo) SetQueryEmbedding(ctx context.Context, text string, vector domain.Vector) error {
	data, err := json.Marshal(converter.QueryEmbeddingRedisModel{Model: r.embeddingModel, Vector: vector})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	key := QueryEmbeddingKey(r.embeddingModel, text)
	if err := r.client.Client.Set(ctx, key, data, r.cfg.QueryEmbeddingTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// QueryEmbeddingKey включает модель в хэш, чтобы смена модели не отдавала старые векторы.
func QueryEmbeddingKey(model string, text string) string {
	sum := sha256.Sum256([]byte(model + "|" + text))
	return queryEmbeddingKeyPrefix + hex.EncodeToString(sum[:])
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

func productKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return keys
}

// redisValueToBytes разбирает элемент ответа MGET, nil означает промах.
func redisValueToBytes(val any, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected redis value type for key %s: %T", key, val)
	}
}
