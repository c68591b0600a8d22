package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/repository/redis/converter"
	"github.com/DRSN-tech/minimarket/pkg/clients"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/jimlawless/whereami"
)

// CacheRepo кэширует снимок каталога в Redis. Остатки в кэше могут отставать от хранилища
// не дольше ProductTTL; проведение продажи кэш не читает.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts возвращает закэшированные продукты по ID, пропуская промахи и повреждённые записи
func (r *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	result := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := r.buildProductCacheKeys(ids)
	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}

		if data == nil {
			continue // cache miss
		}

		model, err := r.unmarshalProductFromCache(data)
		if err != nil {
			r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		if model.ID != ids[i] {
			r.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", ids[i], model.ID)
			if err := r.client.Client.Del(context.WithoutCancel(ctx), keys[i]).Err(); err != nil {
				r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
			}
			continue // cache miss
		}
		result[ids[i]] = *r.conv.ToEntity(model)
	}

	return result, nil
}

// SetProducts кэширует несколько продуктов одним pipeline с заданным TTL.
// Ошибки сериализации отдельных продуктов только логируются.
func (r *CacheRepo) SetProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now().UTC()
	pipeline := r.client.Client.Pipeline()
	for i := range products {
		model := r.conv.ToRedisModel(&products[i], now)

		data, err := r.marshalProductForCache(model)
		if err != nil {
			r.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		pipeline.Set(ctx, r.productKey(model.ID), data, r.cfg.ProductTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProducts удаляет продукты из кэша по ID
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.client.Client.Del(ctx, r.buildProductCacheKeys(ids)...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// marshalProductForCache сериализует продукт в JSON для кэша
func (r *CacheRepo) marshalProductForCache(model *converter.ProductRedisModel) ([]byte, error) {
	return json.Marshal(model)
}

// unmarshalProductFromCache десериализует JSON из кэша в модель продукта
func (r *CacheRepo) unmarshalProductFromCache(data []byte) (*converter.ProductRedisModel, error) {
	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// buildProductCacheKeys формирует Redis-ключи из ID продуктов
func (r *CacheRepo) buildProductCacheKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.productKey(id)
	}

	return keys
}

// productKey возвращает Redis-ключ для одного продукта
func (r *CacheRepo) productKey(id int64) string {
	return fmt.Sprintf("minimarket:product:%d", id)
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val any, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
