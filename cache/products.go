package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"storefront/logger"
	"storefront/models"
)

const (
	productsKey        = "products"
	productsVersionKey = "products:version"
)

// ProductCache 以Redis ZSET保存商品列表，score為建立順序。
// 每次Invalidate會遞增版本號，Fill只在版本未變時寫入。
type ProductCache struct {
	rdb        *redis.Client
	key        string
	versionKey string
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb, key: productsKey, versionKey: productsVersionKey}
}

// Version 讀取商品列表前先取得版本號，之後交給Fill
func (c *ProductCache) Version(ctx context.Context) (int64, error) {
	return readVersion(ctx, c.rdb, c.versionKey)
}

func readVersion(ctx context.Context, cmd redis.Cmdable, key string) (int64, error) {
	v, err := cmd.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Page 回傳快取中的一頁商品，快取為空時ok為false
func (c *ProductCache) Page(ctx context.Context, offset, limit int) ([]models.Product, int64, bool, error) {
	total, err := c.rdb.ZCard(ctx, c.key).Result()
	if err != nil {
		return nil, 0, false, err
	}
	if total == 0 {
		return nil, 0, false, nil
	}

	members, err := c.rdb.ZRange(ctx, c.key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, false, err
	}
	products := make([]models.Product, 0, len(members))
	for _, member := range members {
		var product models.Product
		if err := json.Unmarshal([]byte(member), &product); err != nil {
			//無法反序列化的資料視為快取失效
			logger.Event(ctx, "warn", "product_cache_decode", err, nil)
			return nil, 0, false, nil
		}
		products = append(products, product)
	}
	return products, total, true, nil
}

// Fill 以完整商品列表重建快取。
// 讀取列表後版本已變（期間有Invalidate）時不寫入，回傳false。
func (c *ProductCache) Fill(ctx context.Context, version int64, products []models.Product) (bool, error) {
	members := make([]redis.Z, 0, len(products))
	for i, product := range products {
		productJSON, err := json.Marshal(product)
		if err != nil {
			return false, err
		}
		members = append(members, redis.Z{Score: float64(i), Member: productJSON})
	}

	stale := false
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, c.versionKey)
		if err != nil {
			return err
		}
		if current != version {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, c.key)
			if len(members) > 0 {
				pipe.ZAdd(ctx, c.key, members...)
			}
			return nil
		})
		return err
	}, c.versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		//WATCH期間版本被遞增
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !stale, nil
}

// Invalidate 商品新增、修改、刪除後呼叫，下次查詢時重建
func (c *ProductCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	return err
}
