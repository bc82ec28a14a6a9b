package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "revoked:"

// RedisDenylist 以key的TTL對齊token到期時間
type RedisDenylist struct {
	rdb *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist {
	return &RedisDenylist{rdb: rdb}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LocalDenylist 未設定Redis時使用，只在單一process內有效
type LocalDenylist struct {
	items *ttlcache.Cache[string, struct{}]
}

func NewLocalDenylist() *LocalDenylist {
	//命中時不可延長TTL，紀錄需在token到期時一起失效
	items := ttlcache.New[string, struct{}](ttlcache.WithDisableTouchOnHit[string, struct{}]())
	return &LocalDenylist{items: items}
}

func (d *LocalDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.items.DeleteExpired()
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	d.items.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (d *LocalDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return d.items.Has(tokenID), nil
}
