package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/logger"
)

// Key 需要人工對帳的事件清單
const Key = "alerts:inconsistencies"

type Inconsistency struct {
	Kind     string    `json:"kind"`
	OrderID  string    `json:"orderId,omitempty"`
	CartID   string    `json:"cartId,omitempty"`
	UserID   string    `json:"userId,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Reported time.Time `json:"reported"`
}

// Reporter 寫入alert等級的log，有Redis時同時推入清單
type Reporter struct {
	rdb *redis.Client
}

func NewReporter(rdb *redis.Client) *Reporter {
	return &Reporter{rdb: rdb}
}

func (r *Reporter) Report(ctx context.Context, inc Inconsistency, cause error) {
	if inc.Reported.IsZero() {
		inc.Reported = time.Now().UTC()
	}
	if cause != nil && inc.Detail == "" {
		inc.Detail = cause.Error()
	}
	logger.Event(ctx, "alert", inc.Kind, cause, map[string]any{
		"order": inc.OrderID,
		"cart":  inc.CartID,
		"user":  inc.UserID,
	})
	if r == nil || r.rdb == nil {
		return
	}

	payload, err := json.Marshal(inc)
	if err != nil {
		logger.Event(ctx, "error", "alert_encode", err, nil)
		return
	}
	// 請求可能已取消，推送不跟隨請求的context
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.rdb.RPush(pushCtx, Key, payload).Err(); err != nil {
		logger.Event(ctx, "error", "alert_push", err, nil)
	}
}
