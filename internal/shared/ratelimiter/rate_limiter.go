// Package ratelimiter は外部APIの呼び出し頻度を制限するトークンバケットを提供します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type Limiter interface {
	// Wait は呼び出しが許可されるまで待機します。ctxがキャンセルされた場合はエラーを返します。
	Wait(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までの呼び出しを許可します。
// 複数のゴルーチンから共有して利用できます。
type RateLimiter struct {
	limiter *rate.Limiter
	limit   int
}

// RateLimiterがLimiterを実装していることをコンパイル時に検証します。
var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit が0以下の場合は制限を行いません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{
		limiter: rate.NewLimiter(every, limit),
		limit:   limit,
	}
}

// Wait は上限に達していれば次のトークンが補充されるまで待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if !rl.limiter.Allow() {
		slog.Debug("rate limit reached, waiting", "limit", rl.limit)
		return rl.limiter.Wait(ctx)
	}
	return nil
}
