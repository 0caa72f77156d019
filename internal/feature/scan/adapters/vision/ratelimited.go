package vision

import (
	"context"
	"fmt"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
	"inimage_backend/internal/shared/ratelimiter"
)

// RateLimitedDetector は検出呼び出しの前に共有のリミッターで待機するデコレータです。
type RateLimitedDetector struct {
	next    usecase.LogoDetector
	limiter ratelimiter.Limiter
}

// RateLimitedDetectorがLogoDetectorを実装していることをコンパイル時に検証します。
var _ usecase.LogoDetector = (*RateLimitedDetector)(nil)

// NewRateLimitedDetector はRateLimitedDetectorを生成します。
func NewRateLimitedDetector(next usecase.LogoDetector, limiter ratelimiter.Limiter) *RateLimitedDetector {
	return &RateLimitedDetector{next: next, limiter: limiter}
}

// DetectLogos はトークンを取得してから検出を委譲します。待機中のキャンセルは検出失敗として扱います。
func (d *RateLimitedDetector) DetectLogos(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrDetectionUnavailable, err)
	}
	return d.next.DetectLogos(ctx, imageData)
}
