// Package di は設定に応じてアプリケーションのコンポーネントを生成するファクトリを提供します。
package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inimage_backend/internal/feature/scan/adapters/vision"
	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
	"inimage_backend/internal/platform/config"
	"inimage_backend/internal/shared/ratelimiter"
)

// unavailableDetector は検出器を初期化できなかった場合の代替です。
// 呼び出しは常に失敗し、スキャンはロゴなし・警告付きのレコードとして続行されます。
type unavailableDetector struct {
	cause error
}

func (d unavailableDetector) DetectLogos(context.Context, []byte) ([]entity.Detection, error) {
	return nil, fmt.Errorf("%w: %w", domain.ErrDetectionUnavailable, d.cause)
}

// NewLogoDetector はVision APIの検出器をレートリミッタ付きで生成します。
// 認証情報の不備などで生成に失敗した場合は常に失敗する検出器を返し、起動は止めません。
// 返り値の close はプロセス終了時に呼び出してください。
func NewLogoDetector(ctx context.Context, cfg config.VisionConfig) (usecase.LogoDetector, func() error) {
	client, err := vision.NewVisionLogoDetector(ctx, vision.Config{
		CredentialsFile: cfg.CredentialsFile,
		CredentialsJSON: cfg.CredentialsJSON,
		Endpoint:        cfg.Endpoint,
		Timeout:         cfg.Timeout,
	})
	if err != nil {
		slog.Warn("logo detection unavailable; scans will be recorded without logos", "error", err)
		return unavailableDetector{cause: err}, func() error { return nil }
	}

	limiter := ratelimiter.NewRateLimiter(cfg.RatePerMinute, time.Minute)
	return vision.NewRateLimitedDetector(client, limiter), client.Close
}
