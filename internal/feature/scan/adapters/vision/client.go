// Package vision はGoogle Cloud Vision APIを使用したロゴ検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"time"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

// Config はVision APIへの接続設定です。
// 認証情報はプロセスの環境変数ではなく、この設定値としてクライアントへ渡します。
type Config struct {
	// CredentialsFile はサービスアカウントJSONのパスです。
	CredentialsFile string
	// CredentialsJSON はサービスアカウントJSONの内容です。CredentialsFileより優先されます。
	CredentialsJSON string
	// Endpoint はAPIエンドポイントの上書きです。空の場合は既定値を使用します。
	Endpoint string
	// Timeout は1リクエストあたりのタイムアウトです。0の場合は呼び出し元のctxに従います。
	Timeout time.Duration
}

// ClientOptions はConfigをクライアントオプションに変換します。
// 認証情報が指定されていない場合はADCが使われます。
func (c Config) ClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case c.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(c.CredentialsJSON)))
	case c.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	return opts
}

// VisionLogoDetector はGoogle Cloud Vision APIを使用してロゴを検出します。
type VisionLogoDetector struct {
	client  *gvision.ImageAnnotatorClient
	timeout time.Duration
}

// VisionLogoDetectorがLogoDetectorを実装していることをコンパイル時に検証します。
var _ usecase.LogoDetector = (*VisionLogoDetector)(nil)

// NewVisionLogoDetector はVisionLogoDetectorの新しいインスタンスを生成します。
func NewVisionLogoDetector(ctx context.Context, cfg Config) (*VisionLogoDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx, cfg.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create vision client: %v", domain.ErrConfiguration, err)
	}
	return &VisionLogoDetector{client: client, timeout: cfg.Timeout}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionLogoDetector) Close() error {
	return v.client.Close()
}

// DetectLogos は画像バイト列からロゴを検出します。
func (v *VisionLogoDetector) DetectLogos(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := v.client.BatchAnnotateImages(ctx, buildRequest(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: vision API request failed: %v", domain.ErrDetectionUnavailable, err)
	}

	return toDetections(resp)
}

func buildRequest(imageData []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LOGO_DETECTION},
				},
			},
		},
	}
}

// toDetections はAPIレスポンスを検出結果に変換します。ラベルが空の注釈は捨てます。
func toDetections(resp *visionpb.BatchAnnotateImagesResponse) ([]entity.Detection, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return []entity.Detection{}, nil
	}

	first := resp.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("%w: vision API error: %s", domain.ErrDetectionUnavailable, first.Error.Message)
	}

	detections := make([]entity.Detection, 0, len(first.LogoAnnotations))
	for _, logo := range first.LogoAnnotations {
		if logo.GetDescription() == "" {
			continue
		}
		detections = append(detections, entity.Detection{
			Label: logo.GetDescription(),
			Score: float64(logo.GetScore()),
		})
	}
	return detections, nil
}
