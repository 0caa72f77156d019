// Package usecase はscanフィーチャーのビジネスロジック（スキャンパイプライン）を実装します。
package usecase

import (
	"context"
	"time"

	"inimage_backend/internal/feature/scan/domain/entity"
)

// LogoDetector は画像からロゴを検出する外部サービスのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type LogoDetector interface {
	// DetectLogos は画像バイト列からロゴを検出します。
	// 失敗時は domain.ErrDetectionUnavailable をラップしたエラーを返します。
	DetectLogos(ctx context.Context, imageData []byte) ([]entity.Detection, error)
}

// MetadataExtractor は画像バイト列から埋め込みメタデータを読み取ります。
type MetadataExtractor interface {
	// Extract はメタデータを返します。メタデータがない場合は空のセットとnilを返します。
	// 破損している場合は読み取れた分のセットとエラーを同時に返します。
	Extract(ctx context.Context, imageData []byte) (entity.MetadataSet, error)
}

// BrandLinkResolver はブランド名から公式URLを解決します。
type BrandLinkResolver interface {
	Resolve(label string) (string, bool)
	// LoadError はリンクテーブルの読み込みに失敗して機能が縮退している場合にエラーを返します。
	LoadError() error
}

// ScanStore はスキャンレコードの永続化と読み出しを抽象化します。
type ScanStore interface {
	// Persist はレコードを原子的に保存し、保存先の識別子を返します。
	Persist(ctx context.Context, record entity.ScanRecord) (string, error)
	// List は保存済みレコードの識別子を古い順に返します。
	List(ctx context.Context) ([]string, error)
	// Load は識別子に対応するレコードを読み込みます。
	Load(ctx context.Context, id string) (entity.ScanRecord, error)
}

// RecordIndexer は永続化済みレコードを二次インデックス（ダッシュボード集計用）へ登録します。
type RecordIndexer interface {
	Index(ctx context.Context, record entity.ScanRecord) error
}

// MetricsRecorder はパイプラインの計測値を記録します。
type MetricsRecorder interface {
	ObserveDetection(elapsed time.Duration, err error)
	ObserveWarning(stage string)
	ObserveOutcome(status string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveDetection(time.Duration, error) {}
func (noopMetrics) ObserveWarning(string)                 {}
func (noopMetrics) ObserveOutcome(string)                 {}

type noLinks struct{}

func (noLinks) Resolve(string) (string, bool) { return "", false }
func (noLinks) LoadError() error              { return nil }
