package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
)

const (
	// MaxImageSize は1画像あたりの最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
	// DefaultWorkers はバッチ処理の既定の並列数です。
	DefaultWorkers = 4
)

// パイプラインのステージ名（警告・メトリクスのラベルとして使用）
const (
	StageDetection  = "detection"
	StageMetadata   = "metadata"
	StageBrandLinks = "brand_links"
)

// allowedExtensions は受け付ける画像の拡張子です（内容のスニッフィングは行いません）。
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Status は1画像のスキャン結果の状態です。
type Status string

const (
	StatusCompleted Status = "completed" // レコードが永続化された
	StatusFailed    Status = "failed"    // 永続化できなかった
	StatusRejected  Status = "rejected"  // 入力が不正で処理しなかった
	StatusCancelled Status = "cancelled" // バッチがキャンセルされ処理しなかった
)

// Upload はアップロードされた1画像です。
type Upload struct {
	Filename string
	Data     []byte
}

// ScanOutcome は1画像の処理結果です。完了したレコードか、区別可能な失敗のどちらかを必ず持ちます。
type ScanOutcome struct {
	SourceFilename string
	Status         Status
	Record         *entity.ScanRecord
	Location       string
	Err            error
}

// ScanUsecase はアップロード画像ごとに
// 検出 → メタデータ抽出 → レコード生成 → 永続化 を行うパイプラインです。
type ScanUsecase struct {
	detector  LogoDetector
	extractor MetadataExtractor
	links     BrandLinkResolver
	builder   *RecordBuilder
	store     ScanStore
	indexer   RecordIndexer
	metrics   MetricsRecorder
	workers   int
}

// Option はScanUsecaseの任意設定です。
type Option func(*ScanUsecase)

// WithIndexer は永続化後にレコードを登録するインデクサを設定します。
func WithIndexer(ix RecordIndexer) Option {
	return func(u *ScanUsecase) { u.indexer = ix }
}

// WithMetrics はメトリクスの記録先を設定します。
func WithMetrics(m MetricsRecorder) Option {
	return func(u *ScanUsecase) {
		if m != nil {
			u.metrics = m
		}
	}
}

// WithWorkers はバッチ処理の並列数を設定します。
func WithWorkers(n int) Option {
	return func(u *ScanUsecase) {
		if n > 0 {
			u.workers = n
		}
	}
}

// withBuilder はテスト用にレコードビルダーを差し替えます。
func withBuilder(b *RecordBuilder) Option {
	return func(u *ScanUsecase) { u.builder = b }
}

// NewScanUsecase はScanUsecaseの新しいインスタンスを生成します。
func NewScanUsecase(detector LogoDetector, extractor MetadataExtractor, links BrandLinkResolver, store ScanStore, opts ...Option) *ScanUsecase {
	if links == nil {
		links = noLinks{}
	}
	u := &ScanUsecase{
		detector:  detector,
		extractor: extractor,
		links:     links,
		builder:   NewRecordBuilder(links),
		store:     store,
		metrics:   noopMetrics{},
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ValidateUpload はアップロード画像の基本的な検証を行います。
func ValidateUpload(up Upload) error {
	if len(up.Data) == 0 {
		return fmt.Errorf("%w: image data is empty", domain.ErrInvalidImage)
	}
	if len(up.Data) > MaxImageSize {
		return fmt.Errorf("%w: image size exceeds maximum of %d bytes", domain.ErrInvalidImage, MaxImageSize)
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidImage, ext)
	}
	return nil
}

// ScanBatch は複数画像を独立に処理します。結果は入力と同じ順序で返ります。
// ある画像の失敗が他の画像の処理を妨げることはありません。
// ctx がキャンセルされた場合、まだ開始していない画像は StatusCancelled になります。
func (u *ScanUsecase) ScanBatch(ctx context.Context, uploads []Upload) []ScanOutcome {
	outcomes := make([]ScanOutcome, len(uploads))

	var g errgroup.Group
	g.SetLimit(u.workers)
	for i, up := range uploads {
		if err := ctx.Err(); err != nil {
			outcomes[i] = u.finish(cancelled(up.Filename, err))
			continue
		}
		g.Go(func() error {
			outcomes[i] = u.ScanImage(ctx, up)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// ScanImage は1画像を処理します。
// 検出・メタデータ抽出の失敗は警告として記録して先へ進み、永続化の失敗のみを失敗として返します。
func (u *ScanUsecase) ScanImage(ctx context.Context, up Upload) ScanOutcome {
	if err := ValidateUpload(up); err != nil {
		return u.finish(ScanOutcome{SourceFilename: up.Filename, Status: StatusRejected, Err: err})
	}
	if err := ctx.Err(); err != nil {
		return u.finish(cancelled(up.Filename, err))
	}

	log := slog.With("source_filename", up.Filename)
	var warnings []string

	// Detecting
	detections, err := u.detect(ctx, up.Data)
	if err != nil {
		log.Warn("logo detection failed", "stage", StageDetection, "error", err)
		warnings = append(warnings, asStageError(domain.ErrDetectionUnavailable, err).Error())
		u.metrics.ObserveWarning(StageDetection)
		detections = nil
	}

	// ExtractingMetadata
	metadata, err := u.extractor.Extract(ctx, up.Data)
	if err != nil {
		log.Warn("metadata extraction failed", "stage", StageMetadata, "error", err)
		warnings = append(warnings, asStageError(domain.ErrMetadataUnreadable, err).Error())
		u.metrics.ObserveWarning(StageMetadata)
	}
	if metadata == nil {
		metadata = entity.MetadataSet{}
	}

	if err := u.links.LoadError(); err != nil {
		warnings = append(warnings, fmt.Sprintf("brand links unavailable: %v", err))
		u.metrics.ObserveWarning(StageBrandLinks)
	}

	// 検出中にキャンセルされた場合は中途半端なレコードを残さない
	if err := ctx.Err(); err != nil {
		return u.finish(cancelled(up.Filename, err))
	}

	// Building
	record, err := u.builder.Build(up.Filename, detections, metadata, warnings)
	if err != nil {
		log.Error("failed to build scan record", "error", err)
		return u.finish(ScanOutcome{SourceFilename: up.Filename, Status: StatusFailed, Err: err})
	}

	// Persisted
	location, err := u.store.Persist(ctx, record)
	if err != nil {
		err = asStageError(domain.ErrPersistence, err)
		log.Error("failed to persist scan record", "scan_id", record.ID, "error", err)
		return u.finish(ScanOutcome{SourceFilename: up.Filename, Status: StatusFailed, Err: err})
	}

	if u.indexer != nil {
		if err := u.indexer.Index(ctx, record); err != nil {
			log.Warn("failed to index scan record", "scan_id", record.ID, "error", err)
		}
	}

	log.Info("scan completed", "scan_id", record.ID, "logos", len(record.Logos), "warnings", len(record.Warnings))
	return u.finish(ScanOutcome{
		SourceFilename: up.Filename,
		Status:         StatusCompleted,
		Record:         &record,
		Location:       location,
	})
}

// ListRecords は保存済みレコードの識別子を返します。
func (u *ScanUsecase) ListRecords(ctx context.Context) ([]string, error) {
	return u.store.List(ctx)
}

// GetRecord は識別子に対応するレコードを返します。
func (u *ScanUsecase) GetRecord(ctx context.Context, id string) (entity.ScanRecord, error) {
	return u.store.Load(ctx, id)
}

func (u *ScanUsecase) detect(ctx context.Context, data []byte) ([]entity.Detection, error) {
	start := time.Now()
	detections, err := u.detector.DetectLogos(ctx, data)
	u.metrics.ObserveDetection(time.Since(start), err)
	return detections, err
}

func (u *ScanUsecase) finish(out ScanOutcome) ScanOutcome {
	u.metrics.ObserveOutcome(string(out.Status))
	return out
}

func cancelled(filename string, err error) ScanOutcome {
	return ScanOutcome{SourceFilename: filename, Status: StatusCancelled, Err: err}
}

// asStageError は err が sentinel をラップしていなければ "sentinel: err" の形に包みます。
func asStageError(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
