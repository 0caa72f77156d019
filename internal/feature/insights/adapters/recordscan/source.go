// Package recordscan は結果ディレクトリのレコードを都度読み込んで要約を作るSummarySourceです。
package recordscan

import (
	"context"
	"fmt"
	"log/slog"

	"inimage_backend/internal/feature/insights/domain"
	"inimage_backend/internal/feature/insights/domain/entity"
	"inimage_backend/internal/feature/insights/usecase"
	scanentity "inimage_backend/internal/feature/scan/domain/entity"
)

// RecordReader はスキャンレコードの読み出し元です（scanフィーチャーのストアが満たします）。
type RecordReader interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (scanentity.ScanRecord, error)
}

// Source はRecordReaderを走査するSummarySource実装です。
type Source struct {
	records RecordReader
}

// SourceがSummarySourceを実装していることをコンパイル時に検証します。
var _ usecase.SummarySource = (*Source)(nil)

// New はSourceを生成します。
func New(records RecordReader) *Source {
	return &Source{records: records}
}

// Summaries は全レコードを読み込みます。読み込めないレコードは除外して件数のみ数えます。
func (s *Source) Summaries(ctx context.Context) ([]entity.RecordSummary, int, error) {
	ids, err := s.records.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrSummaryUnavailable, err)
	}

	summaries := make([]entity.RecordSummary, 0, len(ids))
	skipped := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		rec, err := s.records.Load(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable scan record", "scan_id", id, "error", err)
			skipped++
			continue
		}
		summaries = append(summaries, usecase.Summarize(rec))
	}
	return summaries, skipped, nil
}
