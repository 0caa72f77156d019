// Package catalog はスキャンレコードの要約をRDBに登録し、ダッシュボード集計の読み出し元として提供します。
package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inimage_backend/internal/feature/insights/domain"
	"inimage_backend/internal/feature/insights/domain/entity"
	"inimage_backend/internal/feature/insights/usecase"
	scanentity "inimage_backend/internal/feature/scan/domain/entity"
	scanusecase "inimage_backend/internal/feature/scan/usecase"
)

type catalog struct {
	db *gorm.DB
}

var (
	_ usecase.SummarySource     = (*catalog)(nil)
	_ scanusecase.RecordIndexer = (*catalog)(nil)
)

// New はカタログを生成します。
func New(db *gorm.DB) *catalog {
	return &catalog{db: db}
}

// AutoMigrate はカタログのテーブルを作成・更新します。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ScanSummaryModel{}, &LogoHitModel{})
}

// Index はレコードの要約を登録します。同じIDのレコードが既にあれば何もしません。
func (c *catalog) Index(ctx context.Context, rec scanentity.ScanRecord) error {
	s := usecase.Summarize(rec)
	row := ScanSummaryModel{
		ID:             s.ID,
		SourceFilename: s.SourceFilename,
		DateTime:       s.DateTime,
		Camera:         s.Camera,
		CreatedAt:      rec.CreatedAt.UTC(),
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Logos").Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to index scan %s: %w", rec.ID, res.Error)
		}
		if res.RowsAffected == 0 || len(rec.Logos) == 0 {
			return nil
		}

		hits := make([]LogoHitModel, 0, len(rec.Logos))
		for i, l := range rec.Logos {
			hits = append(hits, LogoHitModel{
				ScanID:     rec.ID,
				Position:   i,
				Label:      l.Label,
				Confidence: l.Confidence,
			})
		}
		if err := tx.Create(&hits).Error; err != nil {
			return fmt.Errorf("failed to index logos of scan %s: %w", rec.ID, err)
		}
		return nil
	})
}

// Summaries は登録済みの全要約をID順に返します。カタログの行は常に読めるため除外件数は0です。
func (c *catalog) Summaries(ctx context.Context) ([]entity.RecordSummary, int, error) {
	var rows []ScanSummaryModel
	err := c.db.WithContext(ctx).
		Preload("Logos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrSummaryUnavailable, err)
	}

	out := make([]entity.RecordSummary, 0, len(rows))
	for _, m := range rows {
		labels := make([]string, 0, len(m.Logos))
		for _, l := range m.Logos {
			labels = append(labels, l.Label)
		}
		out = append(out, entity.RecordSummary{
			ID:             m.ID,
			SourceFilename: m.SourceFilename,
			Labels:         labels,
			DateTime:       m.DateTime,
			Camera:         m.Camera,
		})
	}
	return out, 0, nil
}
