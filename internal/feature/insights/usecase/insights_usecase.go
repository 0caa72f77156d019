// Package usecase はinsightsフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"inimage_backend/internal/feature/insights/domain"
	"inimage_backend/internal/feature/insights/domain/entity"
	scanentity "inimage_backend/internal/feature/scan/domain/entity"
)

const (
	// AnalysisPromptTemplate はブランド分析のプロンプトテンプレートです。
	AnalysisPromptTemplate = "In a few sentences, describe the brand %s: what it sells, its audience, and how it is usually positioned in advertising."
	// MaxBrandNameLength はブランド名の最大文字数（rune数）です。
	MaxBrandNameLength = 100

	// EXIFのタグ名と欠損時の表示値
	TagDateTime     = "DateTime"
	TagModel        = "Model"
	MissingDateTime = "N/A"
	MissingCamera   = "Unknown"
)

// validBrandName はブランド名に許可される文字パターンです（英数字・各国語の文字・空白・記号の一部）。
var validBrandName = regexp.MustCompile(`^[\p{L}\p{N}\s・\-\.&,'’]+$`)

// SummarySource はレコード要約の読み出し元です。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SummarySource interface {
	// Summaries は全レコードの要約と、読み込めずに除外したレコード数を返します。
	Summaries(ctx context.Context) ([]entity.RecordSummary, int, error)
}

// BrandAnalyzer はブランド分析を生成するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type BrandAnalyzer interface {
	// Analyze はプロンプトから分析サマリーを生成します。
	Analyze(ctx context.Context, prompt string) (string, error)
}

// InsightsUsecase は保存済みレコードを横断した集計とブランド分析を提供します。
type InsightsUsecase struct {
	source   SummarySource
	analyzer BrandAnalyzer
}

// NewInsightsUsecase はInsightsUsecaseの新しいインスタンスを生成します。analyzer は nil でもかまいません。
func NewInsightsUsecase(source SummarySource, analyzer BrandAnalyzer) *InsightsUsecase {
	return &InsightsUsecase{source: source, analyzer: analyzer}
}

// Summarize はスキャンレコードから集計用の要約を作ります。
func Summarize(rec scanentity.ScanRecord) entity.RecordSummary {
	return entity.RecordSummary{
		ID:             rec.ID,
		SourceFilename: rec.SourceFilename,
		Labels:         rec.Labels(),
		DateTime:       rec.Metadata.Get(TagDateTime, ""),
		Camera:         rec.Metadata.Get(TagModel, ""),
	}
}

// BrandFrequency は全レコードでのブランドの出現回数を集計します。
func (u *InsightsUsecase) BrandFrequency(ctx context.Context) (entity.BrandFrequency, error) {
	summaries, skipped, err := u.source.Summaries(ctx)
	if err != nil {
		return entity.BrandFrequency{}, err
	}

	counts := make(map[string]int)
	for _, s := range summaries {
		for _, label := range s.Labels {
			counts[label]++
		}
	}

	brands := make([]entity.BrandCount, 0, len(counts))
	for brand, n := range counts {
		brands = append(brands, entity.BrandCount{Brand: brand, Count: n})
	}
	sort.Slice(brands, func(i, j int) bool {
		if brands[i].Count != brands[j].Count {
			return brands[i].Count > brands[j].Count
		}
		return brands[i].Brand < brands[j].Brand
	})

	return entity.BrandFrequency{Brands: brands, Scanned: len(summaries), Skipped: skipped}, nil
}

// MetadataOverview はレコードごとの撮影日時・カメラ・ブランドの一覧を返します。
func (u *InsightsUsecase) MetadataOverview(ctx context.Context) (entity.MetadataOverview, error) {
	summaries, skipped, err := u.source.Summaries(ctx)
	if err != nil {
		return entity.MetadataOverview{}, err
	}

	rows := make([]entity.MetadataRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, entity.MetadataRow{
			ID:       s.ID,
			Filename: s.SourceFilename,
			Brands:   strings.Join(s.Labels, ", "),
			DateTime: orDefault(s.DateTime, MissingDateTime),
			Camera:   orDefault(s.Camera, MissingCamera),
		})
	}
	return entity.MetadataOverview{Rows: rows, Scanned: len(summaries), Skipped: skipped}, nil
}

// AnalyzeBrand はブランド名から分析サマリーを生成します。
func (u *InsightsUsecase) AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error) {
	brandName = strings.TrimSpace(brandName)
	if brandName == "" {
		return nil, fmt.Errorf("%w: brand name is required", domain.ErrInvalidBrandName)
	}
	if utf8.RuneCountInString(brandName) > MaxBrandNameLength {
		return nil, fmt.Errorf("%w: brand name exceeds maximum length of %d characters", domain.ErrInvalidBrandName, MaxBrandNameLength)
	}
	if !validBrandName.MatchString(brandName) {
		return nil, fmt.Errorf("%w: brand name contains invalid characters", domain.ErrInvalidBrandName)
	}
	if u.analyzer == nil {
		return nil, fmt.Errorf("%w: no analyzer configured", domain.ErrAnalyzerUnavailable)
	}

	prompt := fmt.Sprintf(AnalysisPromptTemplate, brandName)
	summary, err := u.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: brand analyzer failed for %q: %w", domain.ErrAnalyzerUnavailable, brandName, err)
	}
	return &entity.BrandAnalysis{
		BrandName: brandName,
		Summary:   summary,
	}, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
