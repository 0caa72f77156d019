package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"inimage_backend/internal/feature/insights/adapters/cache"
	"inimage_backend/internal/feature/insights/adapters/catalog"
	"inimage_backend/internal/feature/insights/adapters/gemini"
	"inimage_backend/internal/feature/insights/adapters/recordscan"
	"inimage_backend/internal/feature/insights/usecase"
	scanusecase "inimage_backend/internal/feature/scan/usecase"
	"inimage_backend/internal/platform/config"
	platformdb "inimage_backend/internal/platform/db"
)

// Catalog はRDB上のスキャンカタログで、集計の読み出し元とパイプラインのインデクサを兼ねます。
type Catalog interface {
	usecase.SummarySource
	scanusecase.RecordIndexer
}

// NewCatalogDB は設定に応じてカタログ用のDBを開きます。Driver が空の場合は nil, nil を返します。
func NewCatalogDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Driver == "" {
		return nil, nil
	}
	db, err := platformdb.Open(platformdb.ConfigFrom(cfg), cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := catalog.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate catalog: %w", err)
		}
	}
	return db, nil
}

// NewCatalog はDBがあればカタログを返します。DBがnilの場合はnilです。
func NewCatalog(db *gorm.DB) Catalog {
	if db == nil {
		return nil
	}
	return catalog.New(db)
}

// NewSummarySource はダッシュボード集計の読み出し元を選択します。
// カタログがあればそれを、なければ結果ディレクトリを都度走査するソースを使います。
func NewSummarySource(cat Catalog, records recordscan.RecordReader) usecase.SummarySource {
	if cat != nil {
		return cat
	}
	return recordscan.New(records)
}

// NewBrandAnalyzer はGeminiのブランド分析器をRedisキャッシュ付きで生成します。
// 無効化されているか生成に失敗した場合はnilを返し、分析エンドポイントは利用不可になります。
func NewBrandAnalyzer(ctx context.Context, cfg config.GeminiConfig, rdb *redis.Client, client *http.Client) usecase.BrandAnalyzer {
	if !cfg.Enabled {
		return nil
	}
	analyzer, err := gemini.NewGeminiAnalyzer(ctx, gemini.Config{
		APIKey:     cfg.APIKey,
		Project:    cfg.Project,
		Location:   cfg.Location,
		Model:      cfg.Model,
		HTTPClient: client,
	})
	if err != nil {
		slog.Warn("brand analysis unavailable", "error", err)
		return nil
	}
	return cache.NewCachingBrandAnalyzer(rdb, cfg.CacheTTL, analyzer, "brand_analysis")
}

// ReindexResult はカタログ再構築の結果です。
type ReindexResult struct {
	Indexed int
	Skipped int
}

// Reindex は結果ディレクトリのすべてのレコードをカタログへ登録します。登録済みのレコードはそのままです。
// 読み込めないレコードはスキップして件数に数えます。
func Reindex(ctx context.Context, records recordscan.RecordReader, indexer scanusecase.RecordIndexer) (ReindexResult, error) {
	var res ReindexResult
	ids, err := records.List(ctx)
	if err != nil {
		return res, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := records.Load(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable record", "scan_id", id, "error", err)
			res.Skipped++
			continue
		}
		if err := indexer.Index(ctx, rec); err != nil {
			return res, fmt.Errorf("failed to index %s: %w", id, err)
		}
		res.Indexed++
	}
	return res, nil
}
