package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	brandusecase "inimage_backend/internal/feature/brandlinks/usecase"
	insightsusecase "inimage_backend/internal/feature/insights/usecase"
	"inimage_backend/internal/feature/scan/adapters/exif"
	"inimage_backend/internal/feature/scan/adapters/filestore"
	scanusecase "inimage_backend/internal/feature/scan/usecase"
	"inimage_backend/internal/platform/config"
	healthhandler "inimage_backend/internal/platform/http/handler"
	"inimage_backend/internal/platform/httpclient"
	"inimage_backend/internal/platform/metrics"
	platformredis "inimage_backend/internal/platform/redis"
)

// outboundTimeout はブランドリンクURLの取得やGemini呼び出しに使うHTTPクライアントのタイムアウトです。
const outboundTimeout = 30 * time.Second

// App は設定から組み立てたアプリケーションのコンポーネント一式です。
type App struct {
	Config     *config.Config
	Store      *filestore.Store
	Scan       *scanusecase.ScanUsecase
	BrandLinks *brandusecase.Reloadable
	Insights   *insightsusecase.InsightsUsecase
	Catalog    Catalog
	Metrics    *metrics.Recorder
	Health     *healthhandler.HealthHandler

	closers []func() error
}

// NewApp は設定に従ってすべての依存関係を生成します。
// 結果ディレクトリとカタログDBの初期化失敗のみをエラーとし、
// Redis・Vision・Gemini・ブランドリンクが使えない場合は機能を縮退させて起動します。
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := filestore.New(cfg.Scan.ResultsDir)
	if err != nil {
		return nil, err
	}
	a.Store = store

	// Redis（任意）
	rdb, err := platformredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		rdb = nil
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
	}

	// カタログ（任意）
	db, err := NewCatalogDB(cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
	}
	a.Catalog = NewCatalog(db)

	client := httpclient.New(outboundTimeout)

	detector, closeDetector := NewLogoDetector(ctx, cfg.Vision)
	a.closers = append(a.closers, closeDetector)

	a.BrandLinks = NewBrandLinks(ctx, cfg.BrandLinks, rdb, client)
	a.Metrics = metrics.NewRecorder()

	opts := []scanusecase.Option{
		scanusecase.WithMetrics(a.Metrics),
		scanusecase.WithWorkers(cfg.Scan.Workers),
	}
	if a.Catalog != nil {
		opts = append(opts, scanusecase.WithIndexer(a.Catalog))
	}
	a.Scan = scanusecase.NewScanUsecase(detector, exif.NewExtractor(), a.BrandLinks, store, opts...)

	analyzer := NewBrandAnalyzer(ctx, cfg.Gemini, rdb, client)
	a.Insights = insightsusecase.NewInsightsUsecase(NewSummarySource(a.Catalog, store), analyzer)

	a.Health = healthhandler.NewHealthHandler(HealthChecks(store.Dir(), detector, a.BrandLinks, rdb, db)...)

	return a, nil
}

// Close は生成したクライアントをすべて閉じます。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// HealthChecks は /healthz で確認する依存先を組み立てます。
// 結果ディレクトリに書き込めない場合のみ down とし、それ以外は degraded として扱います。
func HealthChecks(resultsDir string, detector scanusecase.LogoDetector, links scanusecase.BrandLinkResolver, rdb *redis.Client, db *gorm.DB) []healthhandler.Check {
	checks := []healthhandler.Check{
		{
			Name:     "results_dir",
			Critical: true,
			Run: func(context.Context) error {
				return checkWritableDir(resultsDir)
			},
		},
		{
			Name: "brand_links",
			Run: func(context.Context) error {
				return links.LoadError()
			},
		},
	}

	if d, ok := detector.(unavailableDetector); ok {
		checks = append(checks, healthhandler.Check{
			Name: "logo_detection",
			Run:  func(context.Context) error { return d.cause },
		})
	}
	if rdb != nil {
		checks = append(checks, healthhandler.Check{
			Name: "redis",
			Run:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	if db != nil {
		checks = append(checks, healthhandler.Check{
			Name: "database",
			Run: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
	}
	return checks
}

func checkWritableDir(dir string) error {
	f, err := os.CreateTemp(dir, ".healthz-*")
	if err != nil {
		return fmt.Errorf("results directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
