package di

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inimage_backend/internal/feature/brandlinks/adapters/jsonsource"
	"inimage_backend/internal/feature/brandlinks/adapters/redissource"
	brandusecase "inimage_backend/internal/feature/brandlinks/usecase"
	"inimage_backend/internal/feature/insights/adapters/recordscan"
	"inimage_backend/internal/feature/scan/adapters/filestore"
	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/platform/config"
)

func TestUnavailableDetector(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad credentials")
	d := unavailableDetector{cause: cause}

	got, err := d.DetectLogos(context.Background(), []byte("img"))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrDetectionUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestNewLogoDetector_InvalidCredentialsFallsBack(t *testing.T) {
	t.Parallel()

	detector, closeFn := NewLogoDetector(context.Background(), config.VisionConfig{CredentialsJSON: "not json"})
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())

	_, ok := detector.(unavailableDetector)
	require.True(t, ok, "expected fallback detector, got %T", detector)

	_, err := detector.DetectLogos(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, domain.ErrDetectionUnavailable)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewBrandLinkSource(t *testing.T) {
	t.Parallel()

	rdb, _ := redismock.NewClientMock()

	tests := []struct {
		name     string
		cfg      config.BrandLinksConfig
		withRDB  bool
		wantType string
	}{
		{"nothing configured", config.BrandLinksConfig{}, true, "nil"},
		{"redis key with redis", config.BrandLinksConfig{RedisKey: "brandlinks", Source: "links.json"}, true, "redis"},
		{"redis key without redis falls back to json", config.BrandLinksConfig{RedisKey: "brandlinks", Source: "links.json"}, false, "json"},
		{"redis key without redis or json", config.BrandLinksConfig{RedisKey: "brandlinks"}, false, "nil"},
		{"json only", config.BrandLinksConfig{Source: "https://example.com/links.json"}, false, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := rdb
			if !tt.withRDB {
				client = nil
			}
			src := NewBrandLinkSource(tt.cfg, client, http.DefaultClient)

			switch tt.wantType {
			case "nil":
				assert.Nil(t, src)
			case "redis":
				assert.IsType(t, &redissource.Source{}, src)
			case "json":
				assert.IsType(t, &jsonsource.Source{}, src)
			}
		})
	}
}

func TestNewBrandLinks_NoSource(t *testing.T) {
	t.Parallel()

	links := NewBrandLinks(context.Background(), config.BrandLinksConfig{}, nil, http.DefaultClient)

	assert.NoError(t, links.LoadError())
	assert.Equal(t, 0, links.Len())
	_, err := links.Reload(context.Background())
	assert.Error(t, err)
}

func TestNewSummarySource(t *testing.T) {
	t.Parallel()

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	t.Run("without catalog scans the store", func(t *testing.T) {
		t.Parallel()
		assert.IsType(t, &recordscan.Source{}, NewSummarySource(nil, store))
	})

	t.Run("with catalog uses it", func(t *testing.T) {
		t.Parallel()
		db, err := NewCatalogDB(sqliteConfig(t))
		require.NoError(t, err)
		cat := NewCatalog(db)
		assert.Same(t, cat, NewSummarySource(cat, store))
	})
}

func TestNewCatalogDB(t *testing.T) {
	t.Parallel()

	db, err := NewCatalogDB(config.DatabaseConfig{})
	assert.NoError(t, err)
	assert.Nil(t, db)
	assert.Nil(t, NewCatalog(db))

	_, err = NewCatalogDB(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewBrandAnalyzer_Disabled(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewBrandAnalyzer(context.Background(), config.GeminiConfig{Enabled: false}, nil, http.DefaultClient))
}

func TestReindex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	ids := make([]string, 0, 2)
	for _, name := range []string{"a.jpg", "b.png"} {
		rec := entity.ScanRecord{
			SchemaVersion:  entity.SchemaVersion,
			ID:             uuid.Must(uuid.NewV7()).String(),
			SourceFilename: name,
			CreatedAt:      time.Now().UTC(),
			Logos:          []entity.DetectedLogo{{Label: "Nike", Confidence: 91}},
			Metadata:       entity.MetadataSet{"Model": "D50"},
		}
		_, err := store.Persist(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	db, err := NewCatalogDB(sqliteConfig(t))
	require.NoError(t, err)
	cat := NewCatalog(db)

	res, err := Reindex(ctx, store, cat)
	require.NoError(t, err)
	assert.Equal(t, ReindexResult{Indexed: 2}, res)

	// 2回目も登録済みのレコードは変化しない
	res, err = Reindex(ctx, store, cat)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)

	summaries, skipped, err := cat.Summaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, summaries, 2)
	assert.Equal(t, ids[0], summaries[0].ID)
	assert.Equal(t, []string{"Nike"}, summaries[0].Labels)
}

func TestHealthChecks(t *testing.T) {
	t.Parallel()

	links := brandusecase.NewReloadable(context.Background(), nil)
	rdb, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	dir := t.TempDir()
	checks := HealthChecks(dir, unavailableDetector{cause: errors.New("no credentials")}, links, rdb, nil)

	got := map[string]error{}
	critical := map[string]bool{}
	for _, c := range checks {
		got[c.Name] = c.Run(context.Background())
		critical[c.Name] = c.Critical
	}

	assert.NoError(t, got["results_dir"])
	assert.True(t, critical["results_dir"])
	assert.NoError(t, got["brand_links"])
	assert.EqualError(t, got["logo_detection"], "no credentials")
	assert.NoError(t, got["redis"])
	_, hasDB := got["database"]
	assert.False(t, hasDB)
	assert.NoError(t, mock.ExpectationsWereMet())

	missing := HealthChecks(filepath.Join(dir, "missing"), nil, links, nil, nil)
	assert.Error(t, missing[0].Run(context.Background()))
}

func TestNewApp_Minimal(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Scan:   config.ScanConfig{ResultsDir: filepath.Join(t.TempDir(), "results"), Workers: 2},
		Vision: config.VisionConfig{CredentialsJSON: "not json", Timeout: time.Second},
	}

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Catalog)
	assert.NotNil(t, app.Scan)
	assert.NotNil(t, app.Insights)
	assert.NotNil(t, app.Health)
	assert.Equal(t, cfg.Scan.ResultsDir, app.Store.Dir())
}

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           filepath.Join(t.TempDir(), "catalog.db"),
		ConnectTimeout: time.Second,
		AutoMigrate:    true,
	}
}
