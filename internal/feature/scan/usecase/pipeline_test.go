package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brandlinks "inimage_backend/internal/feature/brandlinks/usecase"
	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

// ErrNetwork はモックと期待値の間で共有されるセンチネルエラーです。
var ErrNetwork = errors.New("dial tcp: connection refused")

// mockLogoDetector はLogoDetectorインターフェースのモック実装です。
type mockLogoDetector struct {
	DetectLogosFunc  func(ctx context.Context, imageData []byte) ([]entity.Detection, error)
	DetectLogosCalls atomic.Int32
}

func (m *mockLogoDetector) DetectLogos(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	m.DetectLogosCalls.Add(1)
	if m.DetectLogosFunc != nil {
		return m.DetectLogosFunc(ctx, imageData)
	}
	return nil, nil
}

// mockMetadataExtractor はMetadataExtractorインターフェースのモック実装です。
type mockMetadataExtractor struct {
	ExtractFunc func(ctx context.Context, imageData []byte) (entity.MetadataSet, error)
}

func (m *mockMetadataExtractor) Extract(ctx context.Context, imageData []byte) (entity.MetadataSet, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, imageData)
	}
	return entity.MetadataSet{}, nil
}

// degradedLinks は読み込みに失敗したリンクテーブルを模倣します。
type degradedLinks struct{}

func (degradedLinks) Resolve(string) (string, bool) { return "", false }
func (degradedLinks) LoadError() error              { return errors.New("open brand_links.json: no such file or directory") }

// memoryStore はテスト用のインメモリScanStoreです。
type memoryStore struct {
	mu          sync.Mutex
	records     map[string]entity.ScanRecord
	order       []string
	PersistFunc func(record entity.ScanRecord) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]entity.ScanRecord{}}
}

func (s *memoryStore) Persist(ctx context.Context, record entity.ScanRecord) (string, error) {
	if s.PersistFunc != nil {
		if err := s.PersistFunc(record); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return "", fmt.Errorf("duplicate id %s", record.ID)
	}
	s.records[record.ID] = record
	s.order = append(s.order, record.ID)
	return record.ID, nil
}

func (s *memoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...), nil
}

func (s *memoryStore) Load(ctx context.Context, id string) (entity.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return entity.ScanRecord{}, fmt.Errorf("%w: %w", domain.ErrRecordUnavailable, domain.ErrRecordNotFound)
	}
	return r, nil
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// mockIndexer はRecordIndexerインターフェースのモック実装です。
type mockIndexer struct {
	mu      sync.Mutex
	indexed []string
	err     error
}

func (m *mockIndexer) Index(ctx context.Context, record entity.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, record.ID)
	return m.err
}

func nikeDetector() *mockLogoDetector {
	return &mockLogoDetector{
		DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
			return []entity.Detection{{Label: "Nike", Score: 0.91}}, nil
		},
	}
}

func TestScanUsecase_ScanImage_NikeScenario(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	links := brandlinks.NewTable(map[string]string{"nike": "https://nike.com"})
	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, links, store)

	out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "shoe.jpg", Data: []byte("fake-image")})

	require.Equal(t, usecase.StatusCompleted, out.Status)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Record)
	assert.Equal(t, out.Record.ID, out.Location)
	assert.Equal(t, "shoe.jpg", out.Record.SourceFilename)

	require.Len(t, out.Record.Logos, 1)
	logo := out.Record.Logos[0]
	assert.Equal(t, "Nike", logo.Label)
	assert.Equal(t, 91.0, logo.Confidence)
	require.NotNil(t, logo.Link)
	assert.Equal(t, "https://nike.com", *logo.Link)
	assert.Empty(t, out.Record.Metadata)
	assert.Empty(t, out.Record.Warnings)

	stored, err := store.Load(context.Background(), out.Location)
	require.NoError(t, err)
	assert.Equal(t, *out.Record, stored)
}

func TestScanUsecase_ScanImage_StageFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		detectFunc   func(ctx context.Context, imageData []byte) ([]entity.Detection, error)
		extractFunc  func(ctx context.Context, imageData []byte) (entity.MetadataSet, error)
		wantLogos    int
		wantMetadata entity.MetadataSet
		wantWarnings []string
	}{
		{
			name: "detection network error keeps metadata",
			detectFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
				return nil, ErrNetwork
			},
			extractFunc: func(ctx context.Context, imageData []byte) (entity.MetadataSet, error) {
				return entity.MetadataSet{"Model": "D50", "DateTime": "2024:01:02 03:04:05"}, nil
			},
			wantLogos:    0,
			wantMetadata: entity.MetadataSet{"Model": "D50", "DateTime": "2024:01:02 03:04:05"},
			wantWarnings: []string{"detection unavailable: dial tcp: connection refused"},
		},
		{
			name: "already typed detection error is not double wrapped",
			detectFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
				return nil, fmt.Errorf("%w: quota exceeded", domain.ErrDetectionUnavailable)
			},
			wantLogos:    0,
			wantMetadata: entity.MetadataSet{},
			wantWarnings: []string{"detection unavailable: quota exceeded"},
		},
		{
			name: "metadata failure keeps logos",
			detectFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
				return []entity.Detection{{Label: "Nike", Score: 0.91}}, nil
			},
			extractFunc: func(ctx context.Context, imageData []byte) (entity.MetadataSet, error) {
				return entity.MetadataSet{"Make": "Nikon"}, errors.New("ifd offset out of range")
			},
			wantLogos:    1,
			wantMetadata: entity.MetadataSet{"Make": "Nikon"},
			wantWarnings: []string{"metadata unreadable: ifd offset out of range"},
		},
		{
			name: "both stages fail",
			detectFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
				return nil, ErrNetwork
			},
			extractFunc: func(ctx context.Context, imageData []byte) (entity.MetadataSet, error) {
				return nil, errors.New("truncated")
			},
			wantLogos:    0,
			wantMetadata: entity.MetadataSet{},
			wantWarnings: []string{
				"detection unavailable: dial tcp: connection refused",
				"metadata unreadable: truncated",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			uc := usecase.NewScanUsecase(
				&mockLogoDetector{DetectLogosFunc: tt.detectFunc},
				&mockMetadataExtractor{ExtractFunc: tt.extractFunc},
				nil,
				store,
			)

			out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "photo.png", Data: []byte("img")})

			require.Equal(t, usecase.StatusCompleted, out.Status)
			require.NotNil(t, out.Record)
			assert.Len(t, out.Record.Logos, tt.wantLogos)
			assert.Equal(t, tt.wantMetadata, out.Record.Metadata)
			assert.Equal(t, tt.wantWarnings, out.Record.Warnings)
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestScanUsecase_ScanImage_DegradedBrandLinks(t *testing.T) {
	t.Parallel()

	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, degradedLinks{}, newMemoryStore())

	out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "shoe.jpg", Data: []byte("img")})

	require.Equal(t, usecase.StatusCompleted, out.Status)
	require.Len(t, out.Record.Logos, 1)
	assert.Nil(t, out.Record.Logos[0].Link)
	require.Len(t, out.Record.Warnings, 1)
	assert.True(t, strings.HasPrefix(out.Record.Warnings[0], "brand links unavailable: "))
}

func TestScanUsecase_ScanImage_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		upload usecase.Upload
	}{
		{"empty data", usecase.Upload{Filename: "a.jpg"}},
		{"unsupported extension", usecase.Upload{Filename: "a.gif", Data: []byte("img")}},
		{"no extension", usecase.Upload{Filename: "a", Data: []byte("img")}},
		{"too large", usecase.Upload{Filename: "a.jpeg", Data: make([]byte, usecase.MaxImageSize+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			detector := &mockLogoDetector{}
			store := newMemoryStore()
			uc := usecase.NewScanUsecase(detector, &mockMetadataExtractor{}, nil, store)

			out := uc.ScanImage(context.Background(), tt.upload)

			assert.Equal(t, usecase.StatusRejected, out.Status)
			assert.True(t, errors.Is(out.Err, domain.ErrInvalidImage))
			assert.Nil(t, out.Record)
			assert.Equal(t, int32(0), detector.DetectLogosCalls.Load())
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestScanUsecase_ScanImage_UppercaseExtensionAccepted(t *testing.T) {
	t.Parallel()

	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, newMemoryStore())
	out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "IMG_0001.JPG", Data: []byte("img")})
	assert.Equal(t, usecase.StatusCompleted, out.Status)
}

func TestScanUsecase_ScanBatch_PersistenceFailureIsIsolated(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.PersistFunc = func(record entity.ScanRecord) error {
		if record.SourceFilename == "broken.jpg" {
			return errors.New("no space left on device")
		}
		return nil
	}
	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, store, usecase.WithWorkers(1))

	outcomes := uc.ScanBatch(context.Background(), []usecase.Upload{
		{Filename: "first.jpg", Data: []byte("1")},
		{Filename: "broken.jpg", Data: []byte("2")},
		{Filename: "third.jpg", Data: []byte("3")},
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, usecase.StatusCompleted, outcomes[0].Status)
	assert.Equal(t, usecase.StatusFailed, outcomes[1].Status)
	assert.True(t, errors.Is(outcomes[1].Err, domain.ErrPersistence))
	assert.Nil(t, outcomes[1].Record)
	assert.Equal(t, usecase.StatusCompleted, outcomes[2].Status)
	assert.Equal(t, 2, store.Len())
}

func TestScanUsecase_ScanBatch_SameImageTwiceGetsDistinctRecords(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, store, usecase.WithWorkers(8))

	uploads := make([]usecase.Upload, 0, 50)
	for i := 0; i < 50; i++ {
		uploads = append(uploads, usecase.Upload{Filename: "shoe.jpg", Data: []byte("same-bytes")})
	}
	outcomes := uc.ScanBatch(context.Background(), uploads)

	ids := map[string]struct{}{}
	for i, out := range outcomes {
		require.Equal(t, usecase.StatusCompleted, out.Status, "outcome %d", i)
		ids[out.Record.ID] = struct{}{}
	}
	assert.Len(t, ids, 50)
	assert.Equal(t, 50, store.Len())
}

func TestScanUsecase_ScanBatch_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, newMemoryStore(), usecase.WithWorkers(4))

	uploads := []usecase.Upload{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.gif", Data: []byte("b")},
		{Filename: "c.png", Data: []byte("c")},
	}
	outcomes := uc.ScanBatch(context.Background(), uploads)

	require.Len(t, outcomes, 3)
	for i, up := range uploads {
		assert.Equal(t, up.Filename, outcomes[i].SourceFilename)
	}
	assert.Equal(t, usecase.StatusRejected, outcomes[1].Status)
}

func TestScanUsecase_ScanBatch_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detector := nikeDetector()
	store := newMemoryStore()
	uc := usecase.NewScanUsecase(detector, &mockMetadataExtractor{}, nil, store)

	outcomes := uc.ScanBatch(ctx, []usecase.Upload{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("b")},
	})

	for _, out := range outcomes {
		assert.Equal(t, usecase.StatusCancelled, out.Status)
		assert.True(t, errors.Is(out.Err, context.Canceled))
	}
	assert.Equal(t, int32(0), detector.DetectLogosCalls.Load())
	assert.Equal(t, 0, store.Len())
}

func TestScanUsecase_ScanBatch_CancelMidBatchKeepsPersistedRecords(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detector := &mockLogoDetector{
		DetectLogosFunc: func(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
			if string(imageData) == "stop" {
				cancel()
				return nil, ctx.Err()
			}
			return []entity.Detection{{Label: "Nike", Score: 0.5}}, nil
		},
	}
	store := newMemoryStore()
	uc := usecase.NewScanUsecase(detector, &mockMetadataExtractor{}, nil, store, usecase.WithWorkers(1))

	outcomes := uc.ScanBatch(ctx, []usecase.Upload{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("stop")},
		{Filename: "c.jpg", Data: []byte("c")},
	})

	assert.Equal(t, usecase.StatusCompleted, outcomes[0].Status)
	assert.Equal(t, usecase.StatusCancelled, outcomes[1].Status)
	assert.Equal(t, usecase.StatusCancelled, outcomes[2].Status)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, outcomes[0].Record.ID, ids[0])
}

func TestScanUsecase_ScanImage_IndexerFailureDoesNotFailScan(t *testing.T) {
	t.Parallel()

	ix := &mockIndexer{err: errors.New("database is locked")}
	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, newMemoryStore(), usecase.WithIndexer(ix))

	out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "shoe.jpg", Data: []byte("img")})

	assert.Equal(t, usecase.StatusCompleted, out.Status)
	assert.Equal(t, []string{out.Record.ID}, ix.indexed)
}

func TestScanUsecase_GetRecord(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	uc := usecase.NewScanUsecase(nikeDetector(), &mockMetadataExtractor{}, nil, store)
	out := uc.ScanImage(context.Background(), usecase.Upload{Filename: "shoe.jpg", Data: []byte("img")})

	ids, err := uc.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{out.Record.ID}, ids)

	got, err := uc.GetRecord(context.Background(), out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, *out.Record, got)

	_, err = uc.GetRecord(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrRecordUnavailable))
}
