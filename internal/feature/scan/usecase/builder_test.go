package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
)

// mapLinks はテスト用の完全一致リンクテーブルです。
type mapLinks map[string]string

func (m mapLinks) Resolve(label string) (string, bool) {
	u, ok := m[label]
	return u, ok
}

func (m mapLinks) LoadError() error { return nil }

func TestToPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  float64
	}{
		{0.91, 91},
		{0.9123, 91.23},
		{0.0, 0},
		{1.0, 100},
		{0.33333333, 33.33},
		{0.005, 0.5},
		{-0.2, 0},
		{1.7, 100},
	}

	for _, tt := range tests {
		got := ToPercent(tt.score)
		assert.InDelta(t, tt.want, got, 1e-9, "score %v", tt.score)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestToPercent_TwoDecimalPrecision(t *testing.T) {
	t.Parallel()

	for i := 0; i <= 1000; i++ {
		score := float64(i) / 997
		if score > 1 {
			score = 1
		}
		got := ToPercent(score)
		scaled := got * 100
		assert.InDelta(t, float64(int64(scaled+0.5)), scaled, 1e-6, "score %v produced %v", score, got)
	}
}

func TestRecordBuilder_Build(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	b := NewRecordBuilder(mapLinks{"Nike": "https://nike.com"})
	b.now = func() time.Time { return fixed }
	b.newID = func() (string, error) { return "0192a0c4-0000-7000-8000-000000000001", nil }

	metadata := entity.MetadataSet{"Model": "D50"}
	rec, err := b.Build("shoe.jpg", []entity.Detection{
		{Label: "Adidas", Score: 0.42},
		{Label: "Nike", Score: 0.91},
	}, metadata, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.SchemaVersion, rec.SchemaVersion)
	assert.Equal(t, "0192a0c4-0000-7000-8000-000000000001", rec.ID)
	assert.Equal(t, "shoe.jpg", rec.SourceFilename)
	assert.Equal(t, fixed.UTC(), rec.CreatedAt)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())

	require.Len(t, rec.Logos, 2)
	assert.Equal(t, "Nike", rec.Logos[0].Label)
	assert.Equal(t, 91.0, rec.Logos[0].Confidence)
	require.NotNil(t, rec.Logos[0].Link)
	assert.Equal(t, "https://nike.com", *rec.Logos[0].Link)
	assert.Equal(t, "Adidas", rec.Logos[1].Label)
	assert.False(t, rec.Logos[1].HasLink())

	assert.NotNil(t, rec.Warnings)
	assert.Empty(t, rec.Warnings)

	// 入力のメタデータを変更してもレコードには影響しない
	metadata["Model"] = "changed"
	assert.Equal(t, "D50", rec.Metadata["Model"])
}

func TestRecordBuilder_Build_FreshIdentifiers(t *testing.T) {
	t.Parallel()

	b := NewRecordBuilder(nil)
	seen := map[string]struct{}{}
	for i := 0; i < 500; i++ {
		rec, err := b.Build("same.jpg", nil, entity.MetadataSet{}, nil)
		require.NoError(t, err)
		_, dup := seen[rec.ID]
		require.False(t, dup, "duplicate id %s", rec.ID)
		seen[rec.ID] = struct{}{}
	}
}

func TestRecordBuilder_Build_IDFailure(t *testing.T) {
	t.Parallel()

	b := NewRecordBuilder(nil)
	b.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := b.Build("a.jpg", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}
