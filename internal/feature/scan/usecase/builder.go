package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
)

// RecordBuilder は検出結果・ブランドリンク・メタデータを1つのスキャンレコードにまとめます。
type RecordBuilder struct {
	links BrandLinkResolver
	newID func() (string, error)
	now   func() time.Time
}

// NewRecordBuilder はRecordBuilderの新しいインスタンスを生成します。
// links が nil の場合、すべてのロゴは「リンクなし」になります。
func NewRecordBuilder(links BrandLinkResolver) *RecordBuilder {
	if links == nil {
		links = noLinks{}
	}
	return &RecordBuilder{links: links, newID: newRecordID, now: time.Now}
}

// newRecordID はUUIDv7でレコードIDを生成します。時刻順に並び、かつランダム部を含むため衝突しません。
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ToPercent は [0,1] のスコアを [0,100] のパーセントに変換し、小数点以下2桁に丸めます。
func ToPercent(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 100
}

// Build はスキャンレコードを生成します。IDと作成日時は呼び出しごとに新しく払い出されます。
// ブランドリンクはこの時点で文字列として確定し、後からテーブルが変わってもレコードは変化しません。
func (b *RecordBuilder) Build(sourceFilename string, detections []entity.Detection, metadata entity.MetadataSet, warnings []string) (entity.ScanRecord, error) {
	id, err := b.newID()
	if err != nil {
		return entity.ScanRecord{}, fmt.Errorf("%w: failed to generate record id: %v", domain.ErrPersistence, err)
	}

	logos := make([]entity.DetectedLogo, 0, len(detections))
	for _, d := range detections {
		logo := entity.DetectedLogo{
			Label:      d.Label,
			Confidence: ToPercent(d.Score),
		}
		if url, ok := b.links.Resolve(d.Label); ok {
			logo.Link = &url
		}
		logos = append(logos, logo)
	}
	// 表示優先度のためだけの並び替え
	sort.SliceStable(logos, func(i, j int) bool {
		return logos[i].Confidence > logos[j].Confidence
	})

	md := make(entity.MetadataSet, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	ws := make([]string, 0, len(warnings))
	ws = append(ws, warnings...)

	return entity.ScanRecord{
		SchemaVersion:  entity.SchemaVersion,
		ID:             id,
		SourceFilename: sourceFilename,
		CreatedAt:      b.now().UTC(),
		Logos:          logos,
		Metadata:       md,
		Warnings:       ws,
	}, nil
}
