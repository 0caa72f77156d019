package filestore

import (
	"strconv"
	"time"

	"inimage_backend/internal/feature/scan/domain/entity"
)

// recordFile は結果ディレクトリに保存されるJSONのレイアウトです。
// ダッシュボード側はこのレイアウトのみを前提とします。
type recordFile struct {
	SchemaVersion  int               `json:"schema_version"`
	ID             string            `json:"id"`
	SourceFilename string            `json:"source_filename"`
	CreatedAt      time.Time         `json:"created_at"`
	Logos          []logoFile        `json:"logos"`
	Metadata       map[string]string `json:"metadata"`
	Warnings       []string          `json:"warnings"`
}

type logoFile struct {
	Label      string  `json:"label"`
	Confidence percent `json:"confidence"`
	Link       *string `json:"link"`
}

// percent は常に小数点以下2桁で書き出す信頼度です。値の丸めはレコード生成時に済んでいます。
type percent float64

// MarshalJSON は "91.00" のように2桁固定で出力します。
func (p percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 2, 64)), nil
}

func toFile(r entity.ScanRecord) recordFile {
	logos := make([]logoFile, 0, len(r.Logos))
	for _, l := range r.Logos {
		logos = append(logos, logoFile{
			Label:      l.Label,
			Confidence: percent(l.Confidence),
			Link:       l.Link,
		})
	}
	metadata := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}
	warnings := make([]string, 0, len(r.Warnings))
	warnings = append(warnings, r.Warnings...)

	return recordFile{
		SchemaVersion:  r.SchemaVersion,
		ID:             r.ID,
		SourceFilename: r.SourceFilename,
		CreatedAt:      r.CreatedAt.UTC(),
		Logos:          logos,
		Metadata:       metadata,
		Warnings:       warnings,
	}
}

func (f recordFile) toEntity() entity.ScanRecord {
	logos := make([]entity.DetectedLogo, 0, len(f.Logos))
	for _, l := range f.Logos {
		logos = append(logos, entity.DetectedLogo{
			Label:      l.Label,
			Confidence: float64(l.Confidence),
			Link:       l.Link,
		})
	}
	metadata := make(entity.MetadataSet, len(f.Metadata))
	for k, v := range f.Metadata {
		metadata[k] = v
	}
	warnings := make([]string, 0, len(f.Warnings))
	warnings = append(warnings, f.Warnings...)

	return entity.ScanRecord{
		SchemaVersion:  f.SchemaVersion,
		ID:             f.ID,
		SourceFilename: f.SourceFilename,
		CreatedAt:      f.CreatedAt.UTC(),
		Logos:          logos,
		Metadata:       metadata,
		Warnings:       warnings,
	}
}
