package entity

import "time"

// SchemaVersion は永続化されるレコードのスキーマバージョンです。
const SchemaVersion = 1

// MetadataSet はタグ名から表示可能な文字列値へのマップです。
// 埋め込みメタデータがない場合は空のセットになります（エラーではありません）。
type MetadataSet map[string]string

// Get はタグの値を返します。存在しない場合は fallback を返します。
func (m MetadataSet) Get(tag, fallback string) string {
	if v, ok := m[tag]; ok && v != "" {
		return v
	}
	return fallback
}

// ScanRecord は1枚の画像を処理した結果で、永続化の単位です。
// 永続化後は不変で、再スキャンは新しいIDで新しいレコードを作成します。
type ScanRecord struct {
	SchemaVersion  int
	ID             string
	SourceFilename string
	CreatedAt      time.Time
	Logos          []DetectedLogo
	Metadata       MetadataSet
	Warnings       []string
}

// Labels は検出されたロゴのラベルを表示順に返します。
func (r ScanRecord) Labels() []string {
	out := make([]string, 0, len(r.Logos))
	for _, l := range r.Logos {
		out = append(out, l.Label)
	}
	return out
}
