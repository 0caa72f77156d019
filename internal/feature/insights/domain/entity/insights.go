package entity

// RecordSummary はダッシュボード集計に必要なレコードの要約です。
// DateTime・Camera はEXIFの値そのままで、存在しない場合は空文字です。
type RecordSummary struct {
	ID             string
	SourceFilename string
	Labels         []string // 検出されたロゴのラベル（重複あり）
	DateTime       string
	Camera         string
}

// BrandCount は1ブランドの出現回数です。
type BrandCount struct {
	Brand string
	Count int
}

// BrandFrequency は全レコードにわたるブランドの出現頻度です。
type BrandFrequency struct {
	Brands  []BrandCount // 出現回数の降順、同数はラベルの昇順
	Scanned int          // 集計に含めたレコード数
	Skipped int          // 読み込めずに除外したレコード数
}

// MetadataRow はメタデータ一覧の1行です。
type MetadataRow struct {
	ID       string
	Filename string
	Brands   string // カンマ区切りのラベル
	DateTime string // 撮影日時、なければ "N/A"
	Camera   string // カメラのモデル名、なければ "Unknown"
}

// MetadataOverview はメタデータ一覧です。
type MetadataOverview struct {
	Rows    []MetadataRow
	Scanned int
	Skipped int
}

// BrandAnalysis はブランドの分析結果を表します。
type BrandAnalysis struct {
	BrandName string // 分析対象のブランド名
	Summary   string // AI生成の分析サマリー
}
