// Package entity はscanフィーチャーのドメインモデルを定義します。
package entity

// Detection はロゴ検出サービスが返す生の検出結果です。
type Detection struct {
	Label string  // 検出されたブランド名
	Score float64 // 信頼度スコア（0.0 ~ 1.0）
}

// DetectedLogo はレコードに保存される検出済みロゴです。
// Confidence はレコード生成時に一度だけパーセントへ変換・丸められます。
type DetectedLogo struct {
	Label      string  // 検出されたブランド名
	Confidence float64 // 信頼度（0.00 ~ 100.00、小数点以下2桁）
	Link       *string // 解決済みのブランドURL（リンクなしの場合はnil）
}

// HasLink はブランドリンクが解決されているかを返します。
func (l DetectedLogo) HasLink() bool {
	return l.Link != nil
}
