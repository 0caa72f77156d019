// Package domain はinsightsフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrInvalidBrandName はブランド名が空、長すぎる、または許可されない文字を含むことを示します。
	ErrInvalidBrandName = errors.New("invalid brand name")

	// ErrAnalyzerUnavailable はブランド分析が設定されていない、または外部APIが失敗したことを示します。
	ErrAnalyzerUnavailable = errors.New("brand analyzer unavailable")

	// ErrSummaryUnavailable はレコード要約の読み出し元（結果ディレクトリ・カタログ）にアクセスできないことを示します。
	ErrSummaryUnavailable = errors.New("scan summaries unavailable")
)
