// Package domain はbrandlinksフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrSourceUnavailable はブランドリンクのソースが存在しない、または読み込めないことを示します。
	ErrSourceUnavailable = errors.New("brand link source unavailable")

	// ErrSourceCorrupt はブランドリンクのソースが key→URL のJSONオブジェクトとして解釈できないことを示します。
	ErrSourceCorrupt = errors.New("brand link source corrupt")

	// ErrNoSource はリロード可能なソースが設定されていないことを示します。
	ErrNoSource = errors.New("no brand link source configured")
)
