// Package domain はscanフィーチャーのドメインエラーを定義します。
package domain

import "errors"

// スキャン処理のステージごとのエラーです。
// Persistence 以外はレコードの warnings として記録され、処理は継続されます。
var (
	// ErrConfiguration はブランドリンクのソースや検出器の認証情報が不正・欠落していることを示します。
	ErrConfiguration = errors.New("configuration error")

	// ErrDetectionUnavailable はロゴ検出サービスが利用できなかったことを示します（通信エラー・クォータ・不正なレスポンス）。
	ErrDetectionUnavailable = errors.New("detection unavailable")

	// ErrMetadataUnreadable は埋め込みメタデータが破損している、または読み取れないことを示します。
	ErrMetadataUnreadable = errors.New("metadata unreadable")

	// ErrPersistence は結果ディレクトリへの書き込みに失敗したことを示します。この画像のスキャンは未完了です。
	ErrPersistence = errors.New("persistence failed")

	// ErrRecordUnavailable はレコードが存在しない、または破損していて読み込めないことを示します。
	ErrRecordUnavailable = errors.New("record unavailable")

	// ErrRecordNotFound は指定IDのレコードファイルが存在しないことを示します。
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordCorrupt はレコードファイルがJSONとして解釈できない、または内容が不整合であることを示します。
	ErrRecordCorrupt = errors.New("record corrupt")

	// ErrInvalidRecordID はレコードIDの形式が不正であることを示します。
	ErrInvalidRecordID = errors.New("invalid record id")

	// ErrInvalidImage は画像が空、大きすぎる、または非対応の拡張子であることを示します。
	ErrInvalidImage = errors.New("invalid image")
)
