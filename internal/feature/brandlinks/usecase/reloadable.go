package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"inimage_backend/internal/feature/brandlinks/domain"
)

// Source はブランドリンクの読み込み元です（静的マップ・JSONファイル・URL・Redisなど）。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
	// Name はログ出力用のソース名です。
	Name() string
}

// StaticSource はコードに埋め込まれた固定のマップです。
type StaticSource map[string]string

// Load はマップのコピーを返します。
func (s StaticSource) Load(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// Name はソース名を返します。
func (s StaticSource) Name() string { return "static" }

type snapshot struct {
	table *Table
	err   error
}

// Reloadable はホットリロード可能なブランドリンクテーブルです。
// 読み取りはロックを取らず、リロード時にスナップショットを原子的に差し替えます。
type Reloadable struct {
	source Source
	mu     sync.Mutex // Reload の直列化
	cur    atomic.Pointer[snapshot]
}

// NewReloadable はソースから初回の読み込みを行います。
// 読み込みに失敗しても処理は止めず、空のテーブル（常にリンクなし）に縮退して LoadError でエラーを報告します。
func NewReloadable(ctx context.Context, source Source) *Reloadable {
	r := &Reloadable{source: source}
	if source == nil {
		r.cur.Store(&snapshot{table: NewTable(nil)})
		return r
	}
	table, err := r.load(ctx)
	if err != nil {
		slog.Warn("brand links unavailable; continuing without links", "source", source.Name(), "error", err)
		r.cur.Store(&snapshot{table: NewTable(nil), err: err})
		return r
	}
	slog.Info("brand links loaded", "source", source.Name(), "count", table.Len())
	r.cur.Store(&snapshot{table: table})
	return r
}

// Reload はソースを再読み込みします。失敗した場合は現在のテーブルを維持してエラーを返します。
func (r *Reloadable) Reload(ctx context.Context) (int, error) {
	if r.source == nil {
		return 0, domain.ErrNoSource
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.load(ctx)
	if err != nil {
		slog.Warn("brand link reload failed; keeping current table", "source", r.source.Name(), "error", err)
		return 0, err
	}
	r.cur.Store(&snapshot{table: table})
	slog.Info("brand links reloaded", "source", r.source.Name(), "count", table.Len())
	return table.Len(), nil
}

func (r *Reloadable) load(ctx context.Context) (*Table, error) {
	links, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand links from %s: %w", r.source.Name(), err)
	}
	return NewTable(links), nil
}

// Resolve は現在のスナップショットでラベルを解決します。
func (r *Reloadable) Resolve(label string) (string, bool) {
	return r.cur.Load().table.Resolve(label)
}

// LoadError は現在のテーブルが読み込み失敗による縮退状態であればそのエラーを返します。
func (r *Reloadable) LoadError() error {
	return r.cur.Load().err
}

// Len は現在のテーブルのキー数を返します。
func (r *Reloadable) Len() int {
	return r.cur.Load().table.Len()
}
