// Package filestore はスキャンレコードをローカルディスク上の1レコード1ファイルのJSONとして保存します。
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

const (
	recordExt  = ".json"
	tempPrefix = ".scan-"
)

// Store は結果ディレクトリをそのまま唯一の正とするScanStore実装です。
// ディレクトリ以外の状態は持たず、各操作は独立して完結します。
type Store struct {
	dir string
}

// Storeがusecase.ScanStoreを実装していることをコンパイル時に検証します。
var _ usecase.ScanStore = (*Store)(nil)

// New は結果ディレクトリを作成してStoreを返します。
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create results directory: %v", domain.ErrPersistence, err)
	}
	return &Store{dir: dir}, nil
}

// Dir は結果ディレクトリのパスを返します。
func (s *Store) Dir() string {
	return s.dir
}

// Persist はレコードを一時ファイルに書き出してから最終名へリンクします。
// 読み手が書きかけのファイルを観測することはなく、既存のレコードを上書きすることもありません。
func (s *Store) Persist(ctx context.Context, record entity.ScanRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateID(record.ID); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	data, err := json.MarshalIndent(toFile(record), "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal record: %v", domain.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file", "path", tmpName, "error", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// os.Link は最終名が既に存在すると失敗する
	if err := os.Link(tmpName, s.path(record.ID)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: record %s already exists", domain.ErrPersistence, record.ID)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return record.ID, nil
}

// List は保存済みレコードのIDを昇順で返します。UUIDv7のため作成順と一致します。
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)
		if validateID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load はレコードを読み込みます。存在しない・破損しているファイルは ErrRecordUnavailable になり、
// 空のフィールドを持つ正常なレコードとは区別されます。
func (s *Store) Load(ctx context.Context, id string) (entity.ScanRecord, error) {
	if err := validateID(id); err != nil {
		return entity.ScanRecord{}, fmt.Errorf("%w: %w", domain.ErrRecordUnavailable, err)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.ScanRecord{}, fmt.Errorf("%w: %w: %s", domain.ErrRecordUnavailable, domain.ErrRecordNotFound, id)
		}
		return entity.ScanRecord{}, fmt.Errorf("%w: %v", domain.ErrRecordUnavailable, err)
	}

	var f recordFile
	if err := json.Unmarshal(data, &f); err != nil {
		return entity.ScanRecord{}, fmt.Errorf("%w: %w: %s: %v", domain.ErrRecordUnavailable, domain.ErrRecordCorrupt, id, err)
	}
	if f.ID != id {
		return entity.ScanRecord{}, fmt.Errorf("%w: %w: %s: id field is %q", domain.ErrRecordUnavailable, domain.ErrRecordCorrupt, id, f.ID)
	}

	return f.toEntity(), nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

// validateID は正規形のUUIDのみを受け付けます。パストラバーサルもここで防がれます。
func validateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRecordID, id)
	}
	return nil
}
