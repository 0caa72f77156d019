// Package jsonsource はJSONドキュメント（ローカルファイルまたはHTTP(S) URL）からブランドリンクを読み込みます。
package jsonsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"inimage_backend/internal/feature/brandlinks/domain"
	"inimage_backend/internal/feature/brandlinks/usecase"
)

// maxDocumentSize はブランドリンクJSONの最大サイズです。
const maxDocumentSize = 4 * 1024 * 1024

// Source は {"brand": "https://..."} 形式のJSONドキュメントを読み込みます。
type Source struct {
	location string
	client   *http.Client
}

// Sourceがusecase.Sourceを実装していることをコンパイル時に検証します。
var _ usecase.Source = (*Source)(nil)

// New はSourceを生成します。location が http:// または https:// で始まる場合はURLとして取得します。
func New(location string, client *http.Client) *Source {
	return &Source{location: location, client: client}
}

// Name はソース名を返します。
func (s *Source) Name() string {
	return "json:" + s.location
}

// Load はドキュメントを読み込んでパースします。
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	var (
		data []byte
		err  error
	)
	if isURL(s.location) {
		data, err = s.fetch(ctx)
	} else {
		data, err = os.ReadFile(s.location)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return Parse(data)
}

// Parse はJSONオブジェクトをキー→URLのマップとして解釈します。文字列以外の値はエラーになります。
func Parse(data []byte) (map[string]string, error) {
	var links map[string]string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceCorrupt, err)
	}
	if links == nil {
		return nil, fmt.Errorf("%w: document is null", domain.ErrSourceCorrupt)
	}
	return links, nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	client := s.client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", res.StatusCode, s.location)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxDocumentSize))
}

func isURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
