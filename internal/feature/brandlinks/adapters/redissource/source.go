// Package redissource はRedisのハッシュ（HGETALL）からブランドリンクを読み込みます。
package redissource

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"inimage_backend/internal/feature/brandlinks/domain"
	"inimage_backend/internal/feature/brandlinks/usecase"
)

// DefaultKey はブランドリンクを格納するハッシュの既定キーです。
const DefaultKey = "brandlinks"

// Source はRedisハッシュのフィールドをブランド名、値をURLとして読み込みます。
type Source struct {
	rdb *redis.Client
	key string
}

// Sourceがusecase.Sourceを実装していることをコンパイル時に検証します。
var _ usecase.Source = (*Source)(nil)

// New はSourceを生成します。key が空の場合は DefaultKey を使用します。
func New(rdb *redis.Client, key string) *Source {
	if key == "" {
		key = DefaultKey
	}
	return &Source{rdb: rdb, key: key}
}

// Name はソース名を返します。
func (s *Source) Name() string {
	return "redis:" + s.key
}

// Load はハッシュ全体を取得します。キーが存在しない場合は空のマップになります。
func (s *Source) Load(ctx context.Context) (map[string]string, error) {
	if s.rdb == nil {
		return nil, fmt.Errorf("%w: redis client is not configured", domain.ErrSourceUnavailable)
	}
	links, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return links, nil
}
