package di

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"inimage_backend/internal/feature/brandlinks/adapters/jsonsource"
	"inimage_backend/internal/feature/brandlinks/adapters/redissource"
	"inimage_backend/internal/feature/brandlinks/usecase"
	"inimage_backend/internal/platform/config"
)

// NewBrandLinkSource はブランドリンクの読み込み元を選択します。
// Redisが使えてキーが設定されていればRedisのハッシュ、Source が設定されていればJSON、どちらもなければnilを返します。
func NewBrandLinkSource(cfg config.BrandLinksConfig, rdb *redis.Client, client *http.Client) usecase.Source {
	if cfg.RedisKey != "" {
		if rdb != nil {
			return redissource.New(rdb, cfg.RedisKey)
		}
		slog.Warn("brandlinks.redis_key is set but Redis is unavailable", "key", cfg.RedisKey)
	}
	if cfg.Source != "" {
		return jsonsource.New(cfg.Source, client)
	}
	return nil
}

// NewBrandLinks はソースから初回読み込みを行ったリロード可能なテーブルを生成します。
func NewBrandLinks(ctx context.Context, cfg config.BrandLinksConfig, rdb *redis.Client, client *http.Client) *usecase.Reloadable {
	return usecase.NewReloadable(ctx, NewBrandLinkSource(cfg, rdb, client))
}
