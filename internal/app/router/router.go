// Package router はHTTPルーティングを定義します。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	brandlinkhandler "inimage_backend/internal/feature/brandlinks/transport/handler"
	insightshandler "inimage_backend/internal/feature/insights/transport/handler"
	scanhandler "inimage_backend/internal/feature/scan/transport/handler"
	healthhandler "inimage_backend/internal/platform/http/handler"
	jwtmw "inimage_backend/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Health     *healthhandler.HealthHandler
	Scan       *scanhandler.ScanHandler
	BrandLinks *brandlinkhandler.BrandLinkHandler
	Insights   *insightshandler.InsightsHandler
	Metrics    http.Handler
}

// Options はルーターの設定です。
type Options struct {
	// AllowedOrigins はCORSで許可するオリジンです。空の場合はCORSヘッダーを付与しません。
	AllowedOrigins []string
	// JWTSecret が空の場合、管理画面APIは認証なしで公開されます。
	JWTSecret string
	// MaxMultipartMemory はマルチパートの解析時にメモリへ保持する最大バイト数です。
	MaxMultipartMemory int64
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			AllowWildcard:    true,
			MaxAge:           time.Hour,
		}))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	v1 := r.Group("/v1")
	{
		// アップロード画面: 画像のスキャン
		v1.POST("/scans", h.Scan.Scan)
	}

	// 管理画面・ダッシュボード用のルート
	// auth.jwt_secret が設定されている場合は Bearer トークンが必要になる
	backOffice := v1.Group("/")
	backOffice.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		backOffice.GET("/scans", h.Scan.List)
		backOffice.GET("/scans/:id", h.Scan.Get)
		backOffice.GET("/scans/:id/download", h.Scan.Download)

		backOffice.GET("/insights/brands", h.Insights.BrandFrequency)
		backOffice.POST("/insights/brands/analyze", h.Insights.AnalyzeBrand)
		backOffice.GET("/insights/metadata", h.Insights.MetadataOverview)

		backOffice.GET("/brand-links/resolve", h.BrandLinks.Resolve)
		backOffice.POST("/brand-links/reload", h.BrandLinks.Reload)
	}

	return r
}
