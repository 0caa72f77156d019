// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ヘルスチェックの状態
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded" // 補助的な機能が使えないが処理は継続できる
	StatusDown     = "down"     // スキャン結果を保存できない
)

// Check は1つの依存先の確認です。
// Critical な確認が失敗すると 503 を返し、それ以外の失敗は degraded として 200 を返します。
type Check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

// HealthHandler はサービスヘルスチェック用の /healthz エンドポイントを処理します。
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler はHealthHandlerを生成します。
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health はHTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	status, results := h.evaluate(c.Request.Context())
	code := http.StatusOK
	if status == StatusDown {
		code = http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(code)
		return
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}

func (h *HealthHandler) evaluate(ctx context.Context) (string, map[string]string) {
	status := StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Run(ctx); err != nil {
			results[chk.Name] = err.Error()
			if chk.Critical {
				status = StatusDown
			} else if status == StatusOK {
				status = StatusDegraded
			}
			continue
		}
		results[chk.Name] = StatusOK
	}
	return status, results
}
