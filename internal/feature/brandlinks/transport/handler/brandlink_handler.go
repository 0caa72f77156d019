// Package handler はbrandlinksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inimage_backend/internal/api"
	"inimage_backend/internal/feature/brandlinks/domain"
)

// BrandLinks はブランドリンクテーブルの操作を定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type BrandLinks interface {
	Resolve(label string) (string, bool)
	Reload(ctx context.Context) (int, error)
}

// BrandLinkHandler はブランドリンクのHTTPリクエストを処理します。
type BrandLinkHandler struct {
	links BrandLinks
}

// NewBrandLinkHandler はBrandLinkHandlerの新しいインスタンスを生成します。
func NewBrandLinkHandler(links BrandLinks) *BrandLinkHandler {
	return &BrandLinkHandler{links: links}
}

// Resolve はラベルに対応するブランドのURLを返します。対応がなければ link は null です。
//
// エンドポイント: GET /v1/brand-links/resolve?label=...
func (h *BrandLinkHandler) Resolve(c *gin.Context) {
	label := c.Query("label")
	if strings.TrimSpace(label) == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "labelが必要です"})
		return
	}

	resp := api.BrandLinkResolveResponse{Label: label}
	if url, ok := h.links.Resolve(label); ok {
		resp.Link = &url
	}
	c.JSON(http.StatusOK, resp)
}

// Reload はブランドリンクのソースを再読み込みします。失敗した場合は現在のテーブルが維持されます。
//
// エンドポイント: POST /v1/brand-links/reload
func (h *BrandLinkHandler) Reload(c *gin.Context) {
	n, err := h.links.Reload(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSource):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "ブランドリンクのソースが設定されていません"})
		case errors.Is(err, domain.ErrSourceCorrupt):
			slog.Warn("ブランドリンクのソースが不正", "error", err)
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "ブランドリンクのソースを解釈できません"})
		default:
			slog.Error("ブランドリンクの再読み込みに失敗", "error", err)
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "ブランドリンクの再読み込みに失敗しました"})
		}
		return
	}
	c.JSON(http.StatusOK, api.BrandLinkReloadResponse{Count: n})
}
