// Package handler はinsightsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inimage_backend/internal/api"
	"inimage_backend/internal/feature/insights/domain"
	"inimage_backend/internal/feature/insights/domain/entity"
)

// InsightsUsecase はダッシュボード集計・ブランド分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type InsightsUsecase interface {
	BrandFrequency(ctx context.Context) (entity.BrandFrequency, error)
	MetadataOverview(ctx context.Context) (entity.MetadataOverview, error)
	AnalyzeBrand(ctx context.Context, brandName string) (*entity.BrandAnalysis, error)
}

// InsightsHandler はダッシュボード集計のHTTPリクエストを処理します。
type InsightsHandler struct {
	uc InsightsUsecase
}

// NewInsightsHandler はInsightsHandlerの新しいインスタンスを生成します。
func NewInsightsHandler(uc InsightsUsecase) *InsightsHandler {
	return &InsightsHandler{uc: uc}
}

// BrandFrequency はブランドの出現頻度を返します。
//
// エンドポイント: GET /v1/insights/brands
func (h *InsightsHandler) BrandFrequency(c *gin.Context) {
	freq, err := h.uc.BrandFrequency(c.Request.Context())
	if err != nil {
		slog.Error("ブランド頻度の集計に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "ブランド頻度の集計に失敗しました"})
		return
	}

	brands := make([]api.BrandCount, 0, len(freq.Brands))
	for _, b := range freq.Brands {
		brands = append(brands, api.BrandCount{Brand: b.Brand, Count: b.Count})
	}
	c.JSON(http.StatusOK, api.BrandFrequencyResponse{
		Brands:  brands,
		Scanned: freq.Scanned,
		Skipped: freq.Skipped,
	})
}

// MetadataOverview はレコードごとのメタデータ一覧を返します。
//
// エンドポイント: GET /v1/insights/metadata
func (h *InsightsHandler) MetadataOverview(c *gin.Context) {
	overview, err := h.uc.MetadataOverview(c.Request.Context())
	if err != nil {
		slog.Error("メタデータ一覧の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "メタデータ一覧の取得に失敗しました"})
		return
	}

	rows := make([]api.MetadataRow, 0, len(overview.Rows))
	for _, r := range overview.Rows {
		id, _ := uuid.Parse(r.ID)
		rows = append(rows, api.MetadataRow{
			Id:       id,
			Filename: r.Filename,
			Brands:   r.Brands,
			DateTime: r.DateTime,
			Camera:   r.Camera,
		})
	}
	c.JSON(http.StatusOK, api.MetadataOverviewResponse{
		Rows:    rows,
		Scanned: overview.Scanned,
		Skipped: overview.Skipped,
	})
}

// AnalyzeBrand はブランド分析サマリーを生成します。
//
// エンドポイント: POST /v1/insights/brands/analyze
// Content-Type: application/json
func (h *InsightsHandler) AnalyzeBrand(c *gin.Context) {
	var req api.AnalyzeBrandJSONRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("ブランド分析リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "ブランド名が必要です"})
		return
	}

	analysis, err := h.uc.AnalyzeBrand(c.Request.Context(), req.BrandName)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBrandName) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "ブランド名が不正です"})
			return
		}
		slog.Error("ブランド分析に失敗", "error", err, "brand", req.BrandName)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "ブランド分析に失敗しました"})
		return
	}

	c.JSON(http.StatusOK, api.BrandAnalysisResponse{
		BrandName: analysis.BrandName,
		Summary:   analysis.Summary,
	})
}
