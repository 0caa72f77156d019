// Package handler はscanフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inimage_backend/internal/api"
	"inimage_backend/internal/feature/scan/domain"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

// マルチパートのフィールド名。複数画像は images、単一画像は image で受け付けます。
const (
	fieldImages = "images"
	fieldImage  = "image"
)

// ScanUsecase はスキャンのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ScanUsecase interface {
	ScanBatch(ctx context.Context, uploads []usecase.Upload) []usecase.ScanOutcome
	ListRecords(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, id string) (entity.ScanRecord, error)
}

// ScanHandler はスキャンのHTTPリクエストを処理します。
type ScanHandler struct {
	uc ScanUsecase
}

// NewScanHandler はScanHandlerの新しいインスタンスを生成します。
func NewScanHandler(uc ScanUsecase) *ScanHandler {
	return &ScanHandler{uc: uc}
}

// Scan はアップロードされた画像をスキャンし、画像ごとの結果を返します。
//
// エンドポイント: POST /v1/scans
// Content-Type: multipart/form-data
// フィールド: images（複数可）または image（画像ファイル、各最大10MB）
func (h *ScanHandler) Scan(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		slog.Warn("マルチパートフォームの解析に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}

	files := append([]*multipart.FileHeader{}, form.File[fieldImages]...)
	files = append(files, form.File[fieldImage]...)
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}

	uploads := make([]usecase.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			slog.Error("画像データの読み取りに失敗", "error", err, "source_filename", fh.Filename)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "画像の読み込みに失敗しました"})
			return
		}
		uploads = append(uploads, usecase.Upload{Filename: fh.Filename, Data: data})
	}

	outcomes := h.uc.ScanBatch(c.Request.Context(), uploads)
	c.JSON(http.StatusOK, BatchResponse(outcomes))
}

// List は保存済みレコードの識別子を返します。
//
// エンドポイント: GET /v1/scans
func (h *ScanHandler) List(c *gin.Context) {
	ids, err := h.uc.ListRecords(c.Request.Context())
	if err != nil {
		slog.Error("レコード一覧の取得に失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "レコード一覧の取得に失敗しました"})
		return
	}

	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	c.JSON(http.StatusOK, api.ScanListResponse{Count: len(out), Ids: out})
}

// Get は1件のレコードを返します。
//
// エンドポイント: GET /v1/scans/:id
func (h *ScanHandler) Get(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, RecordResponse(rec))
}

// Download はレコードを整形済みJSONの添付ファイルとして返します。
//
// エンドポイント: GET /v1/scans/:id/download
func (h *ScanHandler) Download(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, rec.ID))
	c.IndentedJSON(http.StatusOK, RecordResponse(rec))
}

func (h *ScanHandler) load(c *gin.Context) (entity.ScanRecord, bool) {
	id := c.Param("id")
	rec, err := h.uc.GetRecord(c.Request.Context(), id)
	if err == nil {
		return rec, true
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRecordID):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "レコードIDが不正です"})
	case errors.Is(err, domain.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "レコードが見つかりません"})
	case errors.Is(err, domain.ErrRecordCorrupt):
		slog.Warn("破損したレコード", "scan_id", id, "error", err)
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "レコードを読み込めません"})
	default:
		slog.Error("レコードの取得に失敗", "scan_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "レコードの取得に失敗しました"})
	}
	return entity.ScanRecord{}, false
}

// readUpload は上限+1バイトまで読み込みます。上限超過の判定はユースケース側で行います。
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()
	return io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
}
