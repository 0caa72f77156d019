package handler

import (
	"github.com/google/uuid"

	"inimage_backend/internal/api"
	"inimage_backend/internal/feature/scan/domain/entity"
	"inimage_backend/internal/feature/scan/usecase"
)

// RecordResponse はScanRecordをAPIレスポンスの形に変換します。
func RecordResponse(rec entity.ScanRecord) api.ScanRecordResponse {
	logos := make([]api.DetectedLogoResponse, 0, len(rec.Logos))
	for _, l := range rec.Logos {
		logos = append(logos, api.DetectedLogoResponse{
			Label:      l.Label,
			Confidence: l.Confidence,
			Link:       l.Link,
		})
	}
	metadata := make(map[string]string, len(rec.Metadata))
	for k, v := range rec.Metadata {
		metadata[k] = v
	}
	warnings := make([]string, 0, len(rec.Warnings))
	warnings = append(warnings, rec.Warnings...)

	// IDはストアで検証済み
	id, _ := uuid.Parse(rec.ID)

	return api.ScanRecordResponse{
		SchemaVersion:  rec.SchemaVersion,
		Id:             id,
		SourceFilename: rec.SourceFilename,
		CreatedAt:      rec.CreatedAt,
		Logos:          logos,
		Metadata:       metadata,
		Warnings:       warnings,
	}
}

// BatchResponse はバッチの処理結果を集計してAPIレスポンスに変換します。
func BatchResponse(outcomes []usecase.ScanOutcome) api.ScanBatchResponse {
	resp := api.ScanBatchResponse{Results: make([]api.ScanOutcomeResponse, 0, len(outcomes))}
	for _, out := range outcomes {
		item := api.ScanOutcomeResponse{
			SourceFilename: out.SourceFilename,
			Status:         api.ScanOutcomeResponseStatus(out.Status),
		}
		if out.Record != nil {
			rec := RecordResponse(*out.Record)
			item.Record = &rec
		}
		if out.Err != nil {
			msg := out.Err.Error()
			item.Error = &msg
		}
		if out.Status == usecase.StatusCompleted {
			resp.Completed++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}
