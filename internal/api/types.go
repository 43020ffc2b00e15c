package api

import "github.com/rickgao/lastprice/internal/model"

// Status is the outcome of a price service call.
type Status string

const (
	StatusSuccess                Status = "SUCCESS"
	StatusPriceNotAvailable      Status = "PRICE_NOT_AVAILABLE"
	StatusWrongInstrument        Status = "WRONG_INSTRUMENT"
	StatusTooManyActiveBatchRuns Status = "TOO_MANY_ACTIVE_BATCH_RUNS"
	StatusBatchRunNotFound       Status = "BATCH_RUN_NOT_FOUND"
	StatusBadRequest             Status = "BAD_REQUEST"
	StatusInternal               Status = "INTERNAL"
)

// LastPriceResponse from GET /v1/prices/{instrument}
type LastPriceResponse struct {
	Status  Status             `json:"status"`
	Record  *model.PriceRecord `json:"record,omitempty"`
	Message string             `json:"message,omitempty"`
}

// StartBatchRunResponse from POST /v1/batches
type StartBatchRunResponse struct {
	Status  Status `json:"status"`
	BatchID int64  `json:"batch_id"` // Only meaningful on SUCCESS
	Message string `json:"message,omitempty"`
}

// UploadChunkRequest is the body of POST /v1/batches/{id}/chunks
type UploadChunkRequest struct {
	Records []model.PriceRecord `json:"records"`
}

// StatusResponse from chunk upload, cancel and complete.
type StatusResponse struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse from GET /health
type HealthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Details map[string]any `json:"details,omitempty"`
}
