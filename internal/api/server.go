package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rickgao/lastprice/internal/model"
	"github.com/rickgao/lastprice/internal/service"
	"github.com/rickgao/lastprice/internal/version"
)

// maxChunkBytes bounds a single chunk upload body.
const maxChunkBytes = 64 << 20

// PriceService is the set of operations served over HTTP.
// *service.Service satisfies it.
type PriceService interface {
	FindLastPrice(instrument string) (model.PriceRecord, bool, error)
	StartBatchRun() (int64, error)
	UploadChunk(id int64, records []model.PriceRecord) error
	CancelBatchRun(id int64) error
	CompleteBatchRun(id int64) error
}

// Server routes HTTP requests to a PriceService.
type Server struct {
	svc    PriceService
	mux    *http.ServeMux
	logger *slog.Logger
	health func() map[string]any
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHealthDetails adds component stats to GET /health.
func WithHealthDetails(fn func() map[string]any) ServerOption {
	return func(s *Server) {
		s.health = fn
	}
}

// WithHandler mounts an extra handler, such as the stream hub, on the mux.
func WithHandler(pattern string, h http.Handler) ServerOption {
	return func(s *Server) {
		s.mux.Handle(pattern, h)
	}
}

// NewServer creates a Server for svc.
func NewServer(svc PriceService, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		mux:    http.NewServeMux(),
		logger: logger,
	}

	s.mux.HandleFunc("GET /v1/prices/{instrument}", s.handleLastPrice)
	s.mux.HandleFunc("POST /v1/batches", s.handleStartBatchRun)
	s.mux.HandleFunc("POST /v1/batches/{id}/chunks", s.handleUploadChunk)
	s.mux.HandleFunc("DELETE /v1/batches/{id}", s.handleCancelBatchRun)
	s.mux.HandleFunc("POST /v1/batches/{id}/complete", s.handleCompleteBatchRun)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleLastPrice(w http.ResponseWriter, r *http.Request) {
	record, ok, err := s.svc.FindLastPrice(r.PathValue("instrument"))
	if err != nil {
		status, code := statusFor(err)
		s.writeJSON(w, code, LastPriceResponse{Status: status, Message: err.Error()})
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusOK, LastPriceResponse{Status: StatusPriceNotAvailable})
		return
	}
	s.writeJSON(w, http.StatusOK, LastPriceResponse{Status: StatusSuccess, Record: &record})
}

func (s *Server) handleStartBatchRun(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.StartBatchRun()
	if err != nil {
		status, code := statusFor(err)
		s.writeJSON(w, code, StartBatchRunResponse{Status: status, Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, StartBatchRunResponse{Status: StatusSuccess, BatchID: id})
}

func (s *Server) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	id, ok := s.batchID(w, r)
	if !ok {
		return
	}

	var req UploadChunkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChunkBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: "decode chunk: " + err.Error()})
		return
	}

	s.writeStatus(w, s.svc.UploadChunk(id, req.Records))
}

func (s *Server) handleCancelBatchRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.batchID(w, r)
	if !ok {
		return
	}
	s.writeStatus(w, s.svc.CancelBatchRun(id))
}

func (s *Server) handleCompleteBatchRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.batchID(w, r)
	if !ok {
		return
	}
	s.writeStatus(w, s.svc.CompleteBatchRun(id))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: version.String()}
	if s.health != nil {
		resp.Details = s.health()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// batchID parses the {id} path segment, writing a 400 when it is malformed.
func (s *Server) batchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusBadRequest, Message: "invalid batch id"})
		return 0, false
	}
	return id, true
}

func (s *Server) writeStatus(w http.ResponseWriter, err error) {
	if err != nil {
		status, code := statusFor(err)
		s.writeJSON(w, code, StatusResponse{Status: status, Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: StatusSuccess})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

// statusFor maps a service error to its wire status and HTTP code.
func statusFor(err error) (Status, int) {
	switch {
	case errors.Is(err, service.ErrUnsupportedInstrument):
		return StatusWrongInstrument, http.StatusOK
	case errors.Is(err, service.ErrTooManyActiveBatches):
		return StatusTooManyActiveBatchRuns, http.StatusOK
	case errors.Is(err, service.ErrBatchNotFound):
		return StatusBatchRunNotFound, http.StatusOK
	default:
		return StatusInternal, http.StatusInternalServerError
	}
}
