package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rickgao/lastprice/internal/batch"
	"github.com/rickgao/lastprice/internal/clock"
	"github.com/rickgao/lastprice/internal/model"
	"github.com/rickgao/lastprice/internal/prices"
	"github.com/rickgao/lastprice/internal/sequence"
	"github.com/rickgao/lastprice/internal/service"
)

func newTestService(maxActive int) *service.Service {
	clk := clock.NewManual(1_000_000)
	repo := batch.NewRepository(clk, sequence.NewCounter(1))
	cfg := service.Config{
		SupportedInstruments: []string{"AAPL", "AMZN"},
		MaxActiveBatchRuns:   maxActive,
	}
	return service.New(cfg, repo, prices.NewContainer(), nil, service.WithClock(clk))
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestServer_Routes(t *testing.T) {
	srv := NewServer(newTestService(1), nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantCode   int
		wantStatus Status
	}{
		{"price not available", "GET", "/v1/prices/AAPL", "", 200, StatusPriceNotAvailable},
		{"wrong instrument", "GET", "/v1/prices/MSFT", "", 200, StatusWrongInstrument},
		{"start", "POST", "/v1/batches", "", 200, StatusSuccess},
		{"start over capacity", "POST", "/v1/batches", "", 200, StatusTooManyActiveBatchRuns},
		{"upload", "POST", "/v1/batches/1/chunks", `{"records":[{"instrument":"AAPL","as_of":10,"payload":"AQI="}]}`, 200, StatusSuccess},
		{"upload wrong instrument", "POST", "/v1/batches/1/chunks", `{"records":[{"instrument":"MSFT","as_of":1}]}`, 200, StatusWrongInstrument},
		{"upload unknown batch", "POST", "/v1/batches/99/chunks", `{"records":[]}`, 200, StatusBatchRunNotFound},
		{"upload bad body", "POST", "/v1/batches/1/chunks", `{`, 400, StatusBadRequest},
		{"upload bad id", "POST", "/v1/batches/abc/chunks", `{}`, 400, StatusBadRequest},
		{"complete", "POST", "/v1/batches/1/complete", "", 200, StatusSuccess},
		{"complete again", "POST", "/v1/batches/1/complete", "", 200, StatusBatchRunNotFound},
		{"cancel unknown", "DELETE", "/v1/batches/1", "", 200, StatusBatchRunNotFound},
		{"price available", "GET", "/v1/prices/AAPL", "", 200, StatusSuccess},
	}

	for _, tt := range tests {
		rec, out := do(t, srv, tt.method, tt.path, tt.body)
		if rec.Code != tt.wantCode {
			t.Errorf("%s: code = %d, want %d", tt.name, rec.Code, tt.wantCode)
		}
		if got := Status(out["status"].(string)); got != tt.wantStatus {
			t.Errorf("%s: status = %s, want %s", tt.name, got, tt.wantStatus)
		}
	}
}

func TestServer_LastPriceRecord(t *testing.T) {
	svc := newTestService(10)
	srv := NewServer(svc, nil)

	id, _ := svc.StartBatchRun()
	svc.UploadChunk(id, []model.PriceRecord{
		{Instrument: "AAPL", AsOf: 10, Payload: []byte("ten")},
		{Instrument: "AAPL", AsOf: 5, Payload: []byte("five")},
	})
	svc.CompleteBatchRun(id)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/prices/AAPL", nil))

	var resp LastPriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Status != StatusSuccess || resp.Record == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Record.AsOf != 10 || string(resp.Record.Payload) != "ten" {
		t.Errorf("Record = %+v, want asOf 10", resp.Record)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestServer_Cancel(t *testing.T) {
	svc := newTestService(10)
	srv := NewServer(svc, nil)

	id, _ := svc.StartBatchRun()
	_, out := do(t, srv, "DELETE", batchPath(id), "")
	if out["status"] != string(StatusSuccess) {
		t.Errorf("status = %v, want SUCCESS", out["status"])
	}
	if n := svc.ActiveBatchRuns(); n != 0 {
		t.Errorf("ActiveBatchRuns() = %d, want 0", n)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(newTestService(1), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("PUT", "/v1/batches", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv := NewServer(newTestService(1), nil, WithHealthDetails(func() map[string]any {
		return map[string]any{"active": 0}
	}))

	rec, out := do(t, srv, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["status"] != "ok" {
		t.Errorf("status = %v", out["status"])
	}
	details, ok := out["details"].(map[string]any)
	if !ok || details["active"] != float64(0) {
		t.Errorf("details = %v", out["details"])
	}
}

func TestServer_WithHandler(t *testing.T) {
	called := false
	srv := NewServer(newTestService(1), nil, WithHandler("GET /v1/stream", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/stream", nil))
	if !called {
		t.Error("mounted handler not called")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		want     Status
		wantCode int
	}{
		{&service.UnsupportedInstrumentError{Instrument: "X"}, StatusWrongInstrument, 200},
		{&service.TooManyActiveBatchesError{Limit: 1}, StatusTooManyActiveBatchRuns, 200},
		{&service.BatchNotFoundError{ID: 1}, StatusBatchRunNotFound, 200},
		{errors.New("boom"), StatusInternal, 500},
	}

	for _, tt := range tests {
		got, code := statusFor(tt.err)
		if got != tt.want || code != tt.wantCode {
			t.Errorf("statusFor(%v) = %s, %d; want %s, %d", tt.err, got, code, tt.want, tt.wantCode)
		}
	}
}
