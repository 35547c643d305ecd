package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go_imagegen/metrics"
	"go_imagegen/pipeline"
)

// fakeService is a GenerationService with canned behavior.
type fakeService struct {
	generateResult *pipeline.GenerateResult
	generateErr    error
	batchResult    *pipeline.BatchResult
	batchErr       error

	lastGenerate pipeline.GenerateRequest
	lastBatch    pipeline.BatchRequest
}

func (f *fakeService) Generate(_ context.Context, req pipeline.GenerateRequest) (*pipeline.GenerateResult, error) {
	f.lastGenerate = req
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.generateResult, nil
}

func (f *fakeService) GenerateBatch(_ context.Context, req pipeline.BatchRequest) (*pipeline.BatchResult, error) {
	f.lastBatch = req
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchResult, nil
}

func newTestServer(service GenerationService) *Server {
	cfg := DefaultServerConfig()
	cfg.ModelName = "test-model"
	store := metrics.NewMetricsStore(metrics.DefaultStoreConfig(), time.Now())
	return NewServer(cfg, service, store, func() bool { return true }, nil)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleGenerate(t *testing.T) {
	svc := &fakeService{
		generateResult: &pipeline.GenerateResult{
			Image:          "aGVsbG8=",
			Prompt:         "a red fox",
			EnhancedPrompt: "a red fox, high quality, detailed, sharp focus",
			Width:          768,
			Height:         768,
			Steps:          30,
			Quality:        "medium",
		},
	}
	srv := newTestServer(svc)

	rec := postJSON(t, srv.Handler(), "/generate", `{"prompt":"a red fox","quality":"medium"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	for _, key := range []string{"image", "prompt", "enhanced_prompt", "width", "height", "steps", "quality"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response missing %q field", key)
		}
	}
	if resp["image"] != "aGVsbG8=" {
		t.Errorf("image = %v", resp["image"])
	}
	if resp["steps"].(float64) != 30 {
		t.Errorf("steps = %v, want 30", resp["steps"])
	}

	if svc.lastGenerate.Prompt != "a red fox" || svc.lastGenerate.Quality != "medium" {
		t.Errorf("service received %+v", svc.lastGenerate)
	}
}

func TestHandleGenerateInvalidInput(t *testing.T) {
	svc := &fakeService{
		generateErr: fmt.Errorf("%w: no prompt provided", pipeline.ErrInvalidInput),
	}
	srv := newTestServer(svc)

	rec := postJSON(t, srv.Handler(), "/generate", `{"prompt":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error body has no error field")
	}
}

func TestHandleGenerateServerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"initialization failure", fmt.Errorf("%w: no GPU", pipeline.ErrInitializationFailed)},
		{"generation failure", fmt.Errorf("%w: inference crashed", pipeline.ErrGenerationFailed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeService{generateErr: tt.err})

			rec := postJSON(t, srv.Handler(), "/generate", `{"prompt":"a red fox"}`)
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
		})
	}
}

func TestHandleGenerateMalformedBody(t *testing.T) {
	srv := newTestServer(&fakeService{})

	rec := postJSON(t, srv.Handler(), "/generate", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGenerateMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/generate", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleGenerateBodyTooLarge(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxRequestBytes = 64
	srv := NewServer(cfg, &fakeService{}, nil, nil, nil)

	big := fmt.Sprintf(`{"prompt":%q}`, strings.Repeat("x", 1024))
	rec := postJSON(t, srv.Handler(), "/generate", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413 for oversized body", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "request body too large" {
		t.Errorf("error = %q, want %q", body["error"], "request body too large")
	}
}

func TestHandleBatchGenerate(t *testing.T) {
	svc := &fakeService{
		batchResult: &pipeline.BatchResult{
			Results: []pipeline.BatchItem{
				{Prompt: "a red fox", Image: "aW1nMQ=="},
				{Prompt: "a blue heron", Image: "aW1nMg=="},
			},
		},
	}
	srv := newTestServer(svc)

	rec := postJSON(t, srv.Handler(), "/batch-generate", `{"prompts":["a red fox","a blue heron"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			Prompt string `json:"prompt"`
			Image  string `json:"image"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Prompt != "a red fox" || resp.Results[1].Prompt != "a blue heron" {
		t.Errorf("results out of order: %+v", resp.Results)
	}

	if len(svc.lastBatch.Prompts) != 2 {
		t.Errorf("service received %+v", svc.lastBatch)
	}
}

func TestHandleBatchGenerateTooMany(t *testing.T) {
	svc := &fakeService{
		batchErr: fmt.Errorf("%w: maximum 5 prompts allowed per batch", pipeline.ErrInvalidInput),
	}
	srv := newTestServer(svc)

	rec := postJSON(t, srv.Handler(), "/batch-generate",
		`{"prompts":["1","2","3","4","5","6"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "maximum 5 prompts") {
		t.Errorf("body %q does not name the ceiling", rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
	if resp["service"] != "text-to-image-generator" {
		t.Errorf("service = %q", resp["service"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status     string          `json:"status"`
		ModelReady bool            `json:"model_ready"`
		Metrics    json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if !resp.ModelReady {
		t.Error("model_ready = false, want true from the injected probe")
	}
	if len(resp.Metrics) == 0 {
		t.Error("metrics missing from status response")
	}
}

func TestHandleRoot(t *testing.T) {
	srv := newTestServer(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Text-to-Image") {
		t.Error("root page does not look like the UI")
	}

	// Unknown paths 404.
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d for unknown path, want 404", rec.Code)
	}
}
