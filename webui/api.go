// Package webui provides the HTTP surface of the image generation service:
// the JSON API, the embedded browser UI, request logging, and the WebSocket
// event stream.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go_imagegen/metrics"
	"go_imagegen/pipeline"
)

// GenerationService is the pipeline capability the API depends on.
// It is implemented by *pipeline.Processor; tests substitute fakes.
type GenerationService interface {
	Generate(ctx context.Context, req pipeline.GenerateRequest) (*pipeline.GenerateResult, error)
	GenerateBatch(ctx context.Context, req pipeline.BatchRequest) (*pipeline.BatchResult, error)
}

// StatusReporter provides the current service status for /api/status.
type StatusReporter interface {
	GetSnapshot() metrics.Snapshot
}

// generateRequest is the POST /generate body.
type generateRequest struct {
	Prompt  string `json:"prompt"`
	Quality string `json:"quality,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// generateResponse is the POST /generate success body.
type generateResponse struct {
	Image          string `json:"image"`
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Steps          int    `json:"steps"`
	Quality        string `json:"quality"`
}

// batchRequest is the POST /batch-generate body.
type batchRequest struct {
	Prompts []string `json:"prompts"`
}

// batchItemResponse is one element of the batch response's results list.
type batchItemResponse struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image"`
}

// batchResponse is the POST /batch-generate success body.
type batchResponse struct {
	Results []batchItemResponse `json:"results"`
}

// errorResponse is the body for all error status codes.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Model   string `json:"model,omitempty"`
}

// handleGenerate handles POST /generate.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, &req, s.maxRequestBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := s.service.Generate(r.Context(), pipeline.GenerateRequest{
		Prompt:  req.Prompt,
		Quality: req.Quality,
		Width:   req.Width,
		Height:  req.Height,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Image:          result.Image,
		Prompt:         result.Prompt,
		EnhancedPrompt: result.EnhancedPrompt,
		Width:          result.Width,
		Height:         result.Height,
		Steps:          result.Steps,
		Quality:        result.Quality,
	})
}

// handleBatchGenerate handles POST /batch-generate.
func (s *Server) handleBatchGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req batchRequest
	if err := decodeJSON(w, r, &req, s.maxRequestBytes); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := s.service.GenerateBatch(r.Context(), pipeline.BatchRequest{
		Prompts: req.Prompts,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]batchItemResponse, 0, len(result.Results))
	for _, item := range result.Results {
		items = append(items, batchItemResponse{
			Prompt: item.Prompt,
			Image:  item.Image,
		})
	}

	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

// handleHealth handles GET /health. It never touches the model, so a cold
// service still reports healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: "text-to-image-generator",
		Model:   s.modelName,
	})
}

// statusResponse is the GET /api/status body.
type statusResponse struct {
	Status     string           `json:"status"`
	ModelReady bool             `json:"model_ready"`
	Metrics    metrics.Snapshot `json:"metrics"`
	Timestamp  time.Time        `json:"timestamp"`
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	if s.status != nil {
		resp.Metrics = s.status.GetSnapshot()
	}
	if s.readiness != nil {
		resp.ModelReady = s.readiness()
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeJSON reads a JSON body with a size cap applied.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// writeDecodeError distinguishes a body over the configured size cap (413)
// from a malformed one (400).
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// writeServiceError maps pipeline errors to HTTP status codes: invalid input
// is the caller's fault (400), everything else is the server's (500).
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, pipeline.ErrInvalidInput) {
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
