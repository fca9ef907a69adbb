package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/vector/pkg/engine"
)

// Handler serves the demo vector API directly off an in-process
// engine.Engine, replacing the teacher's gRPC-client indirection (the
// generated proto package it dialed is not present in the retrieved
// tree — see DESIGN.md).
type Handler struct {
	engine    *engine.Engine
	startTime time.Time
	version   string
}

// NewHandler creates a new REST API handler over eng.
func NewHandler(eng *engine.Engine, version string) *Handler {
	return &Handler{engine: eng, startTime: time.Now(), version: version}
}

type insertRequest struct {
	Namespace string            `json:"namespace"`
	ID        string            `json:"id,omitempty"`
	Vector    []float32         `json:"vector"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Text      string            `json:"text,omitempty"`
}

type insertResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Insert handles POST /v1/vectors
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Namespace == "" {
		writeError(w, "namespace is required", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = fmt.Sprintf("auto-%d", time.Now().UnixNano())
	}

	if err := h.engine.Insert(req.Namespace, req.ID, req.Vector, req.Metadata, req.Text); err != nil {
		writeJSON(w, insertResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, insertResponse{Success: true, ID: req.ID}, http.StatusCreated)
}

type searchRequest struct {
	Namespace   string    `json:"namespace"`
	QueryVector []float32 `json:"query_vector"`
	QueryText   string    `json:"query_text,omitempty"`
	K           int       `json:"k"`
}

type searchResultDTO struct {
	ID       string            `json:"id"`
	Distance float32           `json:"distance"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Text     string            `json:"text,omitempty"`
	Vector   []float32         `json:"vector,omitempty"`
}

type searchResponse struct {
	Results      []searchResultDTO `json:"results"`
	TotalResults int               `json:"total_results"`
	SearchTimeMs float64           `json:"search_time_ms"`
	Error        string            `json:"error,omitempty"`
}

func (h *Handler) doSearch(w http.ResponseWriter, namespace string, query []float32, k int, textFilter string) {
	if k <= 0 {
		k = 10
	}
	start := time.Now()
	results, err := h.engine.Search(namespace, query, k)
	elapsed := time.Since(start)
	if err != nil {
		writeJSON(w, searchResponse{Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	dtos := make([]searchResultDTO, 0, len(results))
	for _, r := range results {
		if textFilter != "" && !strings.Contains(strings.ToLower(r.Text), strings.ToLower(textFilter)) {
			continue
		}
		dtos = append(dtos, searchResultDTO{ID: r.ID, Distance: r.Distance, Metadata: r.Metadata, Text: r.Text, Vector: r.Vector})
	}

	writeJSON(w, searchResponse{
		Results:      dtos,
		TotalResults: len(dtos),
		SearchTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}, http.StatusOK)
}

// Search handles POST /v1/vectors/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	h.doSearch(w, req.Namespace, req.QueryVector, req.K, "")
}

// HybridSearch handles POST /v1/vectors/hybrid-search: an ANN search
// over QueryVector narrowed to results whose stored text contains
// QueryText.
func (h *Handler) HybridSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.QueryText == "" {
		writeError(w, "query_text is required", http.StatusBadRequest)
		return
	}
	h.doSearch(w, req.Namespace, req.QueryVector, req.K, req.QueryText)
}

type deleteRequest struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

type deleteResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count"`
	Error        string `json:"error,omitempty"`
}

// Delete handles DELETE /v1/vectors/{namespace}/{id} and POST /v1/vectors/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest

	if r.Method == http.MethodDelete {
		path := strings.TrimPrefix(r.URL.Path, "/v1/vectors/")
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 {
			writeError(w, "Invalid URL format, expected /v1/vectors/{namespace}/{id}", http.StatusBadRequest)
			return
		}
		req.Namespace, req.ID = parts[0], parts[1]
	} else if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	} else {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	deleted, err := h.engine.Delete(req.Namespace, req.ID)
	if err != nil {
		writeJSON(w, deleteResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}
	count := 0
	if deleted {
		count = 1
	}
	writeJSON(w, deleteResponse{Success: true, DeletedCount: count}, http.StatusOK)
}

type updateRequest struct {
	Namespace string            `json:"namespace"`
	ID        string            `json:"id"`
	Vector    []float32         `json:"vector,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Text      *string           `json:"text,omitempty"`
}

type updateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Update handles PUT/PATCH /v1/vectors/{namespace}/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/vectors/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		writeError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	req.Namespace, req.ID = parts[0], parts[1]

	var vec []float32
	if req.Vector != nil {
		vec = req.Vector
	}
	if err := h.engine.Update(req.Namespace, req.ID, vec, req.Metadata, req.Text); err != nil {
		writeJSON(w, updateResponse{Success: false, Error: err.Error()}, http.StatusInternalServerError)
		return
	}

	writeJSON(w, updateResponse{Success: true}, http.StatusOK)
}

// BatchInsert handles POST /v1/vectors/batch
func (h *Handler) BatchInsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var requests []insertRequest
	if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		if req.ID == "" {
			req.ID = fmt.Sprintf("auto-%d", time.Now().UnixNano())
		}
		if err := h.engine.Insert(req.Namespace, req.ID, req.Vector, req.Metadata, req.Text); err != nil {
			writeError(w, fmt.Sprintf("Batch insert failed at id %s: %v", req.ID, err), http.StatusInternalServerError)
			return
		}
		ids = append(ids, req.ID)
	}

	writeJSON(w, map[string]interface{}{"success": true, "ids": ids, "count": len(ids)}, http.StatusCreated)
}

type namespaceStatsDTO struct {
	VectorCount int   `json:"vector_count"`
	Dimensions  int   `json:"dimensions"`
	MemoryBytes int64 `json:"memory_bytes"`
}

type statsResponse struct {
	TotalVectors     int                          `json:"total_vectors"`
	TotalNamespaces  int                          `json:"total_namespaces"`
	MemoryUsageBytes int64                        `json:"memory_usage_bytes"`
	NamespaceStats   map[string]namespaceStatsDTO `json:"namespace_stats"`
}

// GetStats handles GET /v1/stats and GET /v1/stats/{namespace}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/stats")
	namespace := strings.TrimPrefix(path, "/")

	stats := h.engine.Stats(namespace)
	resp := statsResponse{
		TotalVectors:     stats.TotalVectors,
		TotalNamespaces:  stats.TotalNamespaces,
		MemoryUsageBytes: stats.MemoryUsageBytes,
		NamespaceStats:   make(map[string]namespaceStatsDTO, len(stats.Namespaces)),
	}
	for name, ns := range stats.Namespaces {
		resp.NamespaceStats[name] = namespaceStatsDTO{VectorCount: ns.VectorCount, Dimensions: ns.Dimensions, MemoryBytes: ns.MemoryBytes}
	}

	writeJSON(w, resp, http.StatusOK)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthCheck handles GET /v1/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, healthResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(h.engine.Uptime().Seconds()),
	}, http.StatusOK)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ServeDocs serves the OpenAPI/Swagger documentation
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		writeError(w, "OpenAPI spec not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ServeSwaggerUI serves the Swagger UI HTML page
func ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	html := `<!DOCTYPE html>
<html>
<head>
    <title>Vector DB API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/docs/openapi.yaml",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ParseIntQuery parses an integer query parameter
func ParseIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
