package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"msme-roi-engine/internal/utils"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db           Pinger
	tableVersion string
	stage        string
	version      string
}

// NewHealthHandler creates a new health handler. db may be nil when the
// rate table is not served from Postgres.
func NewHealthHandler(db Pinger, tableVersion, stage, version string) *HealthHandler {
	return &HealthHandler{db: db, tableVersion: tableVersion, stage: stage, version: version}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	Stage        string `json:"stage"`
	TableVersion string `json:"table_version,omitempty"`
	Database     string `json:"database"`
}

// Check builds the health report.
func (h *HealthHandler) Check(ctx context.Context) (int, HealthResponse) {
	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      utils.ServiceName,
		Version:      h.version,
		Stage:        h.stage,
		TableVersion: h.tableVersion,
		Database:     "not configured",
	}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			response.Database = "disconnected"
			response.Status = "degraded"
		} else {
			response.Database = "connected"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	return statusCode, response
}

// Handle processes API Gateway health check requests.
func (h *HealthHandler) Handle(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	statusCode, response := h.Check(ctx)
	return apiResponse(statusCode, response)
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	statusCode, response := h.Check(r.Context())
	writeJSON(w, statusCode, response)
}
