package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/services/quote"
	"msme-roi-engine/internal/utils"
)

// maxQuoteBody bounds a quote request body.
const maxQuoteBody = 64 << 10

// QuoteHandler serves rate quotes over API Gateway and net/http.
type QuoteHandler struct {
	svc *quote.Service
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// QuoteResponse is the body of a successful quote.
type QuoteResponse struct {
	DiagnosticID string               `json:"diagnostic_id"`
	Breakdown    *models.ROIBreakdown `json:"breakdown"`
}

// Handle processes an API Gateway quote request.
func (h *QuoteHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return preflight(), nil
	}
	if request.HTTPMethod != "" && request.HTTPMethod != http.MethodPost {
		return apiError(http.StatusMethodNotAllowed, "use POST")
	}

	statusCode, body := h.quote(ctx, []byte(request.Body))
	return apiResponse(statusCode, body)
}

// ServeHTTP handles POST /api/roi.
func (h *QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQuoteBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	statusCode, body := h.quote(r.Context(), data)
	writeJSON(w, statusCode, body)
}

func (h *QuoteHandler) quote(ctx context.Context, body []byte) (int, any) {
	req, err := decodeQuoteRequest(body)
	if err != nil {
		utils.GetLogger().Info("Malformed quote request", utils.Error(err))
		return http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: err.Error(),
		}
	}

	res, err := h.svc.Quote(ctx, req)
	if err != nil {
		return StatusFor(err)
	}

	return http.StatusOK, QuoteResponse{DiagnosticID: res.ID, Breakdown: res.Breakdown}
}

var errEmptyBody = errors.New("request body is empty")

func decodeQuoteRequest(body []byte) (quote.Request, error) {
	var req quote.Request
	if len(bytes.TrimSpace(body)) == 0 {
		return req, errEmptyBody
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.New("request body is not valid JSON")
	}
	return req, nil
}

// SchemesResponse lists the supported schemes.
type SchemesResponse struct {
	TableVersion string                 `json:"table_version"`
	Schemes      []models.SchemeSummary `json:"schemes"`
}

// Schemes returns the summary of every scheme rule.
func (h *QuoteHandler) Schemes() SchemesResponse {
	rules := eligibility.Rules()
	out := SchemesResponse{
		TableVersion: h.svc.TableVersion(),
		Schemes:      make([]models.SchemeSummary, 0, len(rules)),
	}
	for _, rule := range rules {
		out.Schemes = append(out.Schemes, rule.ToSummary())
	}
	return out
}

// ServeSchemes handles GET /api/schemes.
func (h *QuoteHandler) ServeSchemes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, h.Schemes())
}
