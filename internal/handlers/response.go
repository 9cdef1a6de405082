// Package handlers adapts the quote service and the rate table maintenance
// flows to API Gateway, S3 events and net/http.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/services/quote"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
	Reason       string `json:"reason,omitempty"`
	DiagnosticID string `json:"diagnostic_id,omitempty"`
}

// calculationUnavailable is all a client learns about a rate table gap.
const calculationUnavailable = "calculation unavailable"

// StatusFor maps a quote error onto an HTTP status and response body.
// Invalid input is 400, an ineligible request 422 and anything else 500.
// Rate table details never reach the client; the diagnostic id ties the
// response to the logged failure.
func StatusFor(err error) (int, ErrorResponse) {
	var (
		qErr       *quote.Error
		invalid    *models.InvalidInputError
		ineligible *models.IneligibleError
	)

	resp := ErrorResponse{}
	if errors.As(err, &qErr) {
		resp.DiagnosticID = qErr.ID
	}

	switch {
	case errors.As(err, &invalid):
		resp.Error = http.StatusText(http.StatusBadRequest)
		resp.Message = invalid.Error()
		resp.Field = invalid.Field
		return http.StatusBadRequest, resp

	case errors.As(err, &ineligible):
		resp.Error = http.StatusText(http.StatusUnprocessableEntity)
		resp.Message = ineligible.Error()
		resp.Reason = string(ineligible.Result.Reason)
		return http.StatusUnprocessableEntity, resp
	}

	resp.Error = http.StatusText(http.StatusInternalServerError)
	resp.Message = calculationUnavailable
	return http.StatusInternalServerError, resp
}

// apiHeaders are set on every API Gateway response.
func apiHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Content-Type":                 "application/json",
	}
}

// apiResponse encodes body for API Gateway.
func apiResponse(statusCode int, body any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    apiHeaders(),
		Body:       string(data),
	}, nil
}

// apiError creates an error response with a plain message.
func apiError(statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	return apiResponse(statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// preflight answers a CORS OPTIONS request.
func preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    apiHeaders(),
	}
}

// writeJSON encodes body onto a net/http response.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a plain error body onto a net/http response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
