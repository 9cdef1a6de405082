package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/handlers"
	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/ratetable"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/quote"
)

func newQuoteHandler(t *testing.T, store *ratetable.Store) *handlers.QuoteHandler {
	t.Helper()
	r := resolver.New(store, decimal.RequireFromString("8.25"))
	return handlers.NewQuoteHandler(quote.NewService(r, nil, "test"))
}

func sparseStore(t *testing.T) *ratetable.Store {
	t.Helper()
	store, err := ratetable.Build("sparse", []ratetable.Entry{
		{TableID: ratetable.TableBaseGeneral, Kind: ratetable.KindAmountBand, Key: "10", Value: decimal.RequireFromString("2")},
		{TableID: ratetable.TableTenurePremium, Kind: ratetable.KindTenurePremium, Key: "1-3y", Value: decimal.RequireFromString("0.10")},
		{TableID: ratetable.TableCollateralConcession, Kind: ratetable.KindCollateralConcession, Key: "lt50", Value: decimal.Zero},
	})
	require.NoError(t, err)
	return store
}

func post(t *testing.T, h http.Handler, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/roi", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestQuoteHandler_StatusMapping(t *testing.T) {
	h := newQuoteHandler(t, ratetable.Builtin())

	tests := []struct {
		name   string
		body   string
		status int
		check  func(t *testing.T, out map[string]any)
	}{
		{
			name:   "resolved",
			body:   `{"amount":40,"scheme":"general","loan_type":"cash_credit","security_type":"collateral","collateral_coverage":"75-100"}`,
			status: http.StatusOK,
			check: func(t *testing.T, out map[string]any) {
				breakdown := out["breakdown"].(map[string]any)
				assert.Equal(t, "10.40", breakdown["final_rate"])
				assert.Equal(t, "small", breakdown["regime"])
				assert.NotEmpty(t, out["diagnostic_id"])
			},
		},
		{
			name:   "invalid amount",
			body:   `{"amount":0,"scheme":"general","loan_type":"cash_credit","security_type":"cgtmse"}`,
			status: http.StatusBadRequest,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "amount", out["field"])
			},
		},
		{
			name:   "missing internal rating",
			body:   `{"amount":100,"scheme":"general","loan_type":"cash_credit","security_type":"collateral","collateral_coverage":"75-100"}`,
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, string(models.ReasonMissingInternalRating), out["reason"])
				assert.NotEmpty(t, out["diagnostic_id"])
			},
		},
		{
			name:   "malformed json",
			body:   `{"amount":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := post(t, h, tt.body)
			assert.Equal(t, tt.status, status)
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestQuoteHandler_ResolutionErrorHidesTableDetails(t *testing.T) {
	h := newQuoteHandler(t, sparseStore(t))

	status, out := post(t, h, `{"amount":40,"scheme":"general","loan_type":"cc","security_type":"cgtmse"}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "calculation unavailable", out["message"])
	assert.NotEmpty(t, out["diagnostic_id"])
	assert.NotContains(t, out["message"], ratetable.TableBaseGeneral)
}

func TestQuoteHandler_RejectsOtherMethods(t *testing.T) {
	h := newQuoteHandler(t, ratetable.Builtin())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/roi", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQuoteHandler_Lambda(t *testing.T) {
	h := newQuoteHandler(t, ratetable.Builtin())

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"amount":"15","scheme":"mudra","loan_type":"term_loan","security_type":"cgtmse"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	var out handlers.QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, "10.6", out.Breakdown.FinalRate.String())
	assert.Contains(t, resp.Body, `"final_rate":"10.60"`)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
}

func TestQuoteHandler_Schemes(t *testing.T) {
	h := newQuoteHandler(t, ratetable.Builtin())

	rec := httptest.NewRecorder()
	h.ServeSchemes(rec, httptest.NewRequest(http.MethodGet, "/api/schemes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out handlers.SchemesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, ratetable.BuiltinVersion, out.TableVersion)
	require.Len(t, out.Schemes, len(models.ValidSchemes()))
	assert.Equal(t, models.SchemeGeneral, out.Schemes[0].Scheme)
	assert.Nil(t, out.Schemes[0].MaxAmount)
	assert.True(t, out.Schemes[0].FlatBandCeiling.Equal(decimal.NewFromInt(50)))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", models.NewInvalidInput("amount", "0", models.ErrNotPositive), http.StatusBadRequest},
		{"ineligible", models.Ineligible(models.ReasonMissingTenure, "").Err(), http.StatusUnprocessableEntity},
		{"resolution", &models.ResolutionError{Scheme: models.SchemeGeneral, Table: "t", Key: "k", Err: models.ErrUnknownKey}, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handlers.StatusFor(&quote.Error{ID: "q-1", Err: tt.err})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, "q-1", body.DiagnosticID)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
		})
	}
}
