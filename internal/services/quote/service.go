// Package quote is the boundary between transports and the resolver. It
// decodes loose input, resolves a rate, and does the logging, metrics and
// alerting the core leaves out.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"msme-roi-engine/internal/metrics"
	"msme-roi-engine/internal/models"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/ses"
	"msme-roi-engine/internal/utils"
)

// Request is a quote request as clients send it. Amounts may be JSON
// numbers or strings; enum fields accept the aliases of the models parsers.
type Request struct {
	BenchmarkRate      json.Number `json:"benchmark_rate,omitempty"`
	Amount             json.Number `json:"amount"`
	Scheme             string      `json:"scheme"`
	LoanType           string      `json:"loan_type"`
	SecurityType       string      `json:"security_type"`
	CollateralCoverage string      `json:"collateral_coverage,omitempty"`
	Tenure             string      `json:"tenure,omitempty"`
	InternalRating     string      `json:"internal_rating,omitempty"`
	ExternalRating     string      `json:"external_rating,omitempty"`
}

// Result is a successful quote.
type Result struct {
	ID        string               `json:"id"`
	Breakdown *models.ROIBreakdown `json:"breakdown"`
}

// Alerter notifies rate table maintainers.
type Alerter interface {
	SendResolutionAlert(ctx context.Context, alert ses.ResolutionAlert) (*ses.SendEmailResult, error)
}

// Service resolves quotes.
type Service struct {
	resolver *resolver.Resolver
	alerter  Alerter
	stage    string
}

// NewService creates a quote service. alerter may be nil.
func NewService(r *resolver.Resolver, alerter Alerter, stage string) *Service {
	return &Service{resolver: r, alerter: alerter, stage: stage}
}

// TableVersion returns the version of the rate table in use.
func (s *Service) TableVersion() string {
	return s.resolver.TableVersion()
}

// Quote resolves req. Every call gets an id that is returned with the result
// and attached to errors as a *Error so callers can report it.
func (s *Service) Quote(ctx context.Context, req Request) (*Result, error) {
	id := uuid.New().String()
	logger := utils.QuoteLogger(id)
	start := time.Now()
	defer func() {
		metrics.LatencyBucket.WithLabelValues("quote").Observe(time.Since(start).Seconds())
	}()

	loan, err := ParseRequest(req)
	if err != nil {
		metrics.QuotesTotal.WithLabelValues(schemeLabel(req.Scheme), metrics.OutcomeInvalid).Inc()
		logger.Info("Rejected quote request", zap.Error(err))
		return nil, &Error{ID: id, Err: err}
	}

	breakdown, err := s.resolver.Resolve(loan)
	if err != nil {
		s.recordFailure(ctx, logger, id, loan, err)
		return nil, &Error{ID: id, Err: err}
	}

	metrics.QuotesTotal.WithLabelValues(string(loan.Scheme), metrics.OutcomeOK).Inc()
	metrics.FinalRate.WithLabelValues(string(loan.Scheme), string(breakdown.Regime)).Observe(breakdown.FinalRate.InexactFloat64())

	logger.Info("Quote resolved",
		zap.String("scheme", string(loan.Scheme)),
		zap.String("regime", string(breakdown.Regime)),
		zap.String("spread_source", breakdown.SpreadSource),
		utils.Decimal("benchmark_rate", breakdown.BenchmarkRate),
		utils.Rate("final_rate", breakdown.FinalRate),
		zap.Bool("floor_applied", breakdown.FloorApplied),
	)

	return &Result{ID: id, Breakdown: breakdown}, nil
}

func (s *Service) recordFailure(ctx context.Context, logger *zap.Logger, id string, loan models.LoanRequest, err error) {
	scheme := string(loan.Scheme)

	var (
		invalid    *models.InvalidInputError
		ineligible *models.IneligibleError
		resErr     *models.ResolutionError
	)

	switch {
	case errors.As(err, &invalid):
		metrics.QuotesTotal.WithLabelValues(schemeLabel(scheme), metrics.OutcomeInvalid).Inc()
		logger.Info("Rejected quote request", zap.Error(err))

	case errors.As(err, &ineligible):
		metrics.QuotesTotal.WithLabelValues(scheme, metrics.OutcomeIneligible).Inc()
		metrics.IneligibleTotal.WithLabelValues(scheme, string(ineligible.Result.Reason)).Inc()
		logger.Info("Quote ineligible",
			zap.String("scheme", scheme),
			zap.String("reason", string(ineligible.Result.Reason)),
		)

	case errors.As(err, &resErr):
		metrics.QuotesTotal.WithLabelValues(scheme, metrics.OutcomeResolution).Inc()
		metrics.ResolutionErrors.WithLabelValues(scheme, resErr.Table).Inc()
		logger.Error("Rate table gap",
			zap.String("scheme", scheme),
			zap.String("table", resErr.Table),
			zap.String("key", resErr.Key),
			zap.String("table_version", s.resolver.TableVersion()),
			zap.Error(err),
		)
		s.alert(ctx, logger, id, loan, resErr)

	default:
		logger.Error("Quote failed", zap.Error(err))
	}
}

func (s *Service) alert(ctx context.Context, logger *zap.Logger, id string, loan models.LoanRequest, resErr *models.ResolutionError) {
	if s.alerter == nil {
		return
	}

	request, _ := json.MarshalIndent(loan, "", "  ")
	_, err := s.alerter.SendResolutionAlert(ctx, ses.ResolutionAlert{
		DiagnosticID: id,
		Scheme:       string(resErr.Scheme),
		Table:        resErr.Table,
		Key:          resErr.Key,
		TableVersion: s.resolver.TableVersion(),
		Stage:        s.stage,
		Request:      string(request),
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("Failed to alert rate table maintainers", zap.Error(err))
	}
}

// ParseRequest converts loose client input into a LoanRequest.
func ParseRequest(req Request) (models.LoanRequest, error) {
	var (
		loan models.LoanRequest
		err  error
	)

	if req.BenchmarkRate != "" {
		if loan.BenchmarkRate, err = parseNumber("benchmark_rate", req.BenchmarkRate); err != nil {
			return loan, err
		}
	}

	if req.Amount == "" {
		return loan, models.NewInvalidInput("amount", "", models.ErrFieldRequired)
	}
	if loan.Amount, err = parseNumber("amount", req.Amount); err != nil {
		return loan, err
	}

	if loan.Scheme, err = models.ParseScheme(req.Scheme); err != nil {
		return loan, err
	}
	if loan.LoanType, err = models.ParseLoanType(req.LoanType); err != nil {
		return loan, err
	}
	if loan.SecurityType, err = models.ParseSecurityType(req.SecurityType); err != nil {
		return loan, err
	}
	if loan.CollateralCoverage, err = models.ParseCollateralBand(req.CollateralCoverage); err != nil {
		return loan, err
	}
	if loan.Tenure, err = models.ParseTenureBand(req.Tenure); err != nil {
		return loan, err
	}
	if loan.InternalRating, err = models.ParseInternalRating(req.InternalRating); err != nil {
		return loan, err
	}
	if loan.ExternalRating, err = models.ParseExternalRating(req.ExternalRating); err != nil {
		return loan, err
	}

	return loan, nil
}

func parseNumber(field string, n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(n.String()))
	if err != nil {
		return decimal.Zero, models.NewInvalidInput(field, n.String(), models.ErrInvalidNumber)
	}
	return d, nil
}

// schemeLabel bounds metric label cardinality to known schemes.
func schemeLabel(s string) string {
	if scheme, err := models.ParseScheme(s); err == nil && scheme != "" {
		return string(scheme)
	}
	return "unknown"
}
