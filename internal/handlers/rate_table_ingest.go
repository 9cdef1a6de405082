package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/ratetable"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/database"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/services/ses"
	"msme-roi-engine/internal/utils"
)

// maxReportedProblems bounds the problems listed per upload.
const maxReportedProblems = 20

// ObjectStore reads uploaded rate tables and files them away afterwards.
type ObjectStore interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	Archive(ctx context.Context, key, version string) (string, error)
	Reject(ctx context.Context, key string) (string, error)
}

// VersionStore persists rate table versions.
type VersionStore interface {
	SaveVersion(ctx context.Context, version, source string, entries []ratetable.Entry, activate bool) error
}

// IngestReporter tells maintainers how an upload went.
type IngestReporter interface {
	SendIngestReport(ctx context.Context, report ses.IngestReport) (*ses.SendEmailResult, error)
}

// RateTableIngestHandler turns rate table CSVs dropped under the incoming
// prefix into new active Postgres versions.
type RateTableIngestHandler struct {
	objects  ObjectStore
	versions VersionStore
	reporter IngestReporter
}

// NewRateTableIngestHandler creates a new ingest handler. reporter may be nil.
func NewRateTableIngestHandler(objects ObjectStore, versions VersionStore, reporter IngestReporter) *RateTableIngestHandler {
	return &RateTableIngestHandler{objects: objects, versions: versions, reporter: reporter}
}

// IngestResult is the outcome of one uploaded object.
type IngestResult struct {
	ObjectKey string   `json:"object_key"`
	Version   string   `json:"version"`
	Accepted  bool     `json:"accepted"`
	Entries   int      `json:"entries"`
	MovedTo   string   `json:"moved_to,omitempty"`
	Problems  []string `json:"problems,omitempty"`
}

// IngestResponse is returned to the Lambda runtime.
type IngestResponse struct {
	Message string         `json:"message"`
	Results []IngestResult `json:"results,omitempty"`
}

// Handle processes S3 events for uploaded rate tables. A rejected upload is
// not a handler error; only infrastructure failures are returned so that
// the runtime retries them.
func (h *RateTableIngestHandler) Handle(ctx context.Context, s3Event events.S3Event) (IngestResponse, error) {
	logger := utils.GetLogger()

	if len(s3Event.Records) == 0 {
		return IngestResponse{Message: "No records to process"}, nil
	}

	resp := IngestResponse{Message: "Rate tables processed"}
	for _, record := range s3Event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return resp, fmt.Errorf("failed to decode S3 key: %w", err)
		}
		if !strings.HasPrefix(key, s3service.IncomingPrefix) {
			logger.Info("Skipping object outside incoming prefix", utils.String("key", key))
			continue
		}

		source := "s3://" + record.S3.Bucket.Name + "/" + key
		result, err := h.ingest(ctx, key, source)
		if err != nil {
			return resp, err
		}
		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

func (h *RateTableIngestHandler) ingest(ctx context.Context, key, source string) (IngestResult, error) {
	logger := utils.GetLogger().With(utils.String("key", key))
	result := IngestResult{ObjectKey: key, Version: s3service.VersionFromKey(key)}

	data, err := h.objects.DownloadFile(ctx, key)
	if err != nil {
		logger.Error("Failed to download rate table", utils.Error(err))
		return result, fmt.Errorf("failed to download rate table: %w", err)
	}

	entries, problems := validateUpload(result.Version, data)
	result.Entries = len(entries)
	result.Problems = problems
	result.Accepted = len(entries) > 0

	if result.Accepted {
		err := h.versions.SaveVersion(ctx, result.Version, source, entries, true)
		switch {
		case err == nil:
		case errors.Is(err, database.ErrVersionExists):
			result.Accepted = false
			result.Problems = append(result.Problems, err.Error())
		default:
			logger.Error("Failed to store rate table version", utils.Error(err))
			return result, fmt.Errorf("failed to store rate table version: %w", err)
		}
	}

	if result.Accepted {
		result.MovedTo, err = h.objects.Archive(ctx, key, result.Version)
	} else {
		result.MovedTo, err = h.objects.Reject(ctx, key)
	}
	if err != nil {
		logger.Warn("Failed to move rate table object", utils.Error(err))
		result.MovedTo = ""
	}

	logger.Info("Rate table ingested",
		utils.String("version", result.Version),
		utils.Bool("accepted", result.Accepted),
		utils.Int("entries", result.Entries),
		utils.Int("problems", len(result.Problems)),
	)

	h.report(ctx, logger, result)
	return result, nil
}

// validateUpload parses and builds the table. It returns no entries when
// the upload must be rejected; audit gaps are reported but do not reject.
func validateUpload(version string, data []byte) ([]ratetable.Entry, []string) {
	entries, errs := utils.NewCSVParser().ParseEntries(string(data))
	if len(errs) > 0 {
		return nil, errorStrings(errs)
	}

	store, err := ratetable.Build(version, entries)
	if err != nil {
		return nil, []string{err.Error()}
	}

	return entries, errorStrings(resolver.AuditCoverage(store, eligibility.Rules()))
}

func (h *RateTableIngestHandler) report(ctx context.Context, logger *zap.Logger, result IngestResult) {
	if h.reporter == nil {
		return
	}

	_, err := h.reporter.SendIngestReport(ctx, ses.IngestReport{
		ObjectKey: result.ObjectKey,
		Version:   result.Version,
		Accepted:  result.Accepted,
		Entries:   result.Entries,
		Problems:  result.Problems,
	})
	if err != nil {
		logger.Warn("Failed to send ingest report", utils.Error(err))
	}
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}

	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	if len(out) > maxReportedProblems {
		more := len(out) - maxReportedProblems
		out = append(out[:maxReportedProblems], fmt.Sprintf("... and %d more", more))
	}
	return out
}
