// Package ratesource loads the rate table store once at process start from
// the source named by RATE_TABLE_SOURCE.
package ratesource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/eligibility"
	"msme-roi-engine/internal/metrics"
	"msme-roi-engine/internal/ratetable"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/database"
	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/utils"
)

// ErrUnknownSource is returned for an unrecognised RATE_TABLE_SOURCE.
var ErrUnknownSource = errors.New("unknown rate table source")

// Load builds the store from the configured source and audits it against
// the scheme rules. Gaps are logged, not fatal: a request that reaches one
// fails with a resolution error.
func Load(ctx context.Context, cfg *config.Config) (*ratetable.Store, error) {
	logger := utils.GetLogger()

	store, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gaps := resolver.AuditCoverage(store, eligibility.Rules())
	for _, gap := range gaps {
		logger.Warn("Rate table gap", zap.String("version", store.Version()), zap.Error(gap))
	}

	entries := len(store.Entries())
	metrics.RateTableEntries.WithLabelValues(store.Version()).Set(float64(entries))

	logger.Info("Rate table loaded",
		zap.String("source", cfg.RateTableSource),
		zap.String("version", store.Version()),
		zap.Int("entries", entries),
		zap.Int("gaps", len(gaps)),
	)

	return store, nil
}

func load(ctx context.Context, cfg *config.Config) (*ratetable.Store, error) {
	switch cfg.RateTableSource {
	case config.RateTableSourceBuiltin, "":
		return ratetable.Builtin(), nil

	case config.RateTableSourceFile:
		data, err := os.ReadFile(cfg.RateTablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rate table file: %w", err)
		}
		return FromCSV(versionFromPath(cfg.RateTablePath), data)

	case config.RateTableSourceS3:
		svc, err := s3service.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		data, err := svc.DownloadFile(ctx, cfg.RateTableS3Key)
		if err != nil {
			return nil, err
		}
		return FromCSV(s3service.VersionFromKey(cfg.RateTableS3Key), data)

	case config.RateTableSourcePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return database.NewRateTableRepository(db).LoadActive(ctx)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.RateTableSource)
}

// FromCSV parses and builds a store. Any unparsable row fails the whole
// table; a partially loaded table would silently misprice.
func FromCSV(version string, data []byte) (*ratetable.Store, error) {
	entries, errs := utils.NewCSVParser().ParseEntries(string(data))
	if len(errs) > 0 {
		return nil, fmt.Errorf("rate table %s: %w", version, errors.Join(errs...))
	}

	store, err := ratetable.Build(version, entries)
	if err != nil {
		return nil, fmt.Errorf("rate table %s: %w", version, err)
	}
	return store, nil
}

func versionFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
