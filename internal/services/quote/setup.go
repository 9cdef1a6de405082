package quote

import (
	"context"
	"fmt"

	"msme-roi-engine/internal/config"
	"msme-roi-engine/internal/resolver"
	"msme-roi-engine/internal/services/ratesource"
	"msme-roi-engine/internal/services/ses"
	"msme-roi-engine/internal/utils"
)

// NewFromConfig loads the configured rate table and wires a service around
// it. Maintainer alerts are sent through SES when configured.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	store, err := ratesource.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate table: %w", err)
	}

	var alerter Alerter
	if cfg.AlertsEnabled() {
		sesSvc, err := ses.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		alerter = sesSvc
	} else {
		utils.GetLogger().Info("Rate table alerts disabled")
	}

	return NewService(resolver.New(store, cfg.DefaultBenchmarkRate), alerter, cfg.Stage), nil
}
