package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls query spans for the ledger and count repositories
type DBTracingConfig struct {
	Enabled bool
	DBName  string
	// WithQueryVariables puts bound values into db.statement; keep it off in production
	WithQueryVariables bool
}

// RegisterDBTracing adds the otelgorm callbacks to db. Spans join the request
// trace through the context passed to gorm's WithContext.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.WithQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm plugin: %w", err)
	}
	logger.Info("Query tracing enabled", zap.String("db_name", cfg.DBName))
	return nil
}
