package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig holds database tracing and metrics configuration.
type DBConfig struct {
	TracingEnabled     bool
	MetricsEnabled     bool
	LogFullSQL         bool // include bound variables in spans
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DBPlugin is a gorm plugin adding otelgorm spans, slow query marking and
// query metrics.
type DBPlugin struct {
	config DBConfig
	meter  metric.Meter
	logger *zap.Logger

	queryTotal     *Counter
	slowQueryTotal *Counter
	queryDuration  *Histogram
}

type queryStartKey struct{}

// NewDBPlugin creates the plugin. meter may be nil when metrics are disabled.
func NewDBPlugin(cfg DBConfig, meter metric.Meter, logger *zap.Logger) (*DBPlugin, error) {
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	p := &DBPlugin{config: cfg, meter: meter, logger: logger}

	if cfg.MetricsEnabled && meter != nil {
		var err error
		if p.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation and table", "{query}"); err != nil {
			return nil, err
		}
		if p.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Database queries slower than the threshold", "{query}"); err != nil {
			return nil, err
		}
		if p.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBPlugin) Name() string {
	return "shopledger:telemetry"
}

// Initialize implements gorm.Plugin
func (p *DBPlugin) Initialize(db *gorm.DB) error {
	if !p.config.TracingEnabled && p.queryTotal == nil {
		p.logger.Debug("Database telemetry disabled")
		return nil
	}

	if p.config.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.after("insert")),
		cb.Query().After("gorm:query").Register("telemetry:after_query", p.after("select")),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.after("update")),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.after("delete")),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.after("select")),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.after("raw")),
	)
	if err != nil {
		return err
	}

	p.logger.Info("Database telemetry enabled",
		zap.Bool("tracing", p.config.TracingEnabled),
		zap.Bool("metrics", p.queryTotal != nil),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold),
	)
	return nil
}

func (p *DBPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, timed := ctx.Value(queryStartKey{}).(time.Time)
		var elapsed time.Duration
		if timed {
			elapsed = time.Since(start)
		}
		slow := timed && elapsed > p.config.SlowQueryThreshold
		failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)

		if p.queryTotal != nil {
			attrs := []attribute.KeyValue{
				AttrDBOperation.String(operation),
				AttrDBTable.String(db.Statement.Table),
				attribute.Bool("error", failed),
			}
			p.queryTotal.Inc(ctx, attrs...)
			if timed {
				p.queryDuration.RecordDuration(ctx, elapsed, attrs[:2]...)
			}
			if slow {
				p.slowQueryTotal.Inc(ctx, attrs[:2]...)
			}
		}

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if failed {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}
		if slow {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThreshold.Milliseconds()),
			))
		}
	}
}
