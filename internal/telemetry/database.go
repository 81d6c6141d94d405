package telemetry

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey         = "otel:span"
	maxStatementLen = 500
)

// GORMTracingPlugin traces every query, create, update and delete issued with
// a request context. A nil provider means the global one.
func GORMTracingPlugin(tp trace.TracerProvider) gorm.Plugin {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracingPlugin{tracer: tp.Tracer("gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	before := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { p.start(tx, op) }
	}
	for _, err := range []error{
		cb.Query().Before("gorm:query").Register("telemetry:before_query", before("SELECT")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", before("SELECT")),
		cb.Create().Before("gorm:create").Register("telemetry:before_create", before("INSERT")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", before("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before("DELETE")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before("RAW")),

		cb.Query().After("gorm:query").Register("telemetry:after_query", p.end),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.end),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.end),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.end),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.end),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.end),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *tracingPlugin) start(tx *gorm.DB, operation string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", tx.Dialector.Name()),
			attribute.String("db.operation", operation),
		),
	)
	tx.InstanceSet(spanKey, span)
}

func (p *tracingPlugin) end(tx *gorm.DB) {
	raw, ok := tx.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	// the table is only resolved once the statement has been built
	if table := tx.Statement.Table; table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	if sql := tx.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatementLen {
			sql = sql[:maxStatementLen] + "..."
		}
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.RowsAffected))

	if err := tx.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
