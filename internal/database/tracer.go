package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const slowQueryThreshold = 200 * time.Millisecond

type queryStartKey struct{}

// queryTracer records a client span per statement and logs slow or failed
// queries. Statement arguments are never recorded.
type queryTracer struct {
	tracer    trace.Tracer
	slowAfter time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func newQueryTracer(logger zerolog.Logger) *queryTracer {
	return &queryTracer{
		tracer:    otel.Tracer("storefront/internal/database"),
		slowAfter: slowQueryThreshold,
		now:       time.Now,
		logger:    logger.With().Str("component", "pgx").Logger(),
	}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = t.tracer.Start(ctx, "db "+operation(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", data.SQL),
		),
	)
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: t.now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}

	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(start.at)

	switch {
	case data.Err != nil && ctx.Err() == nil:
		t.logger.Debug().Err(data.Err).Str("sql", start.sql).Dur("duration", elapsed).Msg("query failed")
	case elapsed >= t.slowAfter:
		t.logger.Warn().Str("sql", start.sql).Dur("duration", elapsed).Msg("slow query")
	}
}

type queryStart struct {
	sql string
	at  time.Time
}

// operation returns the leading SQL keyword, upper-cased.
func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}
