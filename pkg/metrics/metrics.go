package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key carrying the *newrelic.Application
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a context carrying the New Relic application. A nil
// application leaves metrics disabled.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

func applicationFromContext(ctx context.Context) (*newrelic.Application, bool) {
	nr, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return nr, ok && nr != nil
}

// RecordCount records a count metric
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if nr, ok := applicationFromContext(ctx); ok {
		nr.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if nr, ok := applicationFromContext(ctx); ok {
		nr.RecordCustomMetric(metricName, float64(duration/time.Millisecond))
	}
}
