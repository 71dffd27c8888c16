package metrics

import (
	"context"
	"time"
)

// RecordEvent records a custom event with a set of attributes
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := fromContext(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}

func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app, ok := fromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := fromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration/time.Millisecond))
	}
}
