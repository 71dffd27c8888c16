package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key holding the *newrelic.Application
type NewRelicContextKey struct{}

// NewContext returns a child context carrying the New Relic application and a
// transaction for operation, along with a func ending that transaction. A nil
// app returns ctx unchanged, which leaves every recorder and tracer a no-op.
func NewContext(ctx context.Context, app *newrelic.Application, operation string) (context.Context, func()) {
	if app == nil {
		return ctx, func() {}
	}

	txn := app.StartTransaction(operation)
	ctx = context.WithValue(ctx, NewRelicContextKey{}, app)
	return newrelic.NewContext(ctx, txn), txn.End
}

func fromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return app, ok && app != nil
}
