package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRecordersWithoutAgent(t *testing.T) {
	ctx, end := NewContext(context.Background(), nil, "mint")
	defer end()
	assert.Nil(t, ctx.Value(NewRelicContextKey{}))

	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})

	tracer := TraceMethodCall(ctx, "pkg", "Method")
	assert.Nil(t, tracer)

	tracer.AddAttribute("key", "value")
	tracer.OnError(errors.New("error"))
	tracer.End()
}

func TestNewRelicMessage(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	entry.Message = "rejecting invocation"
	assert.Equal(t, "rejecting invocation", newRelicMessage(entry))

	entry = entry.WithField("mint", "abc").WithError(errors.New("mint exists"))
	entry.Message = "rejecting invocation"
	assert.Equal(
		t,
		`message="rejecting invocation", error="mint exists", data={"mint":"abc"}`,
		newRelicMessage(entry),
	)
}
