package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer is a segment for one method call within the transaction
// carried by a context. A nil MethodTracer is valid and records nothing.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named "<structOrPackageName> <methodName>"
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(structOrPackageName + " " + methodName),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t != nil {
		t.seg.AddAttribute(key, value)
	}
}

// OnError notices err on the enclosing transaction
func (t *MethodTracer) OnError(err error) {
	if t != nil && err != nil {
		t.txn.NoticeError(err)
	}
}

func (t *MethodTracer) End() {
	if t != nil {
		t.seg.End()
	}
}
