package metrics

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// StartTransaction starts a New Relic transaction when an application is
// available on the context and no transaction is already in progress. The
// returned function ends the transaction and is always safe to call.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	if newrelic.FromContext(ctx) != nil {
		return ctx, func() {}
	}

	nr, ok := applicationFromContext(ctx)
	if !ok {
		return ctx, func() {}
	}

	txn := nr.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}

// TraceMethodCall traces a method call with a given struct/package and method names
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	seg := txn.StartSegment(fmt.Sprintf("%s %s", structOrPackageName, methodName))

	return &MethodTracer{
		txn: txn,
		seg: seg,
	}
}

// MethodTracer collects analytics for a given method call within an existing
// trace. A nil tracer is a no-op.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

// OnError observes an error within a method trace
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()
}
