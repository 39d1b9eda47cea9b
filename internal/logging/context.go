package logging

import "context"

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// TraceIDKey returns the context key used to carry a trace ID.
func TraceIDKey() interface{} { return traceIDKey }

// SpanIDKey returns the context key used to carry a span ID.
func SpanIDKey() interface{} { return spanIDKey }

// contextFields extracts trace_id and span_id from ctx. Always returns a
// usable (possibly empty) map.
func contextFields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{}, 2)
	if ctx == nil {
		return fields
	}
	if v := ctx.Value(traceIDKey); v != nil {
		fields["trace_id"] = v
	}
	if v := ctx.Value(spanIDKey); v != nil {
		fields["span_id"] = v
	}
	return fields
}
