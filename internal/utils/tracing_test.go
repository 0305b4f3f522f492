package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

func TestTraceEndpointStep(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := TraceEndpointStep(context.Background(), "send_code", map[string]interface{}{
		"otp.length":  6,
		"otp.ttl":     2 * time.Minute,
		"otp.enabled": true,
		"otp.ratio":   0.5,
		"otp.other":   struct{}{},
	})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "endpoint.step.send_code", ended[0].Name())

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "send_code", attrs["step.name"])
	assert.Equal(t, "6", attrs["otp.length"])
	assert.Equal(t, "2m0s", attrs["otp.ttl"])
	assert.Equal(t, "true", attrs["otp.enabled"])
	assert.Equal(t, "unknown_type", attrs["otp.other"])
}

func TestTraceDatabaseOperation(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := TraceDatabaseOperation(context.Background(), "replace", "otp_verifications")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "endpoint.step.database_replace", ended[0].Name())
	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "otp_verifications", attrs["db.collection"])
	assert.Equal(t, "mongodb", attrs["db.system"])
}

func TestRecordErrorInSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	_, span := TraceExternalService(context.Background(), "sms_gateway", "send")
	RecordErrorInSpan(span, errors.New("gateway down"), map[string]interface{}{"sms.status": 503})
	AddSpanAttribute(span, "sms.retry", false)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "503", attrs["sms.status"])
	assert.Equal(t, "false", attrs["sms.retry"])
}
