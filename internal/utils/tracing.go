package utils

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "copper-mobile-api"

// toAttributes converts loosely typed values to OpenTelemetry attributes
func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		attrs = append(attrs, toAttribute(k, v))
	}
	return attrs
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch val := value.(type) {
	case string:
		return attribute.String(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case bool:
		return attribute.Bool(key, val)
	case float64:
		return attribute.Float64(key, val)
	case time.Duration:
		return attribute.String(key, val.String())
	default:
		return attribute.String(key, "unknown_type")
	}
}

// TraceEndpointStep traces a specific step within an endpoint
func TraceEndpointStep(ctx context.Context, stepName string, attributes map[string]interface{}) (context.Context, trace.Span) {
	stepAttributes := map[string]interface{}{
		"step.name": stepName,
		"step.type": "endpoint_operation",
	}
	for k, v := range attributes {
		stepAttributes[k] = v
	}

	return otel.Tracer(tracerName).Start(ctx, "endpoint.step."+stepName, trace.WithAttributes(toAttributes(stepAttributes)...))
}

// TraceInputParsing traces input parsing operations
func TraceInputParsing(ctx context.Context, inputType string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "parse_input", map[string]interface{}{
		"input.type": inputType,
	})
}

// TraceInputValidation traces input validation operations
func TraceInputValidation(ctx context.Context, validationType, field string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "validate_input", map[string]interface{}{
		"validation.type":  validationType,
		"validation.field": field,
	})
}

// TraceDatabaseOperation traces a database operation on a collection
func TraceDatabaseOperation(ctx context.Context, operation, collection string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "database_"+operation, map[string]interface{}{
		"db.collection": collection,
		"db.operation":  operation,
		"db.system":     "mongodb",
	})
}

// TraceCacheGet traces cache get operations
func TraceCacheGet(ctx context.Context, cacheKey string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "cache_get", map[string]interface{}{
		"cache.key":       cacheKey,
		"cache.operation": "get",
	})
}

// TraceCacheSet traces cache set operations
func TraceCacheSet(ctx context.Context, cacheKey string, ttl time.Duration) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "cache_set", map[string]interface{}{
		"cache.key":       cacheKey,
		"cache.operation": "set",
		"cache.ttl":       ttl,
	})
}

// TraceBusinessLogic traces business logic operations
func TraceBusinessLogic(ctx context.Context, logicType string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "business_logic", map[string]interface{}{
		"logic.type": logicType,
	})
}

// TraceExternalService traces external service calls
func TraceExternalService(ctx context.Context, serviceName, operation string) (context.Context, trace.Span) {
	return TraceEndpointStep(ctx, "external_service", map[string]interface{}{
		"service.name":      serviceName,
		"service.operation": operation,
	})
}

// RecordErrorInSpan records an error in a span with additional context
func RecordErrorInSpan(span trace.Span, err error, context map[string]interface{}) {
	span.RecordError(err)
	span.SetAttributes(toAttributes(context)...)
}

// AddSpanAttribute adds a single attribute to a span
func AddSpanAttribute(span trace.Span, key string, value interface{}) {
	span.SetAttributes(toAttribute(key, value))
}
