// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Call attributes
	CallIDKey     = "call.id"
	CallStatusKey = "call.status"

	// Voice attributes
	VoiceIDKey = "voice.id"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, userAgent string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPUserAgentKey, userAgent),
	}
}

// HTTPStatusAttribute records the response status code on a span.
func HTTPStatusAttribute(statusCode int) attribute.KeyValue {
	return attribute.Int(HTTPStatusCodeKey, statusCode)
}

// CallAttributes creates call-related span attributes.
func CallAttributes(callID, status string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if callID != "" {
		attrs = append(attrs, attribute.String(CallIDKey, callID))
	}
	if status != "" {
		attrs = append(attrs, attribute.String(CallStatusKey, status))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
