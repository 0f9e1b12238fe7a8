// SPDX-License-Identifier: MIT

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/trigger-call", "wizard/1.0")
	assert.Contains(t, attrs, attribute.String(HTTPMethodKey, "POST"))
	assert.Contains(t, attrs, attribute.String(HTTPRouteKey, "/trigger-call"))
	assert.Contains(t, attrs, attribute.String(HTTPUserAgentKey, "wizard/1.0"))

	assert.Equal(t, attribute.Int(HTTPStatusCodeKey, 504), HTTPStatusAttribute(504))
}

func TestCallAttributesSkipsEmptyValues(t *testing.T) {
	assert.Empty(t, CallAttributes("", ""))

	attrs := CallAttributes("call-1", "completed")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(CallIDKey, "call-1"),
		attribute.String(CallStatusKey, "completed"),
	}, attrs)

	assert.Equal(t, []attribute.KeyValue{
		attribute.String(CallIDKey, "call-1"),
	}, CallAttributes("call-1", ""))
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("timeout")
	assert.Equal(t, []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, "timeout"),
	}, attrs)
}
