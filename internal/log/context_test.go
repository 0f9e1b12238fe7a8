// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextCarriers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, SessionIDFromContext(ctx))
	assert.Empty(t, CallIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")
	ctx = ContextWithCallID(ctx, "call-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "sess-1", SessionIDFromContext(ctx))
	assert.Equal(t, "call-1", CallIDFromContext(ctx))
}

func TestWithComponentFromContextCarriesIdentityFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf, Service: "touchbased"})

	ctx := ContextWithSessionID(context.Background(), "sess-9")
	ctx = ContextWithCallID(ctx, "call-9")

	logger := WithComponentFromContext(ctx, "api")
	logger.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"component":"api"`)
	assert.Contains(t, out, `"session_id":"sess-9"`)
	assert.Contains(t, out, `"call_id":"call-9"`)
}
