package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestCorrelationAndUserContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithUserID(ctx, "user-9")

	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "user-9", UserIDFromContext(ctx))
}

func TestRequestContext(t *testing.T) {
	t.Run("round trips all values", func(t *testing.T) {
		rc := RequestContext{RequestID: "r", CorrelationID: "c", UserID: "u"}
		ctx := WithRequestContext(context.Background(), rc)
		assert.Equal(t, rc, RequestContextFromContext(ctx))
	})

	t.Run("skips empty values", func(t *testing.T) {
		ctx := WithRequestContext(context.Background(), RequestContext{UserID: "u"})
		assert.Equal(t, RequestContext{UserID: "u"}, RequestContextFromContext(ctx))
	})

	t.Run("ignores values of the wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), requestIDKey, 42)
		assert.Equal(t, "", RequestIDFromContext(ctx))
	})
}
