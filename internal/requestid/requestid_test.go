package requestid

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	ctx, id := New(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	id := FromContext(context.Background())
	assert.NotEmpty(t, id) // generates new UUID
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-123")
	assert.Equal(t, "test-123", FromContext(ctx))
}

func TestFromHeader(t *testing.T) {
	assert.Equal(t, "abc-123", FromHeader("abc-123"))

	for _, bad := range []string{"", "has space", "new\nline", strings.Repeat("x", 65)} {
		id := FromHeader(bad)
		assert.NotEqual(t, bad, id)
		assert.Len(t, id, 36)
	}
}
