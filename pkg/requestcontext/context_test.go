package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("injected values", func(t *testing.T) {
		fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := WithRequestID(ctx, "req-1")
		ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8")
		ctx = WithTime(ctx, fixed)

		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "10.0.0.1", ClientIP(ctx))
		assert.Equal(t, "curl/8", UserAgent(ctx))
		assert.Equal(t, fixed, Now(ctx))
	})
}
