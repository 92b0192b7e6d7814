package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	shutdown := Init("sales-assistant-test", "test")
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	id := GetTraceID(ctx)
	require.Len(t, id, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), id)
}
