package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/odontosys/odontogram-engine/internal/infrastructure/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInitMetrics_RecordsThroughInstalledProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	observability.RecordFinalizeMetric(ctx, metrics, "done", 120*time.Millisecond)
	observability.RecordCacheHit(ctx, metrics, "procedure:p1")
	observability.RecordCacheMiss(ctx, metrics, "procedure:p2")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	recorded := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			recorded[m.Name] = true
		}
	}

	assert.True(t, recorded["budget.finalize.count"])
	assert.True(t, recorded["budget.finalize.duration"])
	assert.True(t, recorded["cache.hit.count"])
	assert.True(t, recorded["cache.miss.count"])
}
