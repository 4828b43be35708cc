package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	t.Run("sorts and drops empty values", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{
			"route":  "/api/v1/sales",
			"method": "POST",
			"empty":  "",
		})
		assert.Equal(t, []string{"method", "POST", "route", "/api/v1/sales"}, pairs)
	})

	t.Run("drops high cardinality labels", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{
			"request_id": "abc",
			"subject":    "clerk-7",
			"operation":  "ApplySale",
		})
		assert.Equal(t, []string{"operation", "ApplySale"}, pairs)
	})

	t.Run("truncates long values", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{"route": strings.Repeat("x", 300)})
		assert.Len(t, pairs[1], MaxLabelValueLength)
	})

	t.Run("normalizes keys", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{"Unit-Kind Name!": "bag"})
		assert.Equal(t, []string{"unit_kind_name", "bag"}, pairs)
	})
}

func TestWithProfilingLabels(t *testing.T) {
	var got string
	WithProfilingLabels(context.Background(), map[string]string{ProfilingLabelRoute: "/api/v1/inventories"}, func(ctx context.Context) {
		got, _ = pprof.Label(ctx, ProfilingLabelRoute)
	})
	assert.Equal(t, "/api/v1/inventories", got)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
