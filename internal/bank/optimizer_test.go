package bank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestOptimizer(limit int) (*Optimizer, *time.Time) {
	o := NewOptimizer(limit)
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return clock }
	return o, &clock
}

func TestAllowDeniesWhenBudgetExhausted(t *testing.T) {
	t.Parallel()
	o, _ := newTestOptimizer(2)

	require.True(t, o.Allow(MethodPlaid, PriorityCritical))
	o.Record(RequestRecord{Method: MethodPlaid, Success: true})
	o.Record(RequestRecord{Method: MethodPlaid, Success: true})

	require.False(t, o.Allow(MethodPlaid, PriorityCritical))
	// unmetered methods are never budget-limited
	require.True(t, o.Allow(MethodScraper, PriorityLow))
}

func TestBudgetRollsOverAtMonthBoundary(t *testing.T) {
	t.Parallel()
	o, clock := newTestOptimizer(1)

	o.Record(RequestRecord{Method: MethodPlaid, Success: true})
	require.False(t, o.Allow(MethodPlaid, PriorityHigh))

	*clock = clock.AddDate(0, 1, 0)
	require.True(t, o.Allow(MethodPlaid, PriorityHigh))
	require.Equal(t, 0, o.MonthlyUsed())
}

func TestBurstThrottlesLowPriority(t *testing.T) {
	t.Parallel()
	o, _ := newTestOptimizer(100)

	for i := 0; i < burstThreshold+1; i++ {
		o.Record(RequestRecord{Method: MethodAPI, Success: true})
	}
	require.False(t, o.Allow(MethodAPI, PriorityLow))
	require.False(t, o.Allow(MethodAPI, PriorityMedium))
	require.True(t, o.Allow(MethodAPI, PriorityHigh))
	require.True(t, o.Allow(MethodAPI, PriorityCritical))
}

func TestUsageReportErrorRate(t *testing.T) {
	t.Parallel()
	o, _ := newTestOptimizer(100)

	for i := 0; i < 4; i++ {
		o.Record(RequestRecord{Method: MethodPlaid, Success: i != 0})
	}
	u := o.UsageReport()
	require.Equal(t, 4, u.PlaidUsed)
	require.Equal(t, 4, u.RecentRequests)
	require.InDelta(t, 0.25, u.ErrorRate, 1e-9)
	require.Contains(t, u.Recommendations[0], "error rate")
}

func TestCostPastFreeTier(t *testing.T) {
	t.Parallel()
	o, _ := newTestOptimizer(200)

	for i := 0; i < 110; i++ {
		o.Record(RequestRecord{Method: MethodPlaid, Success: true})
	}
	c := o.Cost()
	require.Equal(t, 110, c.PlaidRequests)
	require.Equal(t, 100, c.FreeRequestsUsed)
	require.Equal(t, 10, c.PaidRequests)
	require.InDelta(t, 5.0, c.EstimatedCost, 1e-9)
}
