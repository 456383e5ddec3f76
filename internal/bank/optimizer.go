package bank

import (
	"sync"
	"time"
)

// Priority orders requests by importance.
type Priority int

const (
	PriorityCritical Priority = iota + 1 // balances, new transactions
	PriorityHigh                         // account refreshes
	PriorityMedium                       // historical data
	PriorityLow                          // analytics, reports
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// RequestRecord is one outbound request observation.
type RequestRecord struct {
	BankCode string
	Method   string
	Priority Priority
	At       time.Time
	Success  bool
}

const (
	historyWindow     = 30 * 24 * time.Hour
	burstWindow       = 5 * time.Minute
	burstThreshold    = 10
	plaidFreeRequests = 100
	plaidRequestCost  = 0.50 // USD past the free tier
)

// Optimizer tracks the monthly Plaid request budget and recent request
// history, and decides whether an outbound request is worth making.
// Unmetered methods (scraper, api) always pass the budget check.
type Optimizer struct {
	mu           sync.Mutex
	monthlyLimit int
	monthlyUsed  map[string]int // "2006-01" -> count
	history      []RequestRecord
	now          func() time.Time
}

// NewOptimizer builds an optimizer with the given monthly Plaid budget.
func NewOptimizer(monthlyLimit int) *Optimizer {
	if monthlyLimit <= 0 {
		monthlyLimit = plaidFreeRequests
	}
	return &Optimizer{
		monthlyLimit: monthlyLimit,
		monthlyUsed:  map[string]int{},
		now:          time.Now,
	}
}

func (o *Optimizer) monthKey() string {
	return o.now().UTC().Format("2006-01")
}

// Allow reports whether a request should go out, considering the Plaid
// monthly budget and the recent burst window. Critical requests bypass the
// burst check but never the budget.
func (o *Optimizer) Allow(method string, p Priority) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if method == MethodPlaid && o.monthlyUsed[o.monthKey()] >= o.monthlyLimit {
		return false
	}
	if p == PriorityCritical {
		return true
	}
	recent := 0
	cutoff := o.now().Add(-burstWindow)
	for i := len(o.history) - 1; i >= 0; i-- {
		if o.history[i].At.Before(cutoff) {
			break
		}
		recent++
	}
	if recent > burstThreshold {
		return p == PriorityHigh
	}
	return true
}

// Record stores a request observation and advances the monthly counter.
func (o *Optimizer) Record(rec RequestRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if rec.At.IsZero() {
		rec.At = o.now()
	}
	o.history = append(o.history, rec)
	if rec.Method == MethodPlaid {
		o.monthlyUsed[o.monthKey()]++
	}

	// trim history past the retention window
	cutoff := o.now().Add(-historyWindow)
	idx := 0
	for idx < len(o.history) && o.history[idx].At.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		o.history = append([]RequestRecord(nil), o.history[idx:]...)
	}
}

// MonthlyUsed returns the current month's Plaid request count.
func (o *Optimizer) MonthlyUsed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.monthlyUsed[o.monthKey()]
}

// Usage summarizes budget state and request quality for the usage endpoint.
type Usage struct {
	Month           string   `json:"month"`
	PlaidUsed       int      `json:"plaid_used"`
	PlaidLimit      int      `json:"plaid_limit"`
	RecentRequests  int      `json:"recent_requests"`
	ErrorRate       float64  `json:"error_rate"`
	Recommendations []string `json:"recommendations"`
}

// UsageReport computes budget usage, the last-hour error rate and
// optimization recommendations.
func (o *Optimizer) UsageReport() Usage {
	o.mu.Lock()
	defer o.mu.Unlock()

	cutoff := o.now().Add(-time.Hour)
	recent, failed := 0, 0
	for _, rec := range o.history {
		if rec.At.Before(cutoff) {
			continue
		}
		recent++
		if !rec.Success {
			failed++
		}
	}
	errorRate := 0.0
	if recent > 0 {
		errorRate = float64(failed) / float64(recent)
	}

	used := o.monthlyUsed[o.monthKey()]
	var recs []string
	if errorRate > 0.2 {
		recs = append(recs, "high error rate: check bank connection stability")
	}
	if float64(used) > 0.8*float64(o.monthlyLimit) {
		recs = append(recs, "plaid budget nearly exhausted: rely on cached data until next month")
	}
	if recent > burstThreshold {
		recs = append(recs, "request burst detected: increase cache TTLs for hot data")
	}

	return Usage{
		Month:           o.monthKey(),
		PlaidUsed:       used,
		PlaidLimit:      o.monthlyLimit,
		RecentRequests:  recent,
		ErrorRate:       errorRate,
		Recommendations: recs,
	}
}

// CostAnalysis estimates the month's Plaid spend.
type CostAnalysis struct {
	PlaidRequests    int     `json:"plaid_requests_this_month"`
	FreeRequestsUsed int     `json:"free_requests_used"`
	PaidRequests     int     `json:"paid_requests"`
	EstimatedCost    float64 `json:"estimated_monthly_cost"`
}

// Cost returns the month's estimated Plaid spend past the free tier.
func (o *Optimizer) Cost() CostAnalysis {
	o.mu.Lock()
	defer o.mu.Unlock()

	used := o.monthlyUsed[o.monthKey()]
	free := used
	if free > plaidFreeRequests {
		free = plaidFreeRequests
	}
	paid := used - free
	return CostAnalysis{
		PlaidRequests:    used,
		FreeRequestsUsed: free,
		PaidRequests:     paid,
		EstimatedCost:    float64(paid) * plaidRequestCost,
	}
}
