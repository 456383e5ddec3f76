// Package llm abstracts the language-model backend used for financial
// advice. The OpenAI provider is used when an API key is configured; the
// heuristic provider is the deterministic fallback.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backend cannot be reached or is not
// configured.
var ErrUnavailable = errors.New("llm: provider unavailable")

// Snapshot is the financial picture handed to a provider.
type Snapshot struct {
	NetWorthCents      int64
	MonthlyIncomeCents int64
	MonthlySpendCents  int64
	SavingsRate        float64 // 0..1
	TopCategories      []CategorySpend
	HealthScore        int
	HealthGrade        string
}

// CategorySpend is one category's monthly spend.
type CategorySpend struct {
	Category string
	Cents    int64
}

// Advice is the provider's answer.
type Advice struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

// Provider produces advice text from a snapshot and an optional user
// question.
type Provider interface {
	Name() string
	Advise(ctx context.Context, snap Snapshot, question string) (Advice, error)
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
