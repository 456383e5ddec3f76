package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/bankfeed/internal/database/repository"
)

func newTestCategorizer() *Categorizer {
	return NewCategorizer(nil, zerolog.Nop())
}

func TestCategorizePositiveAmountIsIncome(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()

	got := c.Categorize("PAYROLL DEPOSIT EMPLOYER INC", "", 245_000)
	require.Equal(t, CategoryIncome, got.Category)
	// base + income sign + income pattern, clamped
	require.InDelta(t, 1.0, got.Confidence, 1e-9)

	plain := c.Categorize("E-TRANSFER FROM FRIEND", "", 5_000)
	require.Equal(t, CategoryIncome, plain.Category)
	require.InDelta(t, 0.9, plain.Confidence, 1e-9)
}

func TestCategorizeKeywordAndPattern(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()

	// base + keyword + expense sign
	kw := c.Categorize("LOBLAWS #1042 POS PURCHASE", "Loblaws", -6_450)
	require.Equal(t, CategoryGroceries, kw.Category)
	require.InDelta(t, 0.8, kw.Confidence, 1e-9)

	both := c.Categorize("FARM BOY SUPERMARKET", "", -3_200)
	require.Equal(t, CategoryGroceries, both.Category)
	require.InDelta(t, 1.0, both.Confidence, 1e-9)

	pat := c.Categorize("AMZN MKTP CA*2K4LQ9", "", -3_420)
	require.Equal(t, CategoryShopping, pat.Category)
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()

	// matches both Groceries (walmart) and Shopping (retail); Groceries
	// is earlier in the table
	got := c.Categorize("WALMART RETAIL PURCHASE", "", -2_000)
	require.Equal(t, CategoryGroceries, got.Category)
}

func TestCategorizeUnknownIsOther(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()

	got := c.Categorize("MISC DEBIT 000123", "", -1_000)
	require.Equal(t, CategoryOther, got.Category)
	require.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestCategorizeExpenseSignBonus(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()

	// the sign-agreement bonus applies only to actual spends
	spend := c.Categorize("NETFLIX.COM", "", -1_699)
	require.Equal(t, CategoryEntertainment, spend.Category)
	require.InDelta(t, 0.8, spend.Confidence, 1e-9)

	zero := c.Categorize("NETFLIX.COM", "", 0)
	require.Equal(t, CategoryEntertainment, zero.Category)
	require.InDelta(t, 0.7, zero.Confidence, 1e-9)
}

func TestLearnedRuleBeatsStaticTable(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()
	c.learned = []repository.CategoryRule{{Pattern: "uber", Category: CategoryEntertainment}}

	got := c.Categorize("UBER *TRIP HELP.UBER.COM", "Uber", -1_875)
	require.Equal(t, CategoryEntertainment, got.Category)
	require.True(t, got.Learned)
	// base + learned + expense sign, clamped
	require.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestLearnedFuzzyMerchantMatch(t *testing.T) {
	t.Parallel()
	c := newTestCategorizer()
	c.learned = []repository.CategoryRule{{Pattern: "starbucks", Category: CategoryEntertainment}}

	// one-character typo in the merchant field
	got := c.Categorize("POS PURCHASE 8841", "starbucs", -645)
	require.Equal(t, CategoryEntertainment, got.Category)
	require.True(t, got.Learned)

	// too far for a fuzzy match
	miss := c.Categorize("POS PURCHASE 8841", "starlight cafe", -645)
	require.Equal(t, CategoryOther, miss.Category)
}
