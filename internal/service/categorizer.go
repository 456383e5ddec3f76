// Package service implements the application logic between the HTTP layer
// and the repositories: syncing, categorization, analysis and advice.
package service

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/database/repository"
)

// Categories assigned by the categorizer.
const (
	CategoryGroceries     = "Groceries"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryEducation     = "Education"
	CategoryShopping      = "Shopping"
	CategoryIncome        = "Income"
	CategoryInvestments   = "Investments"
	CategoryUtilities     = "Utilities"
	CategoryOther         = "Other"
)

// Confidence components. A keyword hit and a pattern hit stack, and an
// expense category on a negative amount gets a small sign-agreement bonus.
const (
	confidenceBase    = 0.5
	confidenceKeyword = 0.2
	confidencePattern = 0.3
	confidenceIncome  = 0.4
	confidenceLearned = 0.45
	confidenceExpense = 0.1
)

// fuzzyMaxDistance bounds the levenshtein distance for a learned merchant
// rule to still count as a match.
const fuzzyMaxDistance = 2

type categoryDef struct {
	category string
	keywords []string
	patterns []*regexp.Regexp
}

// Order matters: the first matching category wins.
var categoryTable = []categoryDef{
	{
		category: CategoryGroceries,
		keywords: []string{"grocery", "supermarket", "loblaws", "sobeys", "metro", "costco", "walmart", "no frills", "food basics", "atb", "silpo", "fora"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(grocer|supermarket|market)\b`),
		},
	},
	{
		category: CategoryTransport,
		keywords: []string{"uber", "lyft", "presto", "ttc", "go transit", "shell", "esso", "petro", "parking", "via rail"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(fuel|gas station|transit|taxi|rideshare)\b`),
		},
	},
	{
		category: CategoryEntertainment,
		keywords: []string{"netflix", "spotify", "disney", "steam", "playstation", "cineplex", "youtube premium", "twitch"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(cinema|theatre|concert|subscription)\b`),
		},
	},
	{
		category: CategoryHealth,
		keywords: []string{"pharmacy", "shoppers drug", "rexall", "dental", "clinic", "goodlife", "gym"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(pharma|medic|hospital|fitness)\b`),
		},
	},
	{
		category: CategoryEducation,
		keywords: []string{"udemy", "coursera", "tuition", "university", "college", "textbook"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(course|school|tuition)\b`),
		},
	},
	{
		category: CategoryInvestments,
		keywords: []string{"questrade", "wealthsimple", "ibkr", "interactive brokers", "vanguard", "etf purchase"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(brokerage|dividend|securities)\b`),
		},
	},
	{
		category: CategoryUtilities,
		keywords: []string{"hydro", "enbridge", "rogers", "bell", "telus", "fido", "internet", "water bill"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(utility|electric|telecom|bill payment)\b`),
		},
	},
	{
		category: CategoryShopping,
		keywords: []string{"amazon", "amzn", "ebay", "aliexpress", "ikea", "best buy", "canadian tire", "winners"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(mktp|marketplace|retail)\b`),
		},
	},
}

var incomePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(payroll|salary|direct deposit|employer|refund|interest paid)\b`),
}

// Result is one categorization outcome.
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Learned    bool    `json:"learned"`
}

// Categorizer assigns categories to transactions using the static keyword
// and pattern tables plus learned rules persisted in category_rules. Safe
// for concurrent use; learned rules are refreshed on demand.
type Categorizer struct {
	rules *repository.RuleRepo
	log   zerolog.Logger

	mu      sync.RWMutex
	learned []repository.CategoryRule
}

// NewCategorizer builds a categorizer. rules may be nil in tests that only
// exercise the static tables.
func NewCategorizer(rules *repository.RuleRepo, log zerolog.Logger) *Categorizer {
	return &Categorizer{rules: rules, log: log.With().Str("pkg", "service").Logger()}
}

// Refresh reloads learned rules from the database.
func (c *Categorizer) Refresh(ctx context.Context) error {
	if c.rules == nil {
		return nil
	}
	learned, err := c.rules.List(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.learned = learned
	c.mu.Unlock()
	return nil
}

// Learn persists a new merchant-pattern rule and refreshes the in-memory
// set.
func (c *Categorizer) Learn(ctx context.Context, pattern, category string) error {
	rule := repository.CategoryRule{ID: uuid.NewString(), Pattern: pattern, Category: category, Source: "user"}
	if err := c.rules.Add(ctx, rule); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Categorize assigns a category to one transaction. Positive amounts are
// income; learned rules beat the static tables; the first static match
// wins; anything unmatched is Other.
func (c *Categorizer) Categorize(description, merchant string, amountCents int64) Result {
	desc := strings.ToLower(description)
	merch := strings.ToLower(merchant)

	if amountCents > 0 {
		conf := confidenceBase + confidenceIncome
		for _, p := range incomePatterns {
			if p.MatchString(description) {
				conf += confidencePattern
				break
			}
		}
		return Result{Category: CategoryIncome, Confidence: clampConfidence(conf)}
	}

	expenseBonus := 0.0
	if amountCents < 0 {
		expenseBonus = confidenceExpense
	}

	if cat, ok := c.matchLearned(desc, merch); ok {
		return Result{Category: cat, Confidence: clampConfidence(confidenceBase + confidenceLearned + expenseBonus), Learned: true}
	}

	for _, def := range categoryTable {
		conf := confidenceBase + expenseBonus
		matched := false
		for _, kw := range def.keywords {
			if strings.Contains(desc, kw) || (merch != "" && strings.Contains(merch, kw)) {
				conf += confidenceKeyword
				matched = true
				break
			}
		}
		for _, p := range def.patterns {
			if p.MatchString(description) || (merchant != "" && p.MatchString(merchant)) {
				conf += confidencePattern
				matched = true
				break
			}
		}
		if matched {
			return Result{Category: def.category, Confidence: clampConfidence(conf)}
		}
	}

	return Result{Category: CategoryOther, Confidence: clampConfidence(confidenceBase + expenseBonus)}
}

// matchLearned checks learned rules: substring first, then a fuzzy
// levenshtein match against the merchant for typo-tolerant patterns.
func (c *Categorizer) matchLearned(desc, merch string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rule := range c.learned {
		pattern := strings.ToLower(rule.Pattern)
		if strings.Contains(desc, pattern) || (merch != "" && strings.Contains(merch, pattern)) {
			return rule.Category, true
		}
		if merch != "" && levenshtein.ComputeDistance(merch, pattern) <= fuzzyMaxDistance {
			return rule.Category, true
		}
	}
	return "", false
}

func clampConfidence(c float64) float64 {
	if c > 1 {
		return 1
	}
	return c
}
