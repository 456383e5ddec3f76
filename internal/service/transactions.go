package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/database/repository"
)

// ErrTransactionNotFound is returned for category updates on unknown rows.
var ErrTransactionNotFound = errors.New("transaction not found")

// Transactions wraps transaction queries with categorization operations.
type Transactions struct {
	txs         *repository.TransactionRepo
	categorizer *Categorizer
	log         zerolog.Logger
}

// NewTransactions wires the transactions service.
func NewTransactions(txs *repository.TransactionRepo, categorizer *Categorizer, log zerolog.Logger) *Transactions {
	return &Transactions{
		txs:         txs,
		categorizer: categorizer,
		log:         log.With().Str("pkg", "service").Logger(),
	}
}

// List proxies filtered listing.
func (t *Transactions) List(ctx context.Context, f repository.TransactionFilters) ([]repository.Transaction, error) {
	return t.txs.List(ctx, f)
}

// Recategorize runs the categorizer over stored transactions and persists
// any category changes. With onlyUncategorized it touches only rows that
// have no category yet. Returns the number of updated rows.
func (t *Transactions) Recategorize(ctx context.Context, onlyUncategorized bool) (int, error) {
	if err := t.categorizer.Refresh(ctx); err != nil {
		return 0, err
	}

	rows, err := t.txs.List(ctx, repository.TransactionFilters{Uncategorized: onlyUncategorized})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		merchant := ""
		if row.Merchant != nil {
			merchant = *row.Merchant
		}
		result := t.categorizer.Categorize(row.Description, merchant, row.Amount)
		if row.Category != nil && *row.Category == result.Category {
			continue
		}
		if err := t.txs.UpdateCategory(ctx, row.ID, result.Category, result.Confidence, true); err != nil {
			return updated, err
		}
		updated++
	}
	t.log.Info().Int("updated", updated).Msg("recategorization finished")
	return updated, nil
}

// SetCategory applies a manual category override and learns a merchant
// rule from it so future syncs categorize the same merchant consistently.
func (t *Transactions) SetCategory(ctx context.Context, id, category string) error {
	row, err := t.txs.Get(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrTransactionNotFound
	}
	if err := t.txs.UpdateCategory(ctx, id, category, 1.0, false); err != nil {
		return err
	}
	if row.Merchant != nil && *row.Merchant != "" {
		if err := t.categorizer.Learn(ctx, *row.Merchant, category); err != nil {
			t.log.Warn().Err(err).Msg("learning rule from manual override failed")
		}
	}
	return nil
}
