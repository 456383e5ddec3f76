package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	AccountID     string
	Category      string
	Uncategorized bool
	Start         time.Time // zero = unbounded
	End           time.Time // exclusive; zero = unbounded
	Search        string
	Limit         int
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txColumns = `id, account_id, external_id, date, amount, description, merchant, category, category_confidence, ai_categorized, pending, source_hash, created_at, updated_at`

// ErrDuplicate is reported by Insert when the source hash already exists for
// the account.
var ErrDuplicate = fmt.Errorf("transaction already exists")

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, account_id, external_id, date, amount, description, merchant,
	 category, category_confidence, ai_categorized, pending, source_hash, created_at, updated_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	ON CONFLICT (account_id, source_hash) DO NOTHING;
	`,
		t.ID, t.AccountID, t.ExternalID, t.Date, t.Amount, t.Description, t.Merchant,
		t.Category, t.CategoryConfidence, t.AICategorized, t.Pending, t.SourceHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id, category string, confidence float64, ai bool) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions
	SET category = $1, category_confidence = $2, ai_categorized = $3, updated_at = now()
	WHERE id = $4`, category, confidence, ai, id)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AccountID != "" {
		where = append(where, "account_id = "+arg(f.AccountID))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Uncategorized {
		where = append(where, "category IS NULL")
	}
	if !f.Start.IsZero() {
		where = append(where, "date >= "+arg(f.Start))
	}
	if !f.End.IsZero() {
		where = append(where, "date < "+arg(f.End))
	}
	if f.Search != "" {
		where = append(where, "description ILIKE "+arg("%"+f.Search+"%"))
	}

	query := `SELECT ` + txColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CategoryTotal is a per-category aggregate.
type CategoryTotal struct {
	Category string
	Total    int64
	Count    int
}

// SumByCategory returns spending sums per category for a window. Zero bounds
// are unbounded.
func (r *TransactionRepo) SumByCategory(ctx context.Context, start, end time.Time) ([]CategoryTotal, error) {
	var where []string
	var args []interface{}
	if !start.IsZero() {
		args = append(args, start)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, end)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}
	query := `
	SELECT COALESCE(category, 'Other'), SUM(amount), COUNT(*)
	FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` GROUP BY category ORDER BY SUM(amount) ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Summary holds date-bounded totals for the reports endpoints.
type Summary struct {
	Count   int
	Total   int64
	Income  int64
	Expense int64
}

func (r *TransactionRepo) Summarize(ctx context.Context, start, end time.Time) (Summary, error) {
	var where []string
	var args []interface{}
	if !start.IsZero() {
		args = append(args, start)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, end)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}
	query := `
	SELECT COUNT(*),
	 COALESCE(SUM(amount), 0),
	 COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0),
	 COALESCE(SUM(amount) FILTER (WHERE amount < 0), 0)
	FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var s Summary
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.Count, &s.Total, &s.Income, &s.Expense)
	return s, err
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var external, merchant, category sql.NullString
	var confidence sql.NullFloat64
	if err := row.Scan(&t.ID, &t.AccountID, &external, &t.Date, &t.Amount, &t.Description,
		&merchant, &category, &confidence, &t.AICategorized, &t.Pending, &t.SourceHash,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	if external.Valid {
		t.ExternalID = &external.String
	}
	if merchant.Valid {
		t.Merchant = &merchant.String
	}
	if category.Valid {
		t.Category = &category.String
	}
	if confidence.Valid {
		t.CategoryConfidence = &confidence.Float64
	}
	return t, nil
}
