package repository

import (
	"context"
	"database/sql"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, bank_id, external_id, name, account_type, subtype, mask, currency, balance, available, credit_limit, active, created_at, updated_at`

func (r *AccountRepo) Upsert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, bank_id, external_id, name, account_type, subtype, mask, currency, balance, available, credit_limit, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	ON CONFLICT (bank_id, external_id) DO UPDATE SET
	 name=excluded.name,
	 account_type=excluded.account_type,
	 subtype=excluded.subtype,
	 mask=excluded.mask,
	 currency=excluded.currency,
	 balance=excluded.balance,
	 available=excluded.available,
	 credit_limit=excluded.credit_limit,
	 active=excluded.active,
	 updated_at=now();
	`, a.ID, a.BankID, a.ExternalID, a.Name, a.AccountType, a.Subtype, a.Mask, a.Currency,
		a.Balance, a.Available, a.CreditLimit, a.Active)
	return err
}

// ResolveID returns the stored row id for a bank/external pair, so repeated
// syncs keep transaction FKs stable.
func (r *AccountRepo) ResolveID(ctx context.Context, bankID, externalID string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE bank_id = $1 AND external_id = $2`, bankID, externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (r *AccountRepo) List(ctx context.Context, bankID string) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []interface{}
	if bankID != "" {
		query += ` WHERE bank_id = $1`
		args = append(args, bankID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// BalanceTotal is a per-bank, per-currency balance aggregate.
type BalanceTotal struct {
	BankName string
	Currency string
	Total    int64
	Accounts int
}

// BalanceReport aggregates balances across active accounts.
func (r *AccountRepo) BalanceReport(ctx context.Context) ([]BalanceTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT b.name, a.currency, COALESCE(SUM(a.balance), 0), COUNT(*)
	FROM accounts a JOIN banks b ON b.id = a.bank_id
	WHERE a.active
	GROUP BY b.name, a.currency
	ORDER BY b.name, a.currency;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BalanceTotal
	for rows.Next() {
		var bt BalanceTotal
		if err := rows.Scan(&bt.BankName, &bt.Currency, &bt.Total, &bt.Accounts); err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	var available, limit sql.NullInt64
	if err := row.Scan(&a.ID, &a.BankID, &a.ExternalID, &a.Name, &a.AccountType, &a.Subtype,
		&a.Mask, &a.Currency, &a.Balance, &available, &limit, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	if available.Valid {
		a.Available = &available.Int64
	}
	if limit.Valid {
		a.CreditLimit = &limit.Int64
	}
	return a, nil
}
