package repository

import (
	"context"
	"database/sql"
)

// BankRepo handles banks.
type BankRepo struct {
	db *sql.DB
}

func NewBankRepo(db *sql.DB) *BankRepo { return &BankRepo{db: db} }

const bankColumns = `id, code, name, country, currency, method, institution_id, item_id, access_token, created_at, updated_at`

func (r *BankRepo) Upsert(ctx context.Context, b Bank) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO banks(id, code, name, country, currency, method, institution_id, item_id, access_token, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	ON CONFLICT (code) DO UPDATE SET
	 name=excluded.name,
	 country=excluded.country,
	 currency=excluded.currency,
	 method=excluded.method,
	 institution_id=excluded.institution_id,
	 item_id=excluded.item_id,
	 access_token=COALESCE(excluded.access_token, banks.access_token),
	 updated_at=now();
	`, b.ID, b.Code, b.Name, b.Country, b.Currency, b.Method, b.InstitutionID, b.ItemID, b.AccessToken)
	return err
}

func (r *BankRepo) List(ctx context.Context) ([]Bank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bankColumns+` FROM banks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BankRepo) Get(ctx context.Context, id string) (*Bank, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id)
	b, err := scanBank(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BankRepo) GetByCode(ctx context.Context, code string) (*Bank, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bankColumns+` FROM banks WHERE code = $1`, code)
	b, err := scanBank(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BankRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM banks WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBank(row scanner) (Bank, error) {
	var b Bank
	var inst, item, token sql.NullString
	if err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Country, &b.Currency, &b.Method,
		&inst, &item, &token, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Bank{}, err
	}
	if inst.Valid {
		b.InstitutionID = &inst.String
	}
	if item.Valid {
		b.ItemID = &item.String
	}
	if token.Valid {
		b.AccessToken = &token.String
	}
	return b, nil
}
