package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type seedBank struct {
	code     string
	name     string
	country  string
	currency string
	method   string
}

// Known institutions registered on first boot. Plaid banks are added via the
// Link exchange flow instead.
var seedBanks = []seedBank{
	{"rbc", "RBC Royal Bank", "CA", "CAD", "scraper"},
	{"bmo", "BMO Bank of Montreal", "CA", "CAD", "scraper"},
	{"monobank", "Monobank", "UA", "UAH", "api"},
	{"privat24", "PrivatBank", "UA", "UAH", "api"},
	{"pumb", "PUMB", "UA", "UAH", "api"},
	{"raiffeisen", "Raiffeisen Bank", "UA", "UAH", "api"},
	{"revolut", "Revolut", "GB", "EUR", "api"},
	{"ibkr", "Interactive Brokers", "US", "USD", "api"},
}

// SeedDefaults inserts the built-in institution rows if missing.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	for _, b := range seedBanks {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("bank:"+b.code)).String()
		_, err := db.ExecContext(ctx, `
		INSERT INTO banks(id, code, name, country, currency, method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (code) DO NOTHING;
		`, id, b.code, b.name, b.country, b.currency, b.method)
		if err != nil {
			return err
		}
	}
	return nil
}
