// Package bank defines the connector abstraction over bank data sources
// and its implementations: the Plaid connector plus the mocked scraper and
// API connectors.
package bank

import (
	"context"
	"errors"
	"math"
	"time"
)

// Integration methods.
const (
	MethodPlaid   = "plaid"
	MethodScraper = "scraper"
	MethodAPI     = "api"
)

// Error classes reported by connectors.
var (
	ErrConnection = errors.New("bank: connection failed")
	ErrAuth       = errors.New("bank: authentication failed")
	ErrData       = errors.New("bank: data unavailable")
)

// Account is a normalized account as reported by a connector. Amounts are
// integer cents.
type Account struct {
	ExternalID  string
	Name        string
	Type        string // depository | credit | investment
	Subtype     string
	Mask        string
	Currency    string
	Balance     int64
	Available   *int64
	CreditLimit *int64
}

// Transaction is a normalized transaction as reported by a connector.
// Negative amounts are spending.
type Transaction struct {
	ExternalID  string
	Date        time.Time
	Amount      int64
	Description string
	Merchant    string
	Currency    string
	Pending     bool
}

// Credentials carries whatever a connector needs to reach its source.
type Credentials struct {
	BankCode    string
	BankName    string
	AccessToken string
	ItemID      string
	Username    string
	Password    string
	Token       string
}

// Connector is the single interface every bank integration implements.
type Connector interface {
	Name() string
	Accounts(ctx context.Context) ([]Account, error)
	Transactions(ctx context.Context, accountID string, from, to time.Time) ([]Transaction, error)
	Balance(ctx context.Context, accountID string) (int64, error)
}

func dollarsToCents(d float64) int64 {
	return int64(math.Round(d * 100))
}

func centsPtr(d *float64) *int64 {
	if d == nil {
		return nil
	}
	v := dollarsToCents(*d)
	return &v
}
