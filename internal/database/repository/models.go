package repository

import "time"

// Bank represents a connected institution row.
type Bank struct {
	ID            string
	Code          string
	Name          string
	Country       string
	Currency      string
	Method        string // plaid | scraper | api
	InstitutionID *string
	ItemID        *string
	AccessToken   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Account represents an account row. Amounts are integer cents.
type Account struct {
	ID          string
	BankID      string
	ExternalID  string
	Name        string
	AccountType string
	Subtype     string
	Mask        string
	Currency    string
	Balance     int64
	Available   *int64
	CreditLimit *int64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction represents a transaction row. Negative amounts are spending.
type Transaction struct {
	ID                 string
	AccountID          string
	ExternalID         *string
	Date               time.Time
	Amount             int64
	Description        string
	Merchant           *string
	Category           *string
	CategoryConfidence *float64
	AICategorized      bool
	Pending            bool
	SourceHash         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CategoryRule represents a learned categorization rule.
type CategoryRule struct {
	ID        string
	Pattern   string
	Category  string
	Source    string
	CreatedAt time.Time
}
