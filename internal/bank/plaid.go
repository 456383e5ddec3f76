package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/cache"
	"github.com/jask/bankfeed/internal/plaid"
)

// PlaidConnector reads accounts and transactions from Plaid through the
// TTL cache. Live fetches are gated by the request optimizer; every
// successful fetch also refreshes a long-lived fallback snapshot that is
// served when the budget is exhausted or Plaid errors out.
type PlaidConnector struct {
	client *plaid.Client
	store  *cache.Store
	opt    *Optimizer
	creds  Credentials
	log    zerolog.Logger
}

// NewPlaidConnector wires a connector for one linked item.
func NewPlaidConnector(client *plaid.Client, store *cache.Store, opt *Optimizer, creds Credentials, log zerolog.Logger) *PlaidConnector {
	return &PlaidConnector{
		client: client,
		store:  store,
		opt:    opt,
		creds:  creds,
		log:    log.With().Str("pkg", "bank").Str("connector", "plaid").Str("bank", creds.BankCode).Logger(),
	}
}

func (p *PlaidConnector) Name() string { return p.creds.BankCode }

func (p *PlaidConnector) accountsKey(dataType string) cache.Key {
	return cache.Key{DataType: dataType, BankCode: p.creds.BankCode, ItemID: p.creds.ItemID}
}

// Accounts returns cached accounts when fresh, otherwise fetches from
// Plaid. On budget exhaustion or API failure the fallback snapshot is
// served instead.
func (p *PlaidConnector) Accounts(ctx context.Context) ([]Account, error) {
	var cached []Account
	if err := p.store.Get(p.accountsKey(cache.TypeAccounts), &cached); err == nil {
		return cached, nil
	}

	if !p.opt.Allow(MethodPlaid, PriorityHigh) {
		p.log.Warn().Msg("plaid budget exhausted, serving fallback accounts")
		return p.fallbackAccounts()
	}

	resp, err := p.client.Accounts(ctx, p.creds.AccessToken)
	p.opt.Record(RequestRecord{BankCode: p.creds.BankCode, Method: MethodPlaid, Priority: PriorityHigh, Success: err == nil})
	if err != nil {
		p.log.Error().Err(err).Msg("plaid accounts fetch failed, serving fallback")
		if accounts, ferr := p.fallbackAccounts(); ferr == nil {
			return accounts, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	accounts := make([]Account, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accounts = append(accounts, normalizePlaidAccount(a))
	}
	_ = p.store.Put(p.accountsKey(cache.TypeAccounts), accounts)
	_ = p.store.Put(p.accountsKey(cache.TypeAccountsFallback), accounts)
	return accounts, nil
}

func (p *PlaidConnector) fallbackAccounts() ([]Account, error) {
	var accounts []Account
	if err := p.store.Get(p.accountsKey(cache.TypeAccountsFallback), &accounts); err != nil {
		return nil, fmt.Errorf("%w: no fallback accounts for %s", ErrData, p.creds.BankCode)
	}
	return accounts, nil
}

func (p *PlaidConnector) transactionsKey(dataType, accountID string, from, to time.Time) cache.Key {
	return cache.Key{
		DataType:  dataType,
		BankCode:  p.creds.BankCode,
		ItemID:    p.creds.ItemID,
		AccountID: accountID,
		Extra: map[string]string{
			"start": from.Format("2006-01-02"),
			"end":   to.Format("2006-01-02"),
		},
	}
}

// Transactions returns cached transactions for the window when fresh,
// otherwise pages them from Plaid.
func (p *PlaidConnector) Transactions(ctx context.Context, accountID string, from, to time.Time) ([]Transaction, error) {
	var cached []Transaction
	if err := p.store.Get(p.transactionsKey(cache.TypeTransactions, accountID, from, to), &cached); err == nil {
		return cached, nil
	}

	if !p.opt.Allow(MethodPlaid, PriorityCritical) {
		p.log.Warn().Msg("plaid budget exhausted, serving fallback transactions")
		return p.fallbackTransactions(accountID, from, to)
	}

	var accountIDs []string
	if accountID != "" {
		accountIDs = []string{accountID}
	}
	raw, err := p.client.Transactions(ctx, p.creds.AccessToken, from, to, accountIDs)
	p.opt.Record(RequestRecord{BankCode: p.creds.BankCode, Method: MethodPlaid, Priority: PriorityCritical, Success: err == nil})
	if err != nil {
		p.log.Error().Err(err).Msg("plaid transactions fetch failed, serving fallback")
		if txs, ferr := p.fallbackTransactions(accountID, from, to); ferr == nil {
			return txs, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	txs := make([]Transaction, 0, len(raw))
	for _, t := range raw {
		tx, err := normalizePlaidTransaction(t)
		if err != nil {
			p.log.Warn().Str("transaction", t.TransactionID).Err(err).Msg("skipping malformed transaction")
			continue
		}
		txs = append(txs, tx)
	}
	_ = p.store.Put(p.transactionsKey(cache.TypeTransactions, accountID, from, to), txs)
	_ = p.store.Put(p.transactionsKey(cache.TypeTransactionsFallback, accountID, from, to), txs)
	return txs, nil
}

func (p *PlaidConnector) fallbackTransactions(accountID string, from, to time.Time) ([]Transaction, error) {
	var txs []Transaction
	if err := p.store.Get(p.transactionsKey(cache.TypeTransactionsFallback, accountID, from, to), &txs); err != nil {
		return nil, fmt.Errorf("%w: no fallback transactions for %s", ErrData, p.creds.BankCode)
	}
	return txs, nil
}

// Balance reports the current balance of one account. It reuses the
// accounts path so a fresh accounts cache answers without a request.
func (p *PlaidConnector) Balance(ctx context.Context, accountID string) (int64, error) {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if a.ExternalID == accountID {
			return a.Balance, nil
		}
	}
	return 0, fmt.Errorf("%w: account %s not found", ErrData, accountID)
}

// normalizePlaidAccount converts a Plaid account into the normalized
// form. Credit balances are owed amounts, so they flip sign.
func normalizePlaidAccount(a plaid.Account) Account {
	currency := a.Balances.IsoCurrencyCode
	if currency == "" {
		currency = a.Balances.UnofficialCurrencyCode
	}
	var balance int64
	if a.Balances.Current != nil {
		balance = dollarsToCents(*a.Balances.Current)
		if a.Type == "credit" {
			balance = -balance
		}
	}
	return Account{
		ExternalID:  a.AccountID,
		Name:        a.Name,
		Type:        a.Type,
		Subtype:     a.Subtype,
		Mask:        a.Mask,
		Currency:    currency,
		Balance:     balance,
		Available:   centsPtr(a.Balances.Available),
		CreditLimit: centsPtr(a.Balances.Limit),
	}
}

// normalizePlaidTransaction converts a Plaid transaction. Plaid reports
// outflows as positive amounts, so the sign flips.
func normalizePlaidTransaction(t plaid.Transaction) (Transaction, error) {
	date, err := plaid.ParseDate(t.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("bad date %q: %w", t.Date, err)
	}
	return Transaction{
		ExternalID:  t.TransactionID,
		Date:        date,
		Amount:      -dollarsToCents(t.Amount),
		Description: t.Name,
		Merchant:    t.MerchantName,
		Currency:    t.IsoCurrency,
		Pending:     t.Pending,
	}, nil
}
