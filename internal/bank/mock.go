package bank

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// mockConnector serves deterministic fixture data for bank integrations
// that are stubbed out in this build: the Selenium scrapers (rbc, bmo) and
// the direct API banks (monobank, privat24, pumb, raiffeisen, revolut,
// ibkr). Fixtures are seeded from the bank code so repeated syncs are
// idempotent.
type mockConnector struct {
	code     string
	method   string
	currency string
	accounts []Account
}

// NewScraperConnector returns the mocked web-scraper integration for code.
func NewScraperConnector(creds Credentials) Connector {
	return newMock(creds.BankCode, MethodScraper)
}

// NewAPIConnector returns the mocked direct-API integration for code.
func NewAPIConnector(creds Credentials) Connector {
	return newMock(creds.BankCode, MethodAPI)
}

func newMock(code, method string) *mockConnector {
	m := &mockConnector{code: code, method: method, currency: mockCurrency(code)}
	m.accounts = m.buildAccounts()
	return m
}

func mockCurrency(code string) string {
	switch code {
	case "rbc", "bmo":
		return "CAD"
	case "monobank", "privat24", "pumb", "raiffeisen":
		return "UAH"
	case "revolut":
		return "EUR"
	default:
		return "USD"
	}
}

func (m *mockConnector) Name() string { return m.code }

func (m *mockConnector) seed(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(m.code + ":" + s))
	return int64(h.Sum64() % 1_000_000)
}

func (m *mockConnector) buildAccounts() []Account {
	checking := Account{
		ExternalID: m.code + "-checking",
		Name:       "Checking",
		Type:       "depository",
		Subtype:    "checking",
		Mask:       fmt.Sprintf("%04d", m.seed("checking")%10000),
		Currency:   m.currency,
		Balance:    150_000 + m.seed("checking-balance"),
	}
	avail := checking.Balance - 5_000
	checking.Available = &avail

	savings := Account{
		ExternalID: m.code + "-savings",
		Name:       "Savings",
		Type:       "depository",
		Subtype:    "savings",
		Mask:       fmt.Sprintf("%04d", m.seed("savings")%10000),
		Currency:   m.currency,
		Balance:    800_000 + m.seed("savings-balance"),
	}

	if m.code == "ibkr" {
		return []Account{{
			ExternalID: "ibkr-brokerage",
			Name:       "Brokerage",
			Type:       "investment",
			Subtype:    "brokerage",
			Mask:       fmt.Sprintf("%04d", m.seed("brokerage")%10000),
			Currency:   "USD",
			Balance:    2_500_000 + m.seed("brokerage-balance"),
		}}
	}
	if m.method == MethodScraper {
		credit := Account{
			ExternalID: m.code + "-credit",
			Name:       "Credit Card",
			Type:       "credit",
			Subtype:    "credit card",
			Mask:       fmt.Sprintf("%04d", m.seed("credit")%10000),
			Currency:   m.currency,
			Balance:    -(40_000 + m.seed("credit-balance")%50_000),
		}
		limit := int64(500_000)
		credit.CreditLimit = &limit
		return []Account{checking, savings, credit}
	}
	return []Account{checking, savings}
}

func (m *mockConnector) Accounts(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	out := make([]Account, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

var mockMerchants = []struct {
	merchant string
	desc     string
	cents    int64 // base spend amount, negative
}{
	{"Loblaws", "LOBLAWS #1042 POS PURCHASE", -6_450},
	{"Uber", "UBER *TRIP HELP.UBER.COM", -1_875},
	{"Netflix", "NETFLIX.COM SUBSCRIPTION", -1_699},
	{"Shell", "SHELL C04231 FUEL", -5_210},
	{"Amazon", "AMZN MKTP CA*2K4LQ9", -3_420},
	{"Starbucks", "STARBUCKS #8841", -645},
	{"Hydro One", "HYDRO ONE BILL PAYMENT", -9_830},
	{"", "PAYROLL DEPOSIT EMPLOYER INC", 245_000},
}

func (m *mockConnector) Transactions(ctx context.Context, accountID string, from, to time.Time) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if accountID == "" && len(m.accounts) > 0 {
		accountID = m.accounts[0].ExternalID
	}

	var txs []Transaction
	i := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 2) {
		fix := mockMerchants[i%len(mockMerchants)]
		jitter := m.seed(fmt.Sprintf("%s-%s-%d", accountID, day.Format("2006-01-02"), i)) % 2_000
		amount := fix.cents
		if amount < 0 {
			amount -= jitter
		}
		txs = append(txs, Transaction{
			ExternalID:  fmt.Sprintf("%s-%s-%d", accountID, day.Format("20060102"), i),
			Date:        day,
			Amount:      amount,
			Description: fix.desc,
			Merchant:    fix.merchant,
			Currency:    m.currency,
		})
		i++
	}
	return txs, nil
}

func (m *mockConnector) Balance(ctx context.Context, accountID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	for _, a := range m.accounts {
		if a.ExternalID == accountID {
			return a.Balance, nil
		}
	}
	return 0, fmt.Errorf("%w: account %s not found", ErrData, accountID)
}
