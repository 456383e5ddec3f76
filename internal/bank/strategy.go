package bank

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/cache"
	"github.com/jask/bankfeed/internal/plaid"
)

// methodByCode routes each supported bank to its integration method.
var methodByCode = map[string]string{
	"rbc":        MethodScraper,
	"bmo":        MethodScraper,
	"monobank":   MethodAPI,
	"privat24":   MethodAPI,
	"pumb":       MethodAPI,
	"raiffeisen": MethodAPI,
	"revolut":    MethodAPI,
	"ibkr":       MethodAPI,
}

// MethodFor returns the integration method for a bank code. Unknown codes
// default to Plaid, which covers anything linked through the Link flow.
func MethodFor(code string) string {
	if m, ok := methodByCode[code]; ok {
		return m
	}
	return MethodPlaid
}

// SupportedBanks lists the bank codes with built-in routing, sorted.
func SupportedBanks() []string {
	codes := make([]string, 0, len(methodByCode))
	for code := range methodByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Registry builds connectors per bank and tracks per-method usage counts.
type Registry struct {
	plaidClient *plaid.Client
	store       *cache.Store
	opt         *Optimizer
	log         zerolog.Logger

	mu    sync.Mutex
	usage map[string]int
}

// NewRegistry wires the connector registry. plaidClient may be nil when
// Plaid credentials are not configured; Plaid-routed banks then fail with
// ErrAuth.
func NewRegistry(plaidClient *plaid.Client, store *cache.Store, opt *Optimizer, log zerolog.Logger) *Registry {
	return &Registry{
		plaidClient: plaidClient,
		store:       store,
		opt:         opt,
		log:         log,
		usage:       map[string]int{},
	}
}

// Connect builds the connector for the bank described by creds.
func (r *Registry) Connect(creds Credentials) (Connector, error) {
	method := MethodFor(creds.BankCode)

	r.mu.Lock()
	r.usage[method]++
	r.mu.Unlock()

	switch method {
	case MethodPlaid:
		if r.plaidClient == nil {
			return nil, fmt.Errorf("%w: plaid not configured", ErrAuth)
		}
		if creds.AccessToken == "" {
			return nil, fmt.Errorf("%w: bank %s has no access token", ErrAuth, creds.BankCode)
		}
		return NewPlaidConnector(r.plaidClient, r.store, r.opt, creds, r.log), nil
	case MethodScraper:
		return NewScraperConnector(creds), nil
	case MethodAPI:
		return NewAPIConnector(creds), nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrData, method)
	}
}

// UsageByMethod reports how many connectors were built per method.
func (r *Registry) UsageByMethod() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.usage))
	for k, v := range r.usage {
		out[k] = v
	}
	return out
}
