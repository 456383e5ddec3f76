// Package cache implements the file-backed TTL cache used by bank
// connectors. Entries are JSON envelopes keyed by data type plus bank,
// item and account identifiers, with per-type expiry.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Data types with dedicated TTLs.
const (
	TypeAccounts             = "accounts"
	TypeAccountsFallback     = "accounts_fallback"
	TypeTransactions         = "transactions"
	TypeTransactionsFallback = "transactions_fallback"
	TypeBalance              = "balance"
	TypeInstitution          = "institution"
)

// TTLs maps data types to entry lifetimes. Fallback snapshots use the
// institution TTL so they outlive the primary entries they back.
type TTLs struct {
	Accounts     time.Duration
	Transactions time.Duration
	Balance      time.Duration
	Institution  time.Duration
}

// DefaultTTLs mirrors the connector defaults: accounts 1h, transactions
// 30m, balance 15m, institution 24h.
func DefaultTTLs() TTLs {
	return TTLs{
		Accounts:     time.Hour,
		Transactions: 30 * time.Minute,
		Balance:      15 * time.Minute,
		Institution:  24 * time.Hour,
	}
}

func (t TTLs) forType(dataType string) time.Duration {
	switch dataType {
	case TypeAccounts:
		return t.Accounts
	case TypeTransactions:
		return t.Transactions
	case TypeBalance:
		return t.Balance
	case TypeInstitution, TypeAccountsFallback, TypeTransactionsFallback:
		return t.Institution
	default:
		return 30 * time.Minute
	}
}

// Key identifies a cache entry.
type Key struct {
	DataType  string
	BankCode  string
	ItemID    string
	AccountID string
	Extra     map[string]string
}

// String builds the deterministic file-name form of the key. Extra params
// are appended in sorted order so equivalent keys always collide.
func (k Key) String() string {
	parts := []string{k.DataType}
	if k.BankCode != "" {
		parts = append(parts, k.BankCode)
	}
	if k.ItemID != "" {
		parts = append(parts, "item_"+k.ItemID)
	}
	if k.AccountID != "" {
		parts = append(parts, k.AccountID)
	}
	extras := make([]string, 0, len(k.Extra))
	for name, v := range k.Extra {
		if v != "" {
			extras = append(extras, name+"_"+v)
		}
	}
	sort.Strings(extras)
	parts = append(parts, extras...)
	return sanitize(strings.Join(parts, "_"))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}

type envelope struct {
	CacheKey  string          `json:"cache_key"`
	DataType  string          `json:"data_type"`
	BankCode  string          `json:"bank_code,omitempty"`
	AccountID string          `json:"account_id,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store is a file-backed TTL cache. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	dir  string
	ttls TTLs
	now  func() time.Time
}

// New opens (and creates) the cache directory.
func New(dir string, ttls TTLs) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "bankfeed-cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir: %w", err)
	}
	return &Store{dir: dir, ttls: ttls, now: time.Now}, nil
}

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, key.String()+".json")
}

// Get unmarshals a live entry into out. Expired entries are deleted and
// reported as a miss.
func (s *Store) Get(key Key, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrMiss
		}
		return fmt.Errorf("cache: read: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// corrupt entry; drop it
		_ = os.Remove(s.path(key))
		return ErrMiss
	}
	if !s.now().Before(env.ExpiresAt) {
		_ = os.Remove(s.path(key))
		return ErrMiss
	}
	return json.Unmarshal(env.Data, out)
}

// Put stores data under key with the type's TTL.
func (s *Store) Put(key Key, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	now := s.now().UTC()
	env := envelope{
		CacheKey:  key.String(),
		DataType:  key.DataType,
		BankCode:  key.BankCode,
		AccountID: key.AccountID,
		Data:      raw,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttls.forType(key.DataType)),
	}
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), body, 0o644)
}

// Criteria selects entries for invalidation. Empty fields match everything.
type Criteria struct {
	DataType  string
	BankCode  string
	AccountID string
}

func (c Criteria) matches(env envelope) bool {
	if c.DataType == "" && c.BankCode == "" && c.AccountID == "" {
		return false
	}
	if c.DataType != "" && env.DataType != c.DataType {
		return false
	}
	if c.BankCode != "" && env.BankCode != c.BankCode {
		return false
	}
	if c.AccountID != "" && env.AccountID != c.AccountID {
		return false
	}
	return true
}

// Invalidate deletes entries matching the criteria and returns the count.
func (s *Store) Invalidate(c Criteria) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	err := s.walk(func(path string, env envelope) {
		if c.matches(env) {
			if os.Remove(path) == nil {
				deleted++
			}
		}
	})
	return deleted, err
}

// CleanupExpired deletes entries past their expiry and returns the count.
func (s *Store) CleanupExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deleted := 0
	err := s.walk(func(path string, env envelope) {
		if !now.Before(env.ExpiresAt) {
			if os.Remove(path) == nil {
				deleted++
			}
		}
	})
	return deleted, err
}

// Stats summarizes cache contents.
type Stats struct {
	TotalItems   int            `json:"total_items"`
	ActiveItems  int            `json:"active_items"`
	ExpiredItems int            `json:"expired_items"`
	ByType       map[string]int `json:"by_type"`
}

// Stat scans the directory and reports entry counts per type.
func (s *Store) Stat() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := Stats{ByType: map[string]int{}}
	err := s.walk(func(path string, env envelope) {
		stats.TotalItems++
		stats.ByType[env.DataType]++
		if now.Before(env.ExpiresAt) {
			stats.ActiveItems++
		} else {
			stats.ExpiredItems++
		}
	})
	return stats, err
}

func (s *Store) walk(fn func(path string, env envelope)) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("cache: readdir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		fn(path, env)
	}
	return nil
}
