package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/events"
)

// syncWindowDays is how far back a sync pulls transactions.
const syncWindowDays = 90

// ErrBankNotFound is returned when a sync targets an unknown bank.
var ErrBankNotFound = errors.New("bank not found")

// SyncResult summarizes one bank sync.
type SyncResult struct {
	BankID          string `json:"bank_id"`
	BankCode        string `json:"bank_code"`
	Accounts        int    `json:"accounts"`
	NewTransactions int    `json:"new_transactions"`
	Duplicates      int    `json:"duplicates"`
	Categorized     int    `json:"categorized"`
}

// Syncer pulls accounts and transactions from a bank's connector into the
// database, categorizing new transactions on the way in.
type Syncer struct {
	banks       *repository.BankRepo
	accounts    *repository.AccountRepo
	txs         *repository.TransactionRepo
	registry    *bank.Registry
	categorizer *Categorizer
	publisher   *events.KafkaPublisher
	log         zerolog.Logger
}

// NewSyncer wires a syncer. publisher may be nil.
func NewSyncer(
	banks *repository.BankRepo,
	accounts *repository.AccountRepo,
	txs *repository.TransactionRepo,
	registry *bank.Registry,
	categorizer *Categorizer,
	publisher *events.KafkaPublisher,
	log zerolog.Logger,
) *Syncer {
	return &Syncer{
		banks:       banks,
		accounts:    accounts,
		txs:         txs,
		registry:    registry,
		categorizer: categorizer,
		publisher:   publisher,
		log:         log.With().Str("pkg", "service").Logger(),
	}
}

// SyncBank refreshes one bank: accounts are upserted, transactions from the
// last 90 days are ingested with hash dedup and categorized.
func (s *Syncer) SyncBank(ctx context.Context, bankID string) (SyncResult, error) {
	b, err := s.banks.Get(ctx, bankID)
	if err != nil {
		return SyncResult{}, err
	}
	if b == nil {
		return SyncResult{}, ErrBankNotFound
	}

	res, err := s.sync(ctx, b)
	ev := events.SyncEvent{
		Type:            events.TypeSyncCompleted,
		BankID:          b.ID,
		BankCode:        b.Code,
		Accounts:        res.Accounts,
		NewTransactions: res.NewTransactions,
	}
	if err != nil {
		ev.Type = events.TypeSyncFailed
		ev.Error = err.Error()
	}
	s.publisher.Publish(ctx, ev)
	return res, err
}

func (s *Syncer) sync(ctx context.Context, b *repository.Bank) (SyncResult, error) {
	res := SyncResult{BankID: b.ID, BankCode: b.Code}

	creds := bank.Credentials{BankCode: b.Code, BankName: b.Name}
	if b.AccessToken != nil {
		creds.AccessToken = *b.AccessToken
	}
	if b.ItemID != nil {
		creds.ItemID = *b.ItemID
	}

	conn, err := s.registry.Connect(creds)
	if err != nil {
		return res, fmt.Errorf("connect %s: %w", b.Code, err)
	}

	if err := s.categorizer.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Msg("refresh learned rules failed, using static tables")
	}

	accounts, err := conn.Accounts(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch accounts for %s: %w", b.Code, err)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -syncWindowDays)

	for _, a := range accounts {
		accountID, err := s.upsertAccount(ctx, b.ID, a)
		if err != nil {
			return res, fmt.Errorf("upsert account %s: %w", a.ExternalID, err)
		}
		res.Accounts++

		txs, err := conn.Transactions(ctx, a.ExternalID, from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("account", a.ExternalID).Msg("transactions fetch failed, continuing")
			continue
		}
		for _, tx := range txs {
			inserted, categorized, err := s.ingest(ctx, accountID, tx)
			if err != nil {
				return res, fmt.Errorf("ingest transaction %s: %w", tx.ExternalID, err)
			}
			if inserted {
				res.NewTransactions++
			} else {
				res.Duplicates++
			}
			if categorized {
				res.Categorized++
			}
		}
	}

	s.log.Info().
		Str("bank", b.Code).
		Int("accounts", res.Accounts).
		Int("new", res.NewTransactions).
		Int("dup", res.Duplicates).
		Msg("sync finished")
	return res, nil
}

func (s *Syncer) upsertAccount(ctx context.Context, bankID string, a bank.Account) (string, error) {
	id, err := s.accounts.ResolveID(ctx, bankID, a.ExternalID)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	err = s.accounts.Upsert(ctx, repository.Account{
		ID:          id,
		BankID:      bankID,
		ExternalID:  a.ExternalID,
		Name:        a.Name,
		AccountType: a.Type,
		Subtype:     a.Subtype,
		Mask:        a.Mask,
		Currency:    a.Currency,
		Balance:     a.Balance,
		Available:   a.Available,
		CreditLimit: a.CreditLimit,
		Active:      true,
	})
	return id, err
}

// ingest inserts one transaction, deduplicating on the source hash. New
// rows are categorized; duplicates are left untouched so manual category
// fixes survive resyncs.
func (s *Syncer) ingest(ctx context.Context, accountID string, tx bank.Transaction) (inserted, categorized bool, err error) {
	row := repository.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Date:        tx.Date,
		Amount:      tx.Amount,
		Description: tx.Description,
		Pending:     tx.Pending,
		SourceHash:  SourceHash(tx.Date, tx.Amount, tx.Description),
	}
	if tx.ExternalID != "" {
		row.ExternalID = &tx.ExternalID
	}
	if tx.Merchant != "" {
		row.Merchant = &tx.Merchant
	}

	result := s.categorizer.Categorize(tx.Description, tx.Merchant, tx.Amount)
	row.Category = &result.Category
	row.CategoryConfidence = &result.Confidence

	if err := s.txs.Insert(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, true, nil
}

// SourceHash derives the dedup key for a transaction from its immutable
// fields.
func SourceHash(date time.Time, amountCents int64, description string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", date.Format("2006-01-02"), amountCents, description)))
	return hex.EncodeToString(h[:16])
}
