package ledger

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the persistence contract for ledger accounts,
// transactions and entries. Entries reference a pre-existing account and
// transaction; implementations return ErrNotFound when either is absent.
type Repository interface {
	// Account operations
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountBySubscriptionAndMeter(ctx context.Context, subscriptionID, usageMeterID string) (*Account, error)
	ListAccountsBySubscription(ctx context.Context, subscriptionID string) ([]*Account, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*Transaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// Entry operations. Entries are append-mostly: inserts, pending->posted
	// flips and discarded_at stamps only; financial fields never change.
	CreateEntries(ctx context.Context, entries []*Entry) error
	GetEntryByID(ctx context.Context, id string) (*Entry, error)
	ListEntriesByAccount(ctx context.Context, accountID string) ([]*Entry, error)
	ListEntriesByTransaction(ctx context.Context, transactionID string) ([]*Entry, error)
	PostEntries(ctx context.Context, entryIDs []string) error
	DiscardEntries(ctx context.Context, entryIDs []string, at time.Time) error

	// SumEntries aggregates the netted balance for an account in the given
	// mode against a single consistent snapshot.
	SumEntries(ctx context.Context, accountID string, mode types.BalanceMode) (decimal.Decimal, error)

	// SumAppliedByCredit returns, per usage credit id, the total amount
	// already consumed from that credit on the account: non-discarded
	// credit_balance_consumed plus credit_grant_expired entries.
	SumAppliedByCredit(ctx context.Context, accountID string) (map[string]decimal.Decimal, error)
}
