package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contractor-ledger/internal/model"
)

// ErrConflict is returned by conditional updates whose guard did not match,
// e.g. a balance adjustment that would go negative or a job already marked paid.
var ErrConflict = errors.New("conditional update did not apply")

// LedgerStore is the transactional view of profiles, contracts, jobs and transfers.
// Methods called on the store handed to InTx run inside that transaction.
type LedgerStore interface {
	InTx(ctx context.Context, fn func(tx LedgerStore) error) error

	GetProfile(ctx context.Context, id uint) (*model.Profile, error)
	LockProfile(ctx context.Context, id uint, kind model.ProfileType) (*model.Profile, error)
	AdjustBalance(ctx context.Context, profileID uint, delta decimal.Decimal) error

	GetContract(ctx context.Context, id uint) (*model.Contract, error)
	ListActiveContracts(ctx context.Context, profileID uint) ([]model.Contract, error)

	GetJob(ctx context.Context, id uint) (*model.Job, error)
	LockJob(ctx context.Context, id uint) (*model.Job, error)
	MarkJobPaid(ctx context.Context, jobID uint, paidAt time.Time) error
	ListUnpaidJobs(ctx context.Context, profileID uint) ([]model.Job, error)
	SumUnpaidJobs(ctx context.Context, clientID uint) (decimal.Decimal, error)

	CreateTransfer(ctx context.Context, transfer *model.Transfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*model.Transfer, error)
}

// ReportStore serves the read-only aggregate queries.
type ReportStore interface {
	EarningsByProfession(ctx context.Context, from, to time.Time) ([]model.ProfessionEarnings, error)
	PaidTotalsByContract(ctx context.Context, from, to time.Time) ([]model.ContractPaidTotal, error)
	ListProfilesByIDs(ctx context.Context, ids []uint) ([]model.Profile, error)
}
