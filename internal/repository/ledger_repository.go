package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/contractor-ledger/internal/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InTx runs fn inside a single database transaction. Any error returned by fn,
// a panic, or a cancelled context rolls the transaction back.
func (r *LedgerRepository) InTx(ctx context.Context, fn func(tx LedgerStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerRepository{db: tx})
	})
}

func (r *LedgerRepository) GetProfile(ctx context.Context, id uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// LockProfile reads the profile of the given kind with a row lock held until
// the surrounding transaction ends.
func (r *LedgerRepository) LockProfile(ctx context.Context, id uint, kind model.ProfileType) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND type = ?", id, kind).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AdjustBalance adds delta to the profile balance unless the result would be
// negative, in which case ErrConflict is returned and nothing changes.
// Results are rounded to cents so engines without exact NUMERIC storage
// agree with postgres.
func (r *LedgerRepository) AdjustBalance(ctx context.Context, profileID uint, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE profiles
		SET balance = ROUND(balance + ?, 2), updated_at = ?
		WHERE id = ? AND ROUND(balance + ?, 2) >= 0
	`, delta, time.Now().UTC(), profileID, delta)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *LedgerRepository) GetContract(ctx context.Context, id uint) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *LedgerRepository) ListActiveContracts(ctx context.Context, profileID uint) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("(client_id = ? OR contractor_id = ?) AND status <> ?", profileID, profileID, model.ContractStatusTerminated).
		Order("id ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *LedgerRepository) GetJob(ctx context.Context, id uint) (*model.Job, error) {
	var job model.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *LedgerRepository) LockJob(ctx context.Context, id uint) (*model.Job, error) {
	var job model.Job
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkJobPaid flips an unpaid job to paid. ErrConflict means another
// transaction already settled it.
func (r *LedgerRepository) MarkJobPaid(ctx context.Context, jobID uint, paidAt time.Time) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE jobs
		SET paid = ?, payment_date = ?, updated_at = ?
		WHERE id = ? AND (paid IS NULL OR paid = ?)
	`, true, paidAt, paidAt, jobID, false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListUnpaidJobs returns unpaid jobs under the profile's non-terminated contracts.
func (r *LedgerRepository) ListUnpaidJobs(ctx context.Context, profileID uint) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.WithContext(ctx).Raw(`
		SELECT j.*
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE (c.client_id = ? OR c.contractor_id = ?)
			AND c.status <> ?
			AND (j.paid IS NULL OR j.paid = ?)
		ORDER BY j.id ASC
	`, profileID, profileID, model.ContractStatusTerminated, false).Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// SumUnpaidJobs totals the price of every unpaid job across all of the
// client's contracts, whatever their status.
func (r *LedgerRepository) SumUnpaidJobs(ctx context.Context, clientID uint) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT ROUND(COALESCE(SUM(j.price), 0), 2) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.client_id = ?
			AND (j.paid IS NULL OR j.paid = ?)
	`, clientID, false).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *LedgerRepository) CreateTransfer(ctx context.Context, transfer *model.Transfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *LedgerRepository) GetTransfer(ctx context.Context, id uuid.UUID) (*model.Transfer, error) {
	var transfer model.Transfer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transfer).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}
