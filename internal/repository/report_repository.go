package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/contractor-ledger/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// EarningsByProfession sums paid job prices per contractor profession for
// payments in [from, to).
func (r *ReportRepository) EarningsByProfession(ctx context.Context, from, to time.Time) ([]model.ProfessionEarnings, error) {
	var rows []model.ProfessionEarnings
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.profession AS profession,
			ROUND(SUM(j.price), 2) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN profiles p ON p.id = c.contractor_id
		WHERE j.paid = ?
			AND j.payment_date >= ?
			AND j.payment_date < ?
		GROUP BY p.profession
		ORDER BY total DESC, profession ASC
	`, true, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PaidTotalsByContract sums paid job prices per contract for payments in
// [from, to). Rows carry the contract's client so callers can re-group.
func (r *ReportRepository) PaidTotalsByContract(ctx context.Context, from, to time.Time) ([]model.ContractPaidTotal, error) {
	var rows []model.ContractPaidTotal
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			j.contract_id AS contract_id,
			c.client_id AS client_id,
			ROUND(SUM(j.price), 2) AS total
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.paid = ?
			AND j.payment_date >= ?
			AND j.payment_date < ?
		GROUP BY j.contract_id, c.client_id
		ORDER BY j.contract_id ASC
	`, true, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepository) ListProfilesByIDs(ctx context.Context, ids []uint) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	var profiles []model.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
