package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Job struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Description string          `gorm:"not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Paid        *bool           `json:"paid"` // NULL is treated as unpaid
	PaymentDate *time.Time      `json:"payment_date"`
	ContractID  uint            `gorm:"index;not null" json:"contract_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

func (j Job) IsPaid() bool {
	return j.Paid != nil && *j.Paid
}
