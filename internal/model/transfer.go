package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferKind string

const (
	TransferKindDeposit    TransferKind = "deposit"
	TransferKindJobPayment TransferKind = "job_payment"
)

// Transfer is an append-only ledger entry written in the same transaction
// as the balance change it records.
type Transfer struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      TransferKind    `gorm:"type:varchar(16);not null" json:"kind"`
	JobID     *uint           `gorm:"index" json:"job_id,omitempty"`
	PayerID   *uint           `gorm:"index" json:"payer_id,omitempty"`
	PayeeID   uint            `gorm:"index;not null" json:"payee_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (Transfer) TableName() string { return "transfers" }

type Receipt struct {
	TransferID uuid.UUID       `json:"transfer_id"`
	JobID      uint            `json:"job_id"`
	Amount     decimal.Decimal `json:"amount"`
	PayerID    uint            `json:"payer_id"`
	PayeeID    uint            `json:"payee_id"`
	PaidAt     time.Time       `json:"paid_at"`
}

type DepositResult struct {
	TransferID uuid.UUID       `json:"transfer_id"`
	ClientID   uint            `json:"client_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// ReceiptDocument carries everything the PDF receipt renders.
type ReceiptDocument struct {
	Transfer   Transfer
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
}
