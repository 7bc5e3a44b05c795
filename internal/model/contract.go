package model

import "time"

type ContractStatus string

const (
	ContractStatusNew        ContractStatus = "new"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusTerminated ContractStatus = "terminated"
)

type Contract struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Terms        string         `gorm:"not null" json:"terms"`
	Status       ContractStatus `gorm:"type:varchar(16);not null" json:"status"`
	ClientID     uint           `gorm:"index;not null" json:"client_id"`
	ContractorID uint           `gorm:"index;not null" json:"contractor_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// HasParty reports whether the profile is the client or the contractor of c.
func (c Contract) HasParty(profileID uint) bool {
	return c.ClientID == profileID || c.ContractorID == profileID
}
