package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProfileType string

const (
	ProfileTypeClient     ProfileType = "client"
	ProfileTypeContractor ProfileType = "contractor"
)

type Profile struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	FirstName  string          `gorm:"not null" json:"first_name"`
	LastName   string          `gorm:"not null" json:"last_name"`
	Profession string          `gorm:"not null" json:"profession"`
	Balance    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	Type       ProfileType     `gorm:"type:varchar(16);not null" json:"type"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Profile) IsClient() bool     { return p.Type == ProfileTypeClient }
func (p Profile) IsContractor() bool { return p.Type == ProfileTypeContractor }
