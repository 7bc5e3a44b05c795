package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReportPeriod struct {
	Start time.Time
	End   time.Time
}

type ProfessionEarnings struct {
	Profession string          `json:"profession"`
	Total      decimal.Decimal `json:"total_earnings"`
}

// ContractPaidTotal is one row of the per-contract grouping that feeds the
// client report before it is re-grouped by client.
type ContractPaidTotal struct {
	ContractID uint
	ClientID   uint
	Total      decimal.Decimal
}

type ClientPayment struct {
	ClientID  uint            `json:"id"`
	FullName  string          `json:"full_name"`
	TotalPaid decimal.Decimal `json:"paid"`
}

type BestClientsReport struct {
	Period  ReportPeriod
	Limit   int
	Clients []ClientPayment
}
