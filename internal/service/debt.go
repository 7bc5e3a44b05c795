package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nurpe/contractor-ledger/internal/repository"
)

// ComputeOutstanding returns the client's total unpaid job exposure across all
// contracts. It reads through store, so when store is a transaction handle the
// figure is consistent with that transaction.
func ComputeOutstanding(ctx context.Context, store repository.LedgerStore, clientID uint) (decimal.Decimal, error) {
	total, err := store.SumUnpaidJobs(ctx, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}

// depositCap is the largest single deposit allowed against outstanding debt.
// It is kept unrounded so the comparison with the deposit amount is exact.
func depositCap(outstanding, ratio decimal.Decimal) decimal.Decimal {
	return outstanding.Mul(ratio)
}
