package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/testutil"
)

func TestReportRepository(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewReportRepository(db)
	ctx := context.Background()

	harry := seed.Client("Harry", "Potter", "0")
	ash := seed.Client("Ash", "Kethcum", "0")
	linus := seed.Contractor("Linus", "Torvalds", "Programmer", "0")
	john := seed.Contractor("John", "Lenon", "Musician", "0")

	paid := time.Date(2020, 8, 15, 12, 0, 0, 0, time.UTC)
	first := seed.Contract(harry, linus, model.ContractStatusInProgress)
	second := seed.Contract(harry, john, model.ContractStatusTerminated)
	third := seed.Contract(ash, linus, model.ContractStatusInProgress)
	seed.PaidJob(first, "100", paid)
	seed.PaidJob(first, "50", paid)
	seed.PaidJob(second, "25", paid)
	seed.PaidJob(third, "10", paid.AddDate(0, 1, 0))
	seed.UnpaidJob(third, "999")

	from := time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("earnings by profession", func(t *testing.T) {
		rows, err := repo.EarningsByProfession(ctx, from, to)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Programmer", rows[0].Profession)
		assert.True(t, decimal.NewFromInt(150).Equal(rows[0].Total))
		assert.Equal(t, "Musician", rows[1].Profession)
	})

	t.Run("paid totals by contract", func(t *testing.T) {
		rows, err := repo.PaidTotalsByContract(ctx, from, to)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, first.ID, rows[0].ContractID)
		assert.Equal(t, harry.ID, rows[0].ClientID)
		assert.True(t, decimal.NewFromInt(150).Equal(rows[0].Total))
		assert.Equal(t, second.ID, rows[1].ContractID)
		assert.True(t, decimal.NewFromInt(25).Equal(rows[1].Total))
	})

	t.Run("profiles by ids", func(t *testing.T) {
		profiles, err := repo.ListProfilesByIDs(ctx, []uint{harry.ID, ash.ID})
		require.NoError(t, err)
		assert.Len(t, profiles, 2)

		profiles, err = repo.ListProfilesByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})
}
