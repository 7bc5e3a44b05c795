package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/repository"
	"github.com/nurpe/contractor-ledger/internal/testutil"
)

func TestMarketplaceService(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	svc := NewMarketplaceService(repository.NewLedgerRepository(db))
	ctx := context.Background()

	harry := seed.Client("Harry", "Potter", "100")
	ash := seed.Client("Ash", "Kethcum", "100")
	linus := seed.Contractor("Linus", "Torvalds", "Programmer", "0")

	active := seed.Contract(harry, linus, model.ContractStatusInProgress)
	fresh := seed.Contract(harry, linus, model.ContractStatusNew)
	terminated := seed.Contract(harry, linus, model.ContractStatusTerminated)
	other := seed.Contract(ash, linus, model.ContractStatusInProgress)

	unpaid := seed.UnpaidJob(active, "20")
	seed.UnpaidJob(terminated, "30")
	seed.PaidJob(fresh, "40", at(2020, 8, 15, 9, 0))
	seed.UnpaidJob(other, "50")

	t.Run("get profile", func(t *testing.T) {
		p, err := svc.GetProfile(ctx, harry.ID)
		require.NoError(t, err)
		assert.True(t, p.IsClient())

		_, err = svc.GetProfile(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("contract visible to its parties only", func(t *testing.T) {
		c, err := svc.GetContract(ctx, linus.ID, active.ID)
		require.NoError(t, err)
		assert.Equal(t, active.ID, c.ID)

		_, err = svc.GetContract(ctx, ash.ID, active.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = svc.GetContract(ctx, harry.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("active contracts skip terminated", func(t *testing.T) {
		contracts, err := svc.ListActiveContracts(ctx, harry.ID)
		require.NoError(t, err)
		ids := make([]uint, 0, len(contracts))
		for _, c := range contracts {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []uint{active.ID, fresh.ID}, ids)

		contracts, err = svc.ListActiveContracts(ctx, linus.ID)
		require.NoError(t, err)
		assert.Len(t, contracts, 3)
	})

	t.Run("unpaid jobs under active contracts", func(t *testing.T) {
		jobs, err := svc.ListUnpaidJobs(ctx, harry.ID)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, unpaid.ID, jobs[0].ID)

		jobs, err = svc.ListUnpaidJobs(ctx, linus.ID)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})
}

func TestComputeOutstanding(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	store := repository.NewLedgerRepository(db)

	harry := seed.Client("Harry", "Potter", "0")
	linus := seed.Contractor("Linus", "Torvalds", "Programmer", "0")

	total, err := ComputeOutstanding(context.Background(), store, harry.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	seed.UnpaidJob(seed.Contract(harry, linus, model.ContractStatusInProgress), "12.50")
	seed.UnpaidJob(seed.Contract(harry, linus, model.ContractStatusTerminated), "7.25")
	seed.PaidJob(seed.Contract(harry, linus, model.ContractStatusNew), "1000", at(2020, 8, 15, 9, 0))

	total, err = ComputeOutstanding(context.Background(), store, harry.ID)
	require.NoError(t, err)
	assertMoney(t, "19.75", total)

	assertMoney(t, "4.9375", depositCap(total, dec("0.25")))
}
