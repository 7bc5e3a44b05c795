package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/testutil"
)

func newMockRepository(t *testing.T) (*LedgerRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewLedgerRepository(database), mock
}

func TestLockProfileUsesRowLock(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "profession", "balance", "type"}).
		AddRow(1, "Harry", "Potter", "", "1150.00", "client")
	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE .*id = \$1 AND type = \$2.* FOR UPDATE`).
		WillReturnRows(rows)

	profile, err := repo.LockProfile(context.Background(), 1, model.ProfileTypeClient)
	require.NoError(t, err)
	assert.Equal(t, "Harry Potter", profile.FullName())
	assert.True(t, decimal.RequireFromString("1150").Equal(profile.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockJobUsesRowLock(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE .*id = \$1.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "paid", "contract_id"}).AddRow(5, "200", nil, 1))

	job, err := repo.LockJob(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, job.IsPaid())
	assert.Equal(t, uint(1), job.ContractID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE profiles`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.InTx(context.Background(), func(tx LedgerStore) error {
		if err := tx.AdjustBalance(context.Background(), 1, decimal.NewFromInt(10)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommits(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE jobs\s+SET paid = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(tx LedgerStore) error {
		return tx.MarkJobPaid(context.Background(), 5, time.Now().UTC())
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalanceGuard(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := seed.Client("Harry", "Potter", "100")

	require.NoError(t, repo.AdjustBalance(ctx, client.ID, decimal.RequireFromString("-99.99")))
	assert.True(t, decimal.RequireFromString("0.01").Equal(seed.Reload(client).Balance))

	err := repo.AdjustBalance(ctx, client.ID, decimal.RequireFromString("-0.02"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, decimal.RequireFromString("0.01").Equal(seed.Reload(client).Balance))

	err = repo.AdjustBalance(ctx, 9999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBalanceArithmeticStaysInCents(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	harry := seed.Client("Harry", "Potter", "0.10")
	linus := seed.Contractor("Linus", "Torvalds", "Programmer", "0")
	contract := seed.Contract(harry, linus, model.ContractStatusInProgress)
	seed.UnpaidJob(contract, "0.10")
	seed.UnpaidJob(contract, "0.20")

	// 0.1 + 0.2 is not 0.3 in binary floating point.
	require.NoError(t, repo.AdjustBalance(ctx, harry.ID, decimal.RequireFromString("0.20")))
	assert.Equal(t, "0.3", seed.Reload(harry).Balance.String())

	total, err := repo.SumUnpaidJobs(ctx, harry.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.3", total.String())

	require.NoError(t, repo.AdjustBalance(ctx, harry.ID, decimal.RequireFromString("-0.30")))
	assert.True(t, seed.Reload(harry).Balance.IsZero(), seed.Reload(harry).Balance.String())

	assert.ErrorIs(t, repo.AdjustBalance(ctx, harry.ID, decimal.RequireFromString("-0.01")), ErrConflict)
}

func TestMarkJobPaidOnce(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := seed.Client("Harry", "Potter", "100")
	contractor := seed.Contractor("Linus", "Torvalds", "Programmer", "0")
	job := seed.UnpaidJob(seed.Contract(client, contractor, model.ContractStatusInProgress), "10")

	paidAt := time.Date(2020, 8, 15, 19, 11, 26, 0, time.UTC)
	require.NoError(t, repo.MarkJobPaid(ctx, job.ID, paidAt))
	assert.ErrorIs(t, repo.MarkJobPaid(ctx, job.ID, paidAt.Add(time.Hour)), ErrConflict)

	fresh := seed.ReloadJob(job)
	assert.True(t, fresh.IsPaid())
	require.NotNil(t, fresh.PaymentDate)
	assert.True(t, paidAt.Equal(*fresh.PaymentDate))
}

func TestLockMissingRowsReportNotFound(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	contractor := seed.Contractor("Linus", "Torvalds", "Programmer", "0")

	_, err := repo.LockJob(ctx, 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.LockProfile(ctx, contractor.ID, model.ProfileTypeClient)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetTransfer(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSumUnpaidJobs(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)

	harry := seed.Client("Harry", "Potter", "0")
	ash := seed.Client("Ash", "Kethcum", "0")
	linus := seed.Contractor("Linus", "Torvalds", "Programmer", "0")

	seed.UnpaidJob(seed.Contract(harry, linus, model.ContractStatusInProgress), "201")
	seed.UnpaidJob(seed.Contract(harry, linus, model.ContractStatusTerminated), "99.5")
	seed.UnpaidJob(seed.Contract(ash, linus, model.ContractStatusInProgress), "1000")

	total, err := repo.SumUnpaidJobs(context.Background(), harry.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("300.5").Equal(total), total.String())

	total, err = repo.SumUnpaidJobs(context.Background(), linus.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestTransferRoundTrip(t *testing.T) {
	db := testutil.NewSQLite(t)
	seed := testutil.NewSeed(t, db)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	client := seed.Client("Harry", "Potter", "0")

	transfer := &model.Transfer{
		Kind:    model.TransferKindDeposit,
		PayeeID: client.ID,
		Amount:  decimal.RequireFromString("12.34"),
	}
	require.NoError(t, repo.CreateTransfer(ctx, transfer))
	assert.NotEqual(t, uuid.Nil, transfer.ID)
	assert.False(t, transfer.CreatedAt.IsZero())

	loaded, err := repo.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransferKindDeposit, loaded.Kind)
	assert.Nil(t, loaded.JobID)
	assert.True(t, transfer.Amount.Equal(loaded.Amount))
}
