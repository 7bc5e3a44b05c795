package service

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contractor-ledger/internal/metrics"
	"github.com/nurpe/contractor-ledger/internal/model"
)

func TestTransferMetrics(t *testing.T) {
	svc, seed, _, _ := newBalanceFixture(t)
	client := seed.Client("Harry", "Potter", "100")
	contractor := seed.Contractor("John", "Lenon", "Musician", "0")
	job := seed.UnpaidJob(seed.Contract(client, contractor, model.ContractStatusInProgress), "40")

	ok := metrics.Transfers.WithLabelValues(metrics.OperationPayJob, "ok")
	again := metrics.Transfers.WithLabelValues(metrics.OperationPayJob, string(KindAlreadyPaid))
	moved := metrics.TransferredAmount.WithLabelValues(metrics.OperationPayJob)

	okBefore := promtestutil.ToFloat64(ok)
	againBefore := promtestutil.ToFloat64(again)
	movedBefore := promtestutil.ToFloat64(moved)

	_, err := svc.PayJob(context.Background(), job.ID)
	require.NoError(t, err)
	_, err = svc.PayJob(context.Background(), job.ID)
	require.ErrorIs(t, err, ErrAlreadyPaid)

	assert.Equal(t, okBefore+1, promtestutil.ToFloat64(ok))
	assert.Equal(t, againBefore+1, promtestutil.ToFloat64(again))
	assert.InDelta(t, movedBefore+40, promtestutil.ToFloat64(moved), 0.001)
}
