package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contractor-ledger/internal/config"
	"github.com/nurpe/contractor-ledger/internal/metrics"
	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/repository"
)

// ReportInvalidator drops cached reports after the ledger changes.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

type BalanceService struct {
	store       repository.LedgerStore
	invalidator ReportInvalidator
	capRatio    decimal.Decimal
	txTimeout   time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewBalanceService(store repository.LedgerStore, invalidator ReportInvalidator, cfg *config.Config, log zerolog.Logger) *BalanceService {
	return &BalanceService{
		store:       store,
		invalidator: invalidator,
		capRatio:    cfg.Ledger.DepositCapRatio,
		txTimeout:   cfg.DB.TxTimeout,
		log:         log.With().Str("component", "balance").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Deposit credits a client's balance. The deposit may not exceed the cap
// ratio applied to the client's outstanding debt, measured inside the same
// transaction that holds the client row lock.
func (s *BalanceService) Deposit(ctx context.Context, clientID uint, amount decimal.Decimal) (*model.DepositResult, error) {
	if clientID == 0 {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return nil, fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var result *model.DepositResult
	err := s.store.InTx(ctx, func(tx repository.LedgerStore) error {
		client, err := tx.LockProfile(ctx, clientID, model.ProfileTypeClient)
		if err != nil {
			return notFound(err, "client profile")
		}

		outstanding, err := ComputeOutstanding(ctx, tx, clientID)
		if err != nil {
			return internal(err)
		}
		limit := depositCap(outstanding, s.capRatio)
		if amount.GreaterThan(limit) {
			return fmt.Errorf("%w: amount %s exceeds maximum deposit %s",
				ErrLimitExceeded, amount.StringFixed(2), limit.StringFixed(2))
		}

		if err := tx.AdjustBalance(ctx, clientID, amount); err != nil {
			return internal(err)
		}

		transfer := &model.Transfer{
			ID:        uuid.New(),
			Kind:      model.TransferKindDeposit,
			PayeeID:   clientID,
			Amount:    amount,
			CreatedAt: s.now(),
		}
		if err := tx.CreateTransfer(ctx, transfer); err != nil {
			return internal(err)
		}

		result = &model.DepositResult{
			TransferID: transfer.ID,
			ClientID:   clientID,
			Amount:     amount,
			NewBalance: client.Balance.Add(amount),
		}
		return nil
	})
	err = s.finish(metrics.OperationDeposit, amount, err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("client_id", clientID).
		Str("amount", amount.StringFixed(2)).
		Str("new_balance", result.NewBalance.StringFixed(2)).
		Msg("deposit applied")
	return result, nil
}

// PayJob settles a job by moving its price from the client to the
// contractor. Debit, credit, paid flag and ledger entry commit together.
func (s *BalanceService) PayJob(ctx context.Context, jobID uint) (*model.Receipt, error) {
	return s.payJob(ctx, jobID, nil)
}

// PayJobAs is PayJob on behalf of a profile, which must be the job's client.
func (s *BalanceService) PayJobAs(ctx context.Context, profileID, jobID uint) (*model.Receipt, error) {
	return s.payJob(ctx, jobID, &profileID)
}

func (s *BalanceService) payJob(ctx context.Context, jobID uint, actorID *uint) (*model.Receipt, error) {
	if jobID == 0 {
		return nil, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var receipt *model.Receipt
	amount := decimal.Zero
	err := s.store.InTx(ctx, func(tx repository.LedgerStore) error {
		job, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return notFound(err, "job")
		}
		if job.IsPaid() {
			return fmt.Errorf("%w: job %d", ErrAlreadyPaid, job.ID)
		}
		if !job.Price.IsPositive() {
			return internal(fmt.Errorf("job %d has non-positive price %s", job.ID, job.Price))
		}

		contract, err := tx.GetContract(ctx, job.ContractID)
		if err != nil {
			return internal(fmt.Errorf("load contract %d of job %d: %w", job.ContractID, job.ID, err))
		}
		if actorID != nil && contract.ClientID != *actorID {
			return fmt.Errorf("%w: only the contract's client can pay this job", ErrPermissionDenied)
		}

		// Client before contractor, always, so concurrent payments cannot deadlock.
		client, err := tx.LockProfile(ctx, contract.ClientID, model.ProfileTypeClient)
		if err != nil {
			return internal(fmt.Errorf("load client %d of contract %d: %w", contract.ClientID, contract.ID, err))
		}
		contractor, err := tx.LockProfile(ctx, contract.ContractorID, model.ProfileTypeContractor)
		if err != nil {
			return internal(fmt.Errorf("load contractor %d of contract %d: %w", contract.ContractorID, contract.ID, err))
		}

		if client.Balance.LessThan(job.Price) {
			return fmt.Errorf("%w: balance %s is below job price %s",
				ErrInsufficientFunds, client.Balance.StringFixed(2), job.Price.StringFixed(2))
		}

		if err := tx.AdjustBalance(ctx, client.ID, job.Price.Neg()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: balance changed during payment", ErrInsufficientFunds)
			}
			return internal(err)
		}
		if err := tx.AdjustBalance(ctx, contractor.ID, job.Price); err != nil {
			return internal(err)
		}

		paidAt := s.now()
		if err := tx.MarkJobPaid(ctx, job.ID, paidAt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: job %d", ErrAlreadyPaid, job.ID)
			}
			return internal(err)
		}

		payerID := client.ID
		paidJobID := job.ID
		transfer := &model.Transfer{
			ID:        uuid.New(),
			Kind:      model.TransferKindJobPayment,
			JobID:     &paidJobID,
			PayerID:   &payerID,
			PayeeID:   contractor.ID,
			Amount:    job.Price,
			CreatedAt: paidAt,
		}
		if err := tx.CreateTransfer(ctx, transfer); err != nil {
			return internal(err)
		}

		amount = job.Price
		receipt = &model.Receipt{
			TransferID: transfer.ID,
			JobID:      job.ID,
			Amount:     job.Price,
			PayerID:    client.ID,
			PayeeID:    contractor.ID,
			PaidAt:     paidAt,
		}
		return nil
	})
	err = s.finish(metrics.OperationPayJob, amount, err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("job_id", receipt.JobID).
		Uint("payer_id", receipt.PayerID).
		Uint("payee_id", receipt.PayeeID).
		Str("amount", receipt.Amount.StringFixed(2)).
		Str("transfer_id", receipt.TransferID.String()).
		Msg("job paid")

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("report cache invalidation failed")
		}
	}
	return receipt, nil
}

// Receipt loads the documents behind a job payment transfer. The profile must
// be the payer or the payee.
func (s *BalanceService) Receipt(ctx context.Context, profileID uint, transferID uuid.UUID) (*model.ReceiptDocument, error) {
	transfer, err := s.store.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, notFound(err, "transfer")
	}
	if transfer.Kind != model.TransferKindJobPayment || transfer.JobID == nil || transfer.PayerID == nil {
		return nil, fmt.Errorf("%w: transfer is not a job payment", ErrNotFound)
	}
	if *transfer.PayerID != profileID && transfer.PayeeID != profileID {
		return nil, ErrPermissionDenied
	}

	job, err := s.store.GetJob(ctx, *transfer.JobID)
	if err != nil {
		return nil, internal(err)
	}
	contract, err := s.store.GetContract(ctx, job.ContractID)
	if err != nil {
		return nil, internal(err)
	}
	client, err := s.store.GetProfile(ctx, *transfer.PayerID)
	if err != nil {
		return nil, internal(err)
	}
	contractor, err := s.store.GetProfile(ctx, transfer.PayeeID)
	if err != nil {
		return nil, internal(err)
	}

	return &model.ReceiptDocument{
		Transfer:   *transfer,
		Job:        *job,
		Contract:   *contract,
		Client:     *client,
		Contractor: *contractor,
	}, nil
}

// finish records the outcome and normalises store failures to ErrInternal.
// Mutations are never retried.
func (s *BalanceService) finish(operation string, amount decimal.Decimal, err error) error {
	if err == nil {
		metrics.Transfers.WithLabelValues(operation, "ok").Inc()
		metrics.TransferredAmount.WithLabelValues(operation).Add(amount.InexactFloat64())
		return nil
	}

	kind := Kind(err)
	metrics.Transfers.WithLabelValues(operation, string(kind)).Inc()
	if kind == KindInternal {
		s.log.Error().Err(err).Str("operation", operation).Msg("transfer failed")
		return internal(err)
	}
	s.log.Debug().Err(err).Str("operation", operation).Msg("transfer rejected")
	return err
}
