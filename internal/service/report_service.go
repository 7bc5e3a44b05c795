package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/nurpe/contractor-ledger/internal/config"
	"github.com/nurpe/contractor-ledger/internal/metrics"
	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/repository"
)

// ReportCache stores serialised report results. A miss is (false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type ReportService struct {
	repo     repository.ReportStore
	cache    ReportCache
	maxLimit int
	log      zerolog.Logger
}

func NewReportService(repo repository.ReportStore, cache ReportCache, cfg *config.Config, log zerolog.Logger) *ReportService {
	return &ReportService{
		repo:     repo,
		cache:    cache,
		maxLimit: cfg.Reports.MaxLimit,
		log:      log.With().Str("component", "reports").Logger(),
	}
}

// BestProfession returns the contractor profession with the highest paid
// earnings for payments between start and end (whole days, inclusive). Equal
// totals resolve to the lexicographically smallest profession.
func (s *ReportService) BestProfession(ctx context.Context, start, end time.Time) (*model.ProfessionEarnings, error) {
	period, from, to, err := normalizePeriod(start, end)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("best-profession:%s", periodKey(period))
	var cached model.ProfessionEarnings
	if s.cacheGet(ctx, metrics.ReportBestProfession, key, &cached) {
		return &cached, nil
	}

	var rows []model.ProfessionEarnings
	err = s.withReadRetry(ctx, func() error {
		var err error
		rows, err = s.repo.EarningsByProfession(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, s.readFailed("best profession", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no paid jobs between %s and %s",
			ErrNotFound, formatDay(period.Start), formatDay(period.End))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if cmp := rows[i].Total.Cmp(rows[j].Total); cmp != 0 {
			return cmp > 0
		}
		return rows[i].Profession < rows[j].Profession
	})
	best := rows[0]

	s.cacheSet(ctx, key, best)
	return &best, nil
}

// BestClients ranks clients by the total they paid between start and end.
// Totals are grouped per contract by the store, then merged per client so a
// client with several contracts is counted once with the full amount.
func (s *ReportService) BestClients(ctx context.Context, start, end time.Time, limit int) ([]model.ClientPayment, error) {
	report, err := s.BestClientsReport(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	return report.Clients, nil
}

func (s *ReportService) BestClientsReport(ctx context.Context, start, end time.Time, limit int) (*model.BestClientsReport, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidInput)
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidInput, s.maxLimit)
	}
	period, from, to, err := normalizePeriod(start, end)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("best-clients:%s:%d", periodKey(period), limit)
	var cached []model.ClientPayment
	if s.cacheGet(ctx, metrics.ReportBestClients, key, &cached) {
		return &model.BestClientsReport{Period: period, Limit: limit, Clients: cached}, nil
	}

	var perContract []model.ContractPaidTotal
	err = s.withReadRetry(ctx, func() error {
		var err error
		perContract, err = s.repo.PaidTotalsByContract(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, s.readFailed("best clients", err)
	}

	ranked := mergeClientTotals(perContract)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]uint, 0, len(ranked))
	for _, row := range ranked {
		ids = append(ids, row.ClientID)
	}
	var profiles []model.Profile
	err = s.withReadRetry(ctx, func() error {
		var err error
		profiles, err = s.repo.ListProfilesByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, s.readFailed("best clients", err)
	}
	byID := make(map[uint]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	clients := make([]model.ClientPayment, 0, len(ranked))
	for _, row := range ranked {
		profile, ok := byID[row.ClientID]
		if !ok {
			return nil, s.readFailed("best clients",
				fmt.Errorf("client %d referenced by paid jobs has no profile", row.ClientID))
		}
		clients = append(clients, model.ClientPayment{
			ClientID:  row.ClientID,
			FullName:  profile.FullName(),
			TotalPaid: row.TotalPaid,
		})
	}

	s.cacheSet(ctx, key, clients)
	return &model.BestClientsReport{Period: period, Limit: limit, Clients: clients}, nil
}

// mergeClientTotals re-groups per-contract totals by client and orders them
// by total descending, then client id ascending.
func mergeClientTotals(rows []model.ContractPaidTotal) []model.ClientPayment {
	result := make([]model.ClientPayment, 0, len(rows))
	index := make(map[uint]int, len(rows))

	for _, row := range rows {
		if pos, ok := index[row.ClientID]; ok {
			result[pos].TotalPaid = result[pos].TotalPaid.Add(row.Total)
			continue
		}
		result = append(result, model.ClientPayment{ClientID: row.ClientID, TotalPaid: row.Total})
		index[row.ClientID] = len(result) - 1
	}

	sort.SliceStable(result, func(i, j int) bool {
		if cmp := result[i].TotalPaid.Cmp(result[j].TotalPaid); cmp != 0 {
			return cmp > 0
		}
		return result[i].ClientID < result[j].ClientID
	})
	return result
}

// withReadRetry runs a read-only query, retrying it once after a transient
// store failure.
func (s *ReportService) withReadRetry(ctx context.Context, query func() error) error {
	err := query()
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return err
	}
	metrics.ReportRetries.Inc()
	s.log.Warn().Err(err).Msg("retrying report query after transient error")
	return query()
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return errors.Is(err, driver.ErrBadConn)
}

func (s *ReportService) readFailed(report string, err error) error {
	s.log.Error().Err(err).Str("report", report).Msg("report query failed")
	return internal(err)
}

func (s *ReportService) cacheGet(ctx context.Context, report, key string, dest any) bool {
	if s.cache == nil {
		metrics.ReportRequests.WithLabelValues(report, "disabled").Inc()
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		hit = false
	}
	if hit {
		metrics.ReportRequests.WithLabelValues(report, "hit").Inc()
	} else {
		metrics.ReportRequests.WithLabelValues(report, "miss").Inc()
	}
	return hit
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}

// normalizePeriod accepts UTC calendar days only and returns the
// half-open range [from, to) covering start..end inclusive.
func normalizePeriod(start, end time.Time) (model.ReportPeriod, time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return model.ReportPeriod{}, time.Time{}, time.Time{},
			fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}
	periodStart := dateOnly(start)
	periodEnd := dateOnly(end)
	if !start.Equal(periodStart) || !end.Equal(periodEnd) {
		return model.ReportPeriod{}, time.Time{}, time.Time{},
			fmt.Errorf("%w: start and end must be calendar dates without a time of day", ErrInvalidInput)
	}
	if periodStart.After(periodEnd) {
		return model.ReportPeriod{}, time.Time{}, time.Time{},
			fmt.Errorf("%w: start must be before or equal to end", ErrInvalidInput)
	}
	return model.ReportPeriod{Start: periodStart, End: periodEnd}, periodStart, periodEnd.AddDate(0, 0, 1), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func periodKey(period model.ReportPeriod) string {
	return period.Start.Format("20060102") + "-" + period.End.Format("20060102")
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
