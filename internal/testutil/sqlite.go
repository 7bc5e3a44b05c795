// Package testutil wires a throwaway SQLite-backed GORM database with the
// ledger schema for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/contractor-ledger/internal/model"
)

// NewSQLite opens a migrated database in a temp dir. SQLite keeps
// numeric(12,2) columns as REAL, so sums and balance guards run in floating
// point here; the repository rounds them to cents, but exact NUMERIC
// arithmetic is only exercised against postgres.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_foreign_keys=on"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// A single connection serializes transactions the way row locks would.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(&model.Profile{}, &model.Contract{}, &model.Job{}, &model.Transfer{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return database
}

// Seed is a small fixture builder over a test database.
type Seed struct {
	t  testing.TB
	db *gorm.DB
}

func NewSeed(t testing.TB, db *gorm.DB) *Seed {
	return &Seed{t: t, db: db}
}

func (s *Seed) Client(first, last string, balance string) model.Profile {
	return s.profile(first, last, "", balance, model.ProfileTypeClient)
}

func (s *Seed) Contractor(first, last, profession string, balance string) model.Profile {
	return s.profile(first, last, profession, balance, model.ProfileTypeContractor)
}

func (s *Seed) profile(first, last, profession, balance string, kind model.ProfileType) model.Profile {
	s.t.Helper()
	p := model.Profile{
		FirstName:  first,
		LastName:   last,
		Profession: profession,
		Balance:    decimal.RequireFromString(balance),
		Type:       kind,
	}
	if err := s.db.Create(&p).Error; err != nil {
		s.t.Fatalf("seed profile: %v", err)
	}
	return p
}

func (s *Seed) Contract(client, contractor model.Profile, status model.ContractStatus) model.Contract {
	s.t.Helper()
	c := model.Contract{
		Terms:        "terms",
		Status:       status,
		ClientID:     client.ID,
		ContractorID: contractor.ID,
	}
	if err := s.db.Create(&c).Error; err != nil {
		s.t.Fatalf("seed contract: %v", err)
	}
	return c
}

func (s *Seed) UnpaidJob(contract model.Contract, price string) model.Job {
	s.t.Helper()
	j := model.Job{
		Description: "work",
		Price:       decimal.RequireFromString(price),
		ContractID:  contract.ID,
	}
	if err := s.db.Create(&j).Error; err != nil {
		s.t.Fatalf("seed job: %v", err)
	}
	return j
}

func (s *Seed) PaidJob(contract model.Contract, price string, paidAt time.Time) model.Job {
	s.t.Helper()
	paid := true
	paidAt = paidAt.UTC()
	j := model.Job{
		Description: "work",
		Price:       decimal.RequireFromString(price),
		Paid:        &paid,
		PaymentDate: &paidAt,
		ContractID:  contract.ID,
	}
	if err := s.db.Create(&j).Error; err != nil {
		s.t.Fatalf("seed job: %v", err)
	}
	return j
}

func (s *Seed) Reload(p model.Profile) model.Profile {
	s.t.Helper()
	var fresh model.Profile
	if err := s.db.First(&fresh, p.ID).Error; err != nil {
		s.t.Fatalf("reload profile: %v", err)
	}
	return fresh
}

func (s *Seed) ReloadJob(j model.Job) model.Job {
	s.t.Helper()
	var fresh model.Job
	if err := s.db.First(&fresh, j.ID).Error; err != nil {
		s.t.Fatalf("reload job: %v", err)
	}
	return fresh
}
