package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/store"
)

var examDigits = regexp.MustCompile(`\d+`)

// Seeder populates the relational store from a roster with placeholder attendance.
type Seeder struct {
	store    *store.Store
	subjects []string
	min, max float64
	rng      *rand.Rand
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithRand sets the random source used for attendance percentages.
func WithRand(rng *rand.Rand) SeederOption {
	return func(s *Seeder) { s.rng = rng }
}

// NewSeeder creates a seeder from the ingest configuration.
func NewSeeder(st *store.Store, cfg config.IngestConfig, opts ...SeederOption) *Seeder {
	s := &Seeder{
		store:    st,
		subjects: cfg.Subjects,
		min:      cfg.MinPercentage,
		max:      cfg.MaxPercentage,
	}
	if len(s.subjects) == 0 {
		s.subjects = config.DefaultSubjects
	}
	if s.min == 0 && s.max == 0 {
		s.min, s.max = 65.0, 99.5
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// SetupDB migrates the schema and, when the users table is empty, inserts every
// roster record with attendance for each subject. It returns the number of users
// inserted; zero with a nil error means the table was already populated.
func (s *Seeder) SetupDB(ctx context.Context, rosterPath string) (int, error) {
	if err := s.store.Migrate(ctx); err != nil {
		return 0, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.Info("Database already contains data, skipping population", "users", count)
		return 0, nil
	}

	records, err := LoadRoster(rosterPath)
	if err != nil {
		return 0, err
	}

	return s.Populate(ctx, records)
}

// Populate inserts records in one transaction.
func (s *Seeder) Populate(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, ErrNoRecords
	}

	enrollments := make([]store.Enrollment, 0, len(records))
	for _, r := range records {
		id, err := userID(r.ExamNo)
		if err != nil {
			return 0, err
		}

		e := store.Enrollment{
			User: store.User{
				ID:        id,
				Name:      r.Name,
				Role:      "student",
				ExamNo:    r.ExamNo,
				StudentID: r.StudentID,
			},
		}
		for _, subject := range s.subjects {
			e.Attendance = append(e.Attendance, store.Attendance{
				Subject:    subject,
				Percentage: s.percentage(),
			})
		}
		enrollments = append(enrollments, e)
	}

	if err := s.store.InsertEnrollments(ctx, enrollments); err != nil {
		return 0, fmt.Errorf("populate database: %w", err)
	}

	slog.Info("Database populated", "students", len(enrollments))
	return len(enrollments), nil
}

// percentage draws uniformly from [min, max] and rounds to 2 decimals.
func (s *Seeder) percentage() float64 {
	v := s.min + s.rng.Float64()*(s.max-s.min)
	return math.Round(v*100) / 100
}

// userID is the integer formed by the first run of digits in the exam number.
func userID(examNo string) (int64, error) {
	digits := examDigits.FindString(examNo)
	if digits == "" {
		return 0, fmt.Errorf("exam number %q has no digits", examNo)
	}
	return strconv.ParseInt(digits, 10, 64)
}
