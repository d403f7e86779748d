package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()

	err := s.InsertEnrollments(context.Background(), []Enrollment{
		{
			User: User{ID: 1, Name: "Aarav Patel", Role: "student", ExamNo: "IT001", StudentID: "22ITUON001"},
			Attendance: []Attendance{
				{Subject: "Physics", Percentage: 85.0},
				{Subject: "Chemistry", Percentage: 92.0},
			},
		},
		{User: User{ID: 2, Name: "Diya Shah", Role: "student", ExamNo: "IT002"}},
		{User: User{ID: 3, Name: "Kabir Mehta", Role: "student", ExamNo: "IT003", StudentID: "22ITUON003"}},
		{User: User{ID: 4, Name: "Riya Shah", Role: "student", ExamNo: "IT004"}},
	})
	require.NoError(t, err)
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		dsn     string
		wantErr bool
	}{
		{url: "sqlite://./college.db", dialect: DialectSQLite, dsn: "./college.db"},
		{url: "sqlite:///var/lib/college.db", dialect: DialectSQLite, dsn: "/var/lib/college.db"},
		{url: "sqlite://:memory:", dialect: DialectSQLite, dsn: ":memory:"},
		{url: "college.db", dialect: DialectSQLite, dsn: "college.db"},
		{url: "postgres://u:p@localhost/college", dialect: DialectPostgres, dsn: "postgres://u:p@localhost/college"},
		{url: "postgresql://localhost/college", dialect: DialectPostgres, dsn: "postgresql://localhost/college"},
		{url: "mysql://localhost/college", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))

	n, err := s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Lookups(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	u, err := s.FindByIdentifier(ctx, "it003")
	require.NoError(t, err)
	assert.Equal(t, "Kabir Mehta", u.Name)

	u, err = s.FindByIdentifier(ctx, "22ituon001")
	require.NoError(t, err)
	assert.Equal(t, "IT001", u.ExamNo)

	u, err = s.FindByExactName(ctx, "diya shah")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Empty(t, u.StudentID)

	u, err = s.FindByPartialName(ctx, "SHAH")
	require.NoError(t, err)
	assert.Equal(t, "IT002", u.ExamNo, "first match by exam number")

	_, err = s.FindByExactName(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAfterAndBefore(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	after, err := s.ListAfter(ctx, "IT002", 10)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "IT003", after[0].ExamNo)
	assert.Equal(t, "IT004", after[1].ExamNo)

	before, err := s.ListBefore(ctx, "IT004", 2)
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, "IT003", before[0].ExamNo)
	assert.Equal(t, "IT002", before[1].ExamNo)

	none, err := s.ListAfter(ctx, "IT004", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_AttendanceOrder(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	records, err := s.AttendanceFor(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Physics", records[0].Subject)
	assert.InDelta(t, 85.0, records[0].Percentage, 1e-9)
	assert.Equal(t, "Chemistry", records[1].Subject)

	records, err = s.AttendanceFor(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInsertEnrollments_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.InsertEnrollments(ctx, []Enrollment{
		{User: User{ID: 1, Name: "A", Role: "student", ExamNo: "IT001"}, Attendance: []Attendance{{Subject: "Physics", Percentage: 70}}},
		{User: User{ID: 2, Name: "B", Role: "student", ExamNo: "IT001"}},
	})
	require.Error(t, err)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := s.AttendanceFor(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInsertEnrollments_Empty(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.InsertEnrollments(context.Background(), nil), ErrNoRecordsToInsert)
}
