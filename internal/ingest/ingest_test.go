package ingest

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ekisa-team/campus-assistant/internal/config"
	"github.com/ekisa-team/campus-assistant/internal/store"
	"github.com/ekisa-team/campus-assistant/internal/vectorstore"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "words with overlap", size: 15, overlap: 5,
			text: "one two three four five six seven eight nine ten",
			want: []string{"one two three", "four five six", "six seven", "eight nine ten"},
		},
		{
			name: "paragraphs", size: 20, overlap: 0,
			text: "Para one here.\n\nPara two is here.\n\nThree",
			want: []string{"Para one here.", "Para two is here.", "Three"},
		},
		{
			name: "characters", size: 10, overlap: 3,
			text: "abcdefghijklmnopqrstuvwxyz",
			want: []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"},
		},
		{
			name: "short", size: 1000, overlap: 150,
			text: "short text",
			want: []string{"short text"},
		},
		{
			name: "blank", size: 1000, overlap: 150,
			text: "  \n\n ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSplitter(tt.size, tt.overlap).Split(tt.text))
		})
	}
}

func TestSplitter_RespectsSize(t *testing.T) {
	var b strings.Builder
	for i := range 400 {
		b.WriteString("lecture ")
		if i%25 == 0 {
			b.WriteString("\n")
		}
	}

	s := NewSplitter(100, 20)
	chunks := s.Split(b.String())
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		assert.NotEmpty(t, c)
	}
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 1000, s.Size)
	assert.Equal(t, 0, s.Overlap)
	assert.Equal(t, DefaultSeparators, s.Separators)
}

func TestParseRosterText(t *testing.T) {
	text := strings.Join([]string{
		"Roll Numbers - Semester 6",
		`"IT002","22ITUON002 Diya Shah"`,
		`"IT001","22ITUON001 AGHERA AAYUSH SURESHBHAI"`,
		`"IT001","Duplicate Entry"`,
		"IT126   Kabir Mehta\r",
		"IT127 PATEL",
		"",
		"Page 3 of 3",
	}, "\n")

	got := ParseRosterText(text)

	assert.Equal(t, []Record{
		{ExamNo: "IT001", Name: "AGHERA AAYUSH SURESHBHAI", StudentID: "22ITUON001"},
		{ExamNo: "IT002", Name: "Diya Shah", StudentID: "22ITUON002"},
		{ExamNo: "IT126", Name: "Kabir Mehta"},
		{ExamNo: "IT127", Name: "PATEL"},
	}, got)
}

func TestParseRosterText_NoRecords(t *testing.T) {
	assert.Empty(t, ParseRosterText("nothing to see\nhere"))
}

func writeWorkbook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	require.NoError(t, f.SaveAs(path))
}

func TestLoadRoster_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	writeWorkbook(t, path, map[string][][]any{
		"Roster": {
			{"Exam No", "Name"},
			{"IT003", "", "22ITUON003 Kabir Mehta"},
			{"IT001", "Aarav Patel"},
			{"IT001", "Again"},
			{"notes"},
		},
	})

	got, err := LoadRoster(path)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{ExamNo: "IT001", Name: "Aarav Patel"},
		{ExamNo: "IT003", Name: "Kabir Mehta", StudentID: "22ITUON003"},
	}, got)
}

func TestLoadRoster_Unsupported(t *testing.T) {
	_, err := LoadRoster("roster.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestUserID(t *testing.T) {
	id, err := userID("IT042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = userID("ITXYZ")
	assert.Error(t, err)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return st
}

func TestSeeder_SetupDBIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	writeWorkbook(t, path, map[string][][]any{
		"Sheet1": {{"IT001", "Aarav Patel"}, {"IT002", "Diya Shah"}},
	})

	s := NewSeeder(st, config.IngestConfig{}, WithRand(rand.New(rand.NewPCG(1, 2))))

	n, err := s.SetupDB(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SetupDB(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	u, err := st.FindByIdentifier(ctx, "IT002")
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, "student", u.Role)

	records, err := st.AttendanceFor(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, records, len(config.DefaultSubjects))
	for i, a := range records {
		assert.Equal(t, config.DefaultSubjects[i], a.Subject)
		assert.GreaterOrEqual(t, a.Percentage, 65.0)
		assert.LessOrEqual(t, a.Percentage, 99.5)
		assert.InDelta(t, math.Round(a.Percentage*100)/100, a.Percentage, 1e-9)
	}
}

func TestSeeder_NoRecords(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))

	_, err := NewSeeder(st, config.IngestConfig{}).Populate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

type lengthEmbedder struct{}

func (lengthEmbedder) Model() string { return "length" }

func (lengthEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, s := range texts {
		out[i] = []float32{float32(len(s)), 1}
	}
	return out, nil
}

func TestIndexBuilder_Build(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "vectorstore")

	writeWorkbook(t, filepath.Join(dataDir, "timetable.xlsx"), map[string][][]any{
		"Monday":  {{"09:00", "Physics"}, {"10:00", "Chemistry"}},
		"Tuesday": {{"09:00", "Algorithms"}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.txt"), []byte("ignored"), 0o644))

	b := NewIndexBuilder(NewSplitter(1000, 150), lengthEmbedder{})
	n, err := b.Build(ctx, dataDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ix, err := vectorstore.Load(ctx, outDir)
	require.NoError(t, err)
	assert.Equal(t, "length", ix.Model)
	require.Len(t, ix.Chunks, 2)

	var contents []string
	for _, c := range ix.Chunks {
		assert.Equal(t, "timetable.xlsx", c.Source)
		contents = append(contents, c.Content)
	}
	assert.Contains(t, contents, "09:00\tPhysics\n10:00\tChemistry")
	assert.Contains(t, contents, "09:00\tAlgorithms")
}

func TestIndexBuilder_EmptyDir(t *testing.T) {
	b := NewIndexBuilder(NewSplitter(1000, 150), lengthEmbedder{})

	_, err := b.Build(context.Background(), t.TempDir(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestIndexBuilder_NoChunks(t *testing.T) {
	b := NewIndexBuilder(NewSplitter(1000, 150), lengthEmbedder{})

	_, err := b.Index(context.Background(), []Document{{Source: "blank.pdf", Page: 1, Content: " \n "}})
	assert.ErrorIs(t, err, ErrNoChunks)
}
