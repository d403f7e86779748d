package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ekisa-team/campus-assistant/internal/store"
)

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "college.db"))
	missing := filepath.Join(dir, "missing.yaml")

	assert.Equal(t, 2, run("reindex", options{configPath: missing}))

	invalid := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("server: [1, 2"), 0o644))
	assert.Equal(t, 1, run("setup-db", options{configPath: invalid}))

	assert.Equal(t, 1, run("setup-db", options{configPath: missing, roster: filepath.Join(dir, "roster.pdf")}))
	assert.Equal(t, 1, run("build-index", options{configPath: missing, dataDir: filepath.Join(dir, "empty"), out: filepath.Join(dir, "index")}))
}

func TestRun_SetupDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "college.db")
	t.Setenv("DATABASE_URL", "sqlite://"+dbPath)

	roster := filepath.Join(dir, "roster.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Exam No", "Name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"IT001", "Aarav Patel"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"IT002", "22ITUON002 Diya Shah"}))
	require.NoError(t, f.SaveAs(roster))
	require.NoError(t, f.Close())

	opts := options{configPath: filepath.Join(dir, "missing.yaml"), roster: roster}
	require.Equal(t, 0, run("setup-db", opts))
	require.Equal(t, 0, run("setup-db", opts))

	st, err := store.Open(context.Background(), "sqlite://"+dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	n, err := st.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
