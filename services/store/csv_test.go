package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "sjsage522/shiftcodeworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEnsureInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "codes.csv")
	s := NewCSVStore(path)

	require.NoError(t, s.EnsureInitialized())
	assert.Equal(t, "Code,Date Added,Redeemed\n", readFile(t, path))

	// Idempotent
	require.NoError(t, s.EnsureInitialized())
	assert.Equal(t, "Code,Date Added,Redeemed\n", readFile(t, path))
}

func TestEnsureInitializedKeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	content := "Code,Date Added,Redeemed\nAAAAA-BBBBB-CCCCC-DDDDD-EEEEE,2024-01-01,Yes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, NewCSVStore(path).EnsureInitialized())
	assert.Equal(t, content, readFile(t, path))
}

func TestEnsureInitializedEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, NewCSVStore(path).EnsureInitialized())
	assert.Equal(t, "Code,Date Added,Redeemed\n", readFile(t, path))
}

func TestLoadExistingCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	content := "Code,Date Added,Redeemed\n" +
		"aaaaa-bbbbb-ccccc-ddddd-eeeee,2024-01-01,No\n" +
		" 11111-22222-33333-44444-55555 ,2024-01-02,Yes\n" +
		",2024-01-03,No\n" +
		"\n" +
		"QQQQQ-WWWWW-EEEEE-RRRRR-TTTTT\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	codes, warnings, err := NewCSVStore(path).LoadExistingCodes()
	require.NoError(t, err)

	assert.Equal(t, map[string]struct{}{
		"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE": {},
		"11111-22222-33333-44444-55555": {},
		"QQQQQ-WWWWW-EEEEE-RRRRR-TTTTT": {},
	}, codes)
	if assert.Len(t, warnings, 1) {
		assert.True(t, perrors.Is(warnings[0], perrors.ErrorTypeStoreRead))
		assert.Contains(t, warnings[0].Error(), "line 4")
	}
}

func TestLoadExistingCodesMissingFile(t *testing.T) {
	codes, warnings, err := NewCSVStore(filepath.Join(t.TempDir(), "missing.csv")).LoadExistingCodes()
	require.NoError(t, err)
	assert.Empty(t, codes)
	assert.Empty(t, warnings)
}

func TestLoadExistingCodesWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, []byte("AAAAA-BBBBB-CCCCC-DDDDD-EEEEE,2024-01-01,No\n"), 0o644))

	codes, _, err := NewCSVStore(path).LoadExistingCodes()
	require.NoError(t, err)
	assert.Contains(t, codes, "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE")
}

func TestLoadExistingCodesByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	content := "\uFEFFCode,Date Added,Redeemed\r\nAAAAA-BBBBB-CCCCC-DDDDD-EEEEE,2024-01-01,No\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	codes, warnings, err := NewCSVStore(path).LoadExistingCodes()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, map[string]struct{}{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE": {}}, codes)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	s := NewCSVStore(path)
	require.NoError(t, s.EnsureInitialized())

	day := time.Date(2025, 10, 3, 18, 30, 0, 0, time.Local)
	records := NewRecords([]string{
		"QQQQQ-WWWWW-EEEEE-RRRRR-TTTTT",
		"11111-22222-33333-44444-55555",
	}, day)
	require.NoError(t, s.Append(records))

	assert.Equal(t, "Code,Date Added,Redeemed\n"+
		"QQQQQ-WWWWW-EEEEE-RRRRR-TTTTT,2025-10-03,No\n"+
		"11111-22222-33333-44444-55555,2025-10-03,No\n", readFile(t, path))

	codes, _, err := s.LoadExistingCodes()
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestAppendNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, NewCSVStore(path).Append(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendRepairsMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, []byte("Code,Date Added,Redeemed\nAAAAA-BBBBB-CCCCC-DDDDD-EEEEE,2024-01-01,Yes"), 0o644))

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.Local)
	require.NoError(t, NewCSVStore(path).Append(NewRecords([]string{"11111-22222-33333-44444-55555"}, day)))

	assert.Equal(t, "Code,Date Added,Redeemed\n"+
		"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE,2024-01-01,Yes\n"+
		"11111-22222-33333-44444-55555,2025-01-02,No\n", readFile(t, path))
}

func TestAppendFailure(t *testing.T) {
	// A directory cannot be opened for writing
	path := t.TempDir()
	err := NewCSVStore(path).Append(NewRecords([]string{"11111-22222-33333-44444-55555"}, time.Now()))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrorTypeStoreWrite))
}

func TestCodeRecordRow(t *testing.T) {
	record := CodeRecord{
		Code:      "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE",
		DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Redeemed:  true,
	}
	assert.Equal(t, []string{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", "2024-01-01", "Yes"}, record.Row())
}
