package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"
)

// DateLayout is the layout of the Date Added column
const DateLayout = "2006-01-02"

// Header is the first row of every store file
var Header = []string{"Code", "Date Added", "Redeemed"}

// CodeRecord is one row of the store
type CodeRecord struct {
	Code      string
	DateAdded time.Time
	Redeemed  bool
	// Expiration is the expiry text shown on the page. It is passed to
	// publishers and not written to the file.
	Expiration string
}

// Row renders the record as CSV fields
func (r CodeRecord) Row() []string {
	redeemed := "No"
	if r.Redeemed {
		redeemed = "Yes"
	}
	return []string{r.Code, r.DateAdded.Format(DateLayout), redeemed}
}

// NewRecords builds unredeemed records dated now, in the order of codes
func NewRecords(codes []string, now time.Time) []CodeRecord {
	records := make([]CodeRecord, 0, len(codes))
	for _, code := range codes {
		records = append(records, CodeRecord{Code: code, DateAdded: now})
	}
	return records
}

// CSVStore keeps code records in an append-only CSV file.
// Every operation opens and closes the file itself.
type CSVStore struct {
	path string
	log  *logger.Logger
}

// NewCSVStore creates a store backed by the file at path
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{
		path: path,
		log:  logger.ForStore().WithField("path", path),
	}
}

// Path returns the file backing the store
func (s *CSVStore) Path() string {
	return s.path
}

// EnsureInitialized creates the file with its header row when it is missing
// or empty. Existing content is left untouched.
func (s *CSVStore) EnsureInitialized() error {
	info, err := os.Stat(s.path)
	switch {
	case err == nil && info.Size() > 0:
		return nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return perrors.NewStoreWrite(s.path, "failed to stat store", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perrors.NewStoreWrite(s.path, "failed to create store directory", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return perrors.NewStoreWrite(s.path, "failed to create store", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return perrors.NewStoreWrite(s.path, "failed to write header", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return perrors.NewStoreWrite(s.path, "failed to write header", err)
	}

	s.log.Info().Msg("Created store")
	return nil
}

// LoadExistingCodes returns the normalized codes already recorded. Malformed
// rows are skipped and reported as warnings; only an unreadable file is an error.
func (s *CSVStore) LoadExistingCodes() (map[string]struct{}, []error, error) {
	codes := make(map[string]struct{})

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return codes, nil, nil
	}
	if err != nil {
		return nil, nil, perrors.NewStoreRead(s.path, "failed to open store", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var warnings []error
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				warnings = append(warnings, perrors.NewStoreRead(s.path, fmt.Sprintf("skipping unparsable row at line %d", parseErr.Line), err))
				continue
			}
			return nil, warnings, perrors.NewStoreRead(s.path, "failed to read store", err)
		}

		code, line := "", 0
		if len(row) > 0 {
			code = strings.ToUpper(strings.TrimSpace(row[0]))
			line, _ = r.FieldPos(0)
		}
		if first {
			first = false
			// Spreadsheet tools save a byte order mark in front of the header
			code = strings.TrimPrefix(code, "\uFEFF")
			if strings.EqualFold(code, Header[0]) {
				continue
			}
		}
		if code == "" {
			warnings = append(warnings, perrors.NewStoreRead(s.path, fmt.Sprintf("skipping row at line %d without a code", line), nil))
			continue
		}
		codes[code] = struct{}{}
	}

	for _, w := range warnings {
		s.log.Warn().Err(w).Msg("Malformed store row")
	}
	s.log.Debug().Int("codes", len(codes)).Msg("Loaded existing codes")
	return codes, warnings, nil
}

// Append writes one row per record after the existing rows. Each row is
// flushed on its own, so rows written before a failure stay on disk.
// Callers are responsible for passing only codes absent from the store.
func (s *CSVStore) Append(records []CodeRecord) error {
	if len(records) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return perrors.NewStoreWrite(s.path, "failed to open store for append", err)
	}
	defer f.Close()

	if err := ensureTrailingNewline(f); err != nil {
		return perrors.NewStoreWrite(s.path, "failed to terminate last row", err)
	}

	w := csv.NewWriter(f)
	for _, record := range records {
		if err := w.Write(record.Row()); err != nil {
			return perrors.NewStoreWrite(s.path, fmt.Sprintf("failed to write %s", record.Code), err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return perrors.NewStoreWrite(s.path, fmt.Sprintf("failed to write %s", record.Code), err)
		}
		s.log.Info().Str("code", record.Code).Msg("Added code")
	}

	if err := f.Sync(); err != nil {
		return perrors.NewStoreWrite(s.path, "failed to sync store", err)
	}
	return nil
}

// ensureTrailingNewline adds a line break when a hand-edited file lost its last one
func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte("\n"))
	return err
}
