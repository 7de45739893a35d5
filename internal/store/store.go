// Package store persists test-case records in a single JSON array file.
//
// The file is plain UTF-8 with 2-space indentation so that QA engineers can
// read and hand-edit it. Records are keyed by (id, purpose); the same id may
// appear multiple times with different purposes. Writes go through a
// backup-then-replace sequence guarded by an advisory file lock, so a failed
// write never leaves the live file corrupted.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/qaforge/casegen/internal/log"
	"github.com/qaforge/casegen/internal/testcase"
)

// ErrNotFound indicates no record matched the requested (id, purpose).
var ErrNotFound = errors.New("test case not found")

// Store is a flat-file test-case store.
type Store struct {
	path   string
	logger log.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Tests use this for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store backed by the JSON file at path. The file is created
// lazily on first write; a missing file reads as an empty store.
func New(path string, logger log.Logger, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// GetAll loads every record. A missing file yields an empty slice.
func (s *Store) GetAll() ([]testcase.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []testcase.Record{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []testcase.Record{}, nil
	}

	var records []testcase.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return records, nil
}

// Get returns the record with the given (id, purpose), or ErrNotFound.
func (s *Store) Get(id, purpose string) (testcase.Record, error) {
	records, err := s.GetAll()
	if err != nil {
		return testcase.Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id && rec.Purpose == purpose {
			return rec, nil
		}
	}
	return testcase.Record{}, ErrNotFound
}

// Upsert inserts the record, or updates the existing record with the same
// (id, purpose). It reports whether a new record was inserted. The record's
// updated_at is always bumped; created_at is preserved on update.
func (s *Store) Upsert(rec testcase.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}

	records, err := s.GetAll()
	if err != nil {
		return false, err
	}

	inserted := true
	for i := range records {
		if records[i].ID == rec.ID && records[i].Purpose == rec.Purpose {
			rec.CreatedAt = records[i].CreatedAt
			rec.Touch(s.now())
			records[i] = rec
			inserted = false
			break
		}
	}
	if inserted {
		rec.Touch(s.now())
		records = append(records, rec)
	}

	if err := s.writeAll(records); err != nil {
		return false, err
	}

	s.logger.Debug("test case upserted",
		"id", rec.ID, "purpose", rec.Purpose, "inserted", inserted)
	return inserted, nil
}

// Delete removes the record with the given (id, purpose). ErrNotFound when
// no record matches.
func (s *Store) Delete(id, purpose string) error {
	records, err := s.GetAll()
	if err != nil {
		return err
	}

	kept := records[:0]
	found := false
	for _, rec := range records {
		if rec.ID == id && rec.Purpose == purpose {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return ErrNotFound
	}
	return s.writeAll(kept)
}

// DeleteAll removes every record with the given id, regardless of purpose.
// It returns the number of records removed.
func (s *Store) DeleteAll(id string) (int, error) {
	records, err := s.GetAll()
	if err != nil {
		return 0, err
	}

	kept := records[:0]
	removed := 0
	for _, rec := range records {
		if rec.ID == id {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.writeAll(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	records, err := s.GetAll()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Search returns records whose id, purpose, scenario, test data, note,
// steps or expected results contain the query, case-insensitive.
func (s *Store) Search(query string) ([]testcase.Record, error) {
	records, err := s.GetAll()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records, nil
	}

	var matched []testcase.Record
	for _, rec := range records {
		if recordMatches(rec, q) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

func recordMatches(rec testcase.Record, q string) bool {
	fields := []string{rec.ID, rec.Purpose, rec.Scenario, rec.TestData, rec.Note}
	fields = append(fields, rec.Steps...)
	fields = append(fields, rec.Expected...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Stats summarizes the store contents.
type Stats struct {
	Total     int            `json:"total"`
	UniqueIDs int            `json:"unique_ids"`
	ByPurpose map[string]int `json:"by_purpose"`
}

// Stats computes a summary over all stored records.
func (s *Store) Stats() (Stats, error) {
	records, err := s.GetAll()
	if err != nil {
		return Stats{}, err
	}

	ids := make(map[string]struct{}, len(records))
	byPurpose := make(map[string]int)
	for _, rec := range records {
		ids[rec.ID] = struct{}{}
		byPurpose[rec.Purpose]++
	}

	return Stats{
		Total:     len(records),
		UniqueIDs: len(ids),
		ByPurpose: byPurpose,
	}, nil
}

// ValidationReport lists structural problems across the whole store.
type ValidationReport struct {
	Total      int      `json:"total"`
	Invalid    []string `json:"invalid,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// OK reports whether the store passed validation.
func (r ValidationReport) OK() bool {
	return len(r.Invalid) == 0 && len(r.Duplicates) == 0
}

// ValidateAll checks every record and reports invalid records and duplicate
// (id, purpose) pairs.
func (s *Store) ValidateAll() (ValidationReport, error) {
	records, err := s.GetAll()
	if err != nil {
		return ValidationReport{}, err
	}

	report := ValidationReport{Total: len(records)}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			report.Invalid = append(report.Invalid,
				fmt.Sprintf("%s/%s: %v", rec.ID, rec.Purpose, err))
		}
		key := rec.Key()
		if seen[key] {
			report.Duplicates = append(report.Duplicates,
				fmt.Sprintf("%s/%s", rec.ID, rec.Purpose))
		}
		seen[key] = true
	}
	sort.Strings(report.Duplicates)
	return report, nil
}

// writeAll persists the full record slice. The live file is first renamed
// to a .backup; on success the backup is removed, on failure it is moved
// back so the previous contents survive a partial write.
func (s *Store) writeAll(records []testcase.Record) error {
	if records == nil {
		records = []testcase.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode test cases: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("unlock store failed", "error", err)
		}
	}()

	backup := s.path + ".backup"
	hadLive := true
	if err := os.Rename(s.path, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("back up store: %w", err)
		}
		hadLive = false
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		if hadLive {
			if rerr := os.Rename(backup, s.path); rerr != nil {
				s.logger.Error("restore backup failed", "error", rerr)
			}
		}
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	if hadLive {
		if err := os.Remove(backup); err != nil {
			s.logger.Warn("remove backup failed", "error", err)
		}
	}
	return nil
}
