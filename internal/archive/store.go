// internal/archive/store.go
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	filePrefix = "archive_"
	fileSuffix = ".json"
)

// ErrBadDate is returned for a date that is not YYYY-MM-DD.
var ErrBadDate = errors.New("archive: date must be YYYY-MM-DD")

// Store keeps dose records in one JSON array file per UTC day under Dir.
type Store struct {
	dir         string
	shiftOffset time.Duration
	log         *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

// Option customises a Store.
type Option func(*Store)

// WithShiftOffset sets the plant clock offset used for shift and hour labels.
func WithShiftOffset(d time.Duration) Option {
	return func(s *Store) { s.shiftOffset = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates the data directory if needed.
func New(dir string, log *zap.Logger, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("archive: data dir required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	s := &Store{
		dir:         dir,
		shiftOffset: DefaultShiftOffset,
		log:         log.With(zap.String("component", "archive")),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Dir is the data directory.
func (s *Store) Dir() string { return s.dir }

// PathFor is the partition file for a YYYY-MM-DD date.
func (s *Store) PathFor(date string) string {
	return filepath.Join(s.dir, filePrefix+date+fileSuffix)
}

// Append derives the record fields from ev and adds it to its day file.
// A day file that does not parse is backed up and replaced, never merged.
func (s *Store) Append(ev Event) (Record, error) {
	at := ev.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	rec := Record{
		ID:           uuid.NewString(),
		Kneader:      ev.Kneader,
		Address:      ev.Address,
		Weight:       ev.Weight,
		RecipeWeight: ev.RecipeWeight,
		RecipeName:   ev.RecipeName,
		Trigger:      ev.Trigger,
		Timestamp:    at.Format(timestampLayout),
		Date:         DateOf(at),
		Shift:        ShiftOf(at, s.shiftOffset),
		Hour:         at.Add(s.shiftOffset).Hour(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.PathFor(rec.Date)

	records, err := readFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		backup, berr := s.backup(path)
		if berr != nil {
			return Record{}, fmt.Errorf("archive: back up corrupt %s: %w", path, berr)
		}
		s.log.Warn("corrupt archive file backed up",
			zap.String("file", path),
			zap.String("backup", backup),
			zap.Error(err),
		)
		records = nil
	}

	records = append(records, rec)
	if err := writeFile(path, records); err != nil {
		return Record{}, err
	}

	s.log.Info("dose archived",
		zap.String("kneader", rec.Kneader),
		zap.Float64("weight", rec.Weight),
		zap.String("recipe", rec.RecipeName),
		zap.String("trigger", rec.Trigger),
	)
	return rec, nil
}

// Day returns the records of one YYYY-MM-DD date. A missing day is empty.
func (s *Store) Day(date string) ([]Record, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, ErrBadDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readFile(s.PathFor(date))
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	return recs, err
}

// Range returns the records of every day from..to inclusive (dates only).
// Unreadable day files are skipped and logged.
func (s *Store) Range(from, to time.Time) ([]Record, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("archive: range end %s before start %s", DateOf(to), DateOf(from))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Record{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		path := s.PathFor(DateOf(d))
		recs, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			s.log.Warn("skip unreadable archive file", zap.String("file", path), zap.Error(err))
			continue
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Month returns every record of a calendar month.
func (s *Store) Month(year int, month time.Month) ([]Record, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("archive: month %d out of range", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.Range(first, last)
}

// All returns the records of every day file, oldest day first.
func (s *Store) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.dates()
	if err != nil {
		return nil, err
	}

	out := []Record{}
	for i := len(dates) - 1; i >= 0; i-- {
		path := s.PathFor(dates[i])
		recs, err := readFile(path)
		if err != nil {
			s.log.Warn("skip unreadable archive file", zap.String("file", path), zap.Error(err))
			continue
		}
		out = append(out, recs...)
	}
	return out, nil
}

// Dates lists the days that have a partition file, newest first.
func (s *Store) Dates() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dates()
}

// dates is Dates without locking. Caller holds mu.
func (s *Store) dates() ([]string, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(files))
	for _, f := range files {
		dates = append(dates, dateFromName(f))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// files lists archive_YYYY-MM-DD.json names in Dir. Caller holds mu.
func (s *Store) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("archive: list %s: %w", s.dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		if _, err := time.Parse(dateLayout, dateFromName(name)); err != nil {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// backup copies path to path.backup.<unix-ms>. Caller holds mu.
func (s *Store) backup(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	dst := fmt.Sprintf("%s.backup.%d", path, s.now().UnixMilli())
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

func dateFromName(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func readFile(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var recs []Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %w", path, err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// writeFile replaces path through a temp file in the same directory.
func writeFile(path string, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	raw, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: replace %s: %w", path, err)
	}
	return nil
}
