// Package quotes stores memorable quotes from the lab and hands them out, one at a time, for the weekly quote.
package quotes

import (
	"errors"
	"fmt"
	"github.com/gocarina/gocsv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MinDaysBetweenUses is the number of days a quote rests after being posted.
const MinDaysBetweenUses = 100

var (
	ErrNoQuote   = errors.New("no quote available")
	ErrNotAQuote = errors.New("message is not a quote")
)

// Quote is a single row of the quote table.
type Quote struct {
	ID       int    `csv:"id"`
	Text     string `csv:"quote"`
	Person   string `csv:"person"`
	LastUsed Date   `csv:"last_used"`
}

// Date is a calendar date, stored as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// Never marks a quote that has not been posted yet.
var Never = Date{Time: time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)}

func (d Date) MarshalCSV() (string, error) {
	return d.Format(dateLayout), nil
}

func (d *Date) UnmarshalCSV(s string) error {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Store keeps quotes in a CSV file. Each operation reads the whole file and rewrites it when it changes.
type Store struct {
	path string
	rand *rand.Rand
	lock sync.Mutex
}

// New returns a Store for the file at path. If r is nil, a randomly seeded source is used.
func New(path string, r *rand.Rand) *Store {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Store{path: path, rand: r}
}

// All returns all quotes.
func (s *Store) All() ([]Quote, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.load()
}

// Add stores a new quote. It returns the stored quote.
func (s *Store) Add(text, person string) (Quote, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	quotes, err := s.load()
	if err != nil {
		return Quote{}, err
	}
	var lastID int
	for _, q := range quotes {
		lastID = max(lastID, q.ID)
	}
	q := Quote{ID: lastID + 1, Text: text, Person: person, LastUsed: Never}
	return q, s.save(append(quotes, q))
}

// PickRandom selects a random quote that hasn't been used in the last MinDaysBetweenUses days and marks it as used
// today. It returns ErrNoQuote if all quotes were used recently.
func (s *Store) PickRandom(today time.Time) (Quote, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	quotes, err := s.load()
	if err != nil {
		return Quote{}, err
	}
	day := truncate(today)
	var candidates []int
	for i, q := range quotes {
		if day.Sub(truncate(q.LastUsed.Time)) > MinDaysBetweenUses*24*time.Hour {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return Quote{}, ErrNoQuote
	}
	i := candidates[s.rand.IntN(len(candidates))]
	quotes[i].LastUsed = Date{Time: day}
	return quotes[i], s.save(quotes)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Store) load() ([]Quote, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("quotes: %w", err)
	}
	defer func() { _ = f.Close() }()

	var quotes []Quote
	if err = gocsv.Unmarshal(f, &quotes); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("quotes: %w", err)
	}
	return quotes, nil
}

func (s *Store) save(quotes []Quote) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("quotes: %w", err)
	}
	if err = gocsv.Marshal(&quotes, tmp); err == nil {
		err = tmp.Chmod(fileMode(s.path))
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("quotes: %w", err)
	}
	return nil
}

// fileMode returns the permissions of the file at path, so a rewrite keeps them. New files are world-readable.
func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}
