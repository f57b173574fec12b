// Package roster reads the list of lab members: their Slack handle, birthday and ORCID.
//
// The roster is a CSV file without a header. Every line holds name, Slack handle, phone, birthday and ORCID, in that
// order. Lines starting with '#' are ignored:
//
//	# name,handle,phone,birthday,orcid
//	Tom Wagg,tomwagg,555-0100,5/8,0000-0001-6147-5761
//	Alice,alice,555-0101,-,
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/datefmt"
	"github.com/gocarina/gocsv"
	"os"
	"slices"
	"strings"
	"time"
	"unicode"
)

// Member is a lab member. Fields are read in the order of the roster's columns.
type Member struct {
	Name     string   `csv:"name"`
	Handle   string   `csv:"handle"`
	Phone    string   `csv:"phone"`
	Birthday Birthday `csv:"birthday"`
	ORCID    string   `csv:"orcid"`
}

// FirstName returns the first word of the member's name.
func (m Member) FirstName() string {
	if fields := strings.Fields(m.Name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Birthday is a day and month, written as day/month. An unknown birthday is written as "-".
type Birthday struct {
	Day   int
	Month time.Month
}

// Known returns true if the birthday is set.
func (b Birthday) Known() bool {
	return b.Day > 0 && b.Month > 0
}

// Next returns the first occurrence of the birthday on or after today. In years without 29 February, a leap day
// birthday falls on 28 February.
func (b Birthday) Next(today time.Time) time.Time {
	year, month, day := today.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	next := b.in(year)
	if next.Before(start) {
		next = b.in(year + 1)
	}
	return next
}

func (b Birthday) in(year int) time.Time {
	day := b.Day
	if b.Month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, b.Month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// String returns the birthday as e.g. "August 5th", or "-" if it isn't known.
func (b Birthday) String() string {
	if !b.Known() {
		return "-"
	}
	return datefmt.Format("January {S}", time.Date(2000, b.Month, b.Day, 0, 0, 0, 0, time.UTC))
}

func (b Birthday) MarshalCSV() (string, error) {
	if !b.Known() {
		return "-", nil
	}
	return fmt.Sprintf("%d/%d", b.Day, b.Month), nil
}

func (b *Birthday) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		*b = Birthday{}
		return nil
	}
	var day, month int
	if _, err := fmt.Sscanf(s, "%d/%d", &day, &month); err != nil {
		return fmt.Errorf("invalid birthday %q: %w", s, err)
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month)) {
		return fmt.Errorf("invalid birthday %q", s)
	}
	*b = Birthday{Day: day, Month: time.Month(month)}
	return nil
}

func daysIn(month time.Month) int {
	// 2000 is a leap year, so 29 February is valid
	return time.Date(2000, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

const columns = 5

// Roster reads the roster file. The file is read on every call, so edits are picked up without a restart.
type Roster struct {
	path string
}

func New(path string) *Roster {
	return &Roster{path: path}
}

// Members returns all lab members, in file order.
func (r *Roster) Members() ([]Member, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = columns
	var members []Member
	if err = gocsv.UnmarshalCSVWithoutHeaders(reader, &members); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return members, nil
}

// ClosestBirthday returns the member(s) with the next birthday and the number of days until that birthday. A birthday
// today is zero days away. ok is false if no member has a known birthday.
func (r *Roster) ClosestBirthday(today time.Time) (members []Member, days int, ok bool, err error) {
	all, err := r.Members()
	if err != nil {
		return nil, 0, false, err
	}
	year, month, day := today.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	for _, m := range all {
		if !m.Birthday.Known() {
			continue
		}
		until := int(m.Birthday.Next(today).Sub(start).Hours() / 24)
		switch {
		case !ok || until < days:
			members, days, ok = []Member{m}, until, true
		case until == days:
			members = append(members, m)
		}
	}
	return members, days, ok, nil
}

// Birthdays returns the members whose birthday is known and the members whose birthday isn't.
func (r *Roster) Birthdays() (known []Member, unknown []Member, err error) {
	all, err := r.Members()
	if err != nil {
		return nil, nil, err
	}
	for _, m := range all {
		if m.Birthday.Known() {
			known = append(known, m)
		} else {
			unknown = append(unknown, m)
		}
	}
	return known, unknown, nil
}

// Find returns the members whose full name, or first name, occurs in text as whole words. Matching is
// case-insensitive.
func (r *Roster) Find(text string) ([]Member, error) {
	all, err := r.Members()
	if err != nil {
		return nil, err
	}
	words := splitWords(text)
	var found []Member
	for _, m := range all {
		if m.Name == "" {
			continue
		}
		if containsWords(words, splitWords(m.Name)) || containsWords(words, splitWords(m.FirstName())) {
			found = append(found, m)
		}
	}
	return found, nil
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWords returns true if words holds name as a consecutive sequence.
func containsWords(words []string, name []string) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i+len(name) <= len(words); i++ {
		if slices.Equal(words[i:i+len(name)], name) {
			return true
		}
	}
	return false
}
