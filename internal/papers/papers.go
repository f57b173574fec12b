// Package papers finds publications by lab members, using NASA/ADS or the arXiv author feeds.
package papers

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// Paper is a single publication.
type Paper struct {
	Link      string
	Title     string
	Abstract  string
	Authors   []string
	Date      time.Time
	Citations int
	Reads     int
}

// Author identifies a lab member for a paper search. ORCID is preferred. Name is used when no ORCID is known.
type Author struct {
	Name  string
	ORCID string
}

// A Feed returns the papers an author published since a given time.
type Feed interface {
	Papers(ctx context.Context, author Author, since time.Time) ([]Paper, error)
}

// MostRecent returns the most recently published paper and how many days ago it was published, relative to today.
// ok is false if papers is empty.
func MostRecent(papers []Paper, today time.Time) (paper Paper, days int, ok bool) {
	for _, p := range papers {
		if !ok || p.Date.After(paper.Date) {
			paper, ok = p, true
		}
	}
	if ok {
		days = int(today.Sub(paper.Date).Hours() / 24)
	}
	return paper, days, ok
}

// BoldAuthors renders an author list in Slack mrkdwn, in italics, with the authors matching any of names in bold.
//
// Authors written as "Last, First" are reversed to "First Last". An author matches a name if the first initial and
// the last name are the same.
func BoldAuthors(authors []string, names ...string) string {
	var b strings.Builder
	b.WriteString("_Authors: ")
	for i, author := range authors {
		if i > 0 {
			b.WriteString(", ")
		}
		author = normaliseAuthor(author)
		if matchesAny(author, names) {
			b.WriteString("*" + author + "*")
		} else {
			b.WriteString(author)
		}
	}
	b.WriteString("_")
	return b.String()
}

func normaliseAuthor(author string) string {
	parts := strings.Split(author, ", ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " ")
}

func matchesAny(author string, names []string) bool {
	a := strings.Fields(author)
	if len(a) == 0 {
		return false
	}
	for _, name := range names {
		n := strings.Fields(name)
		if len(n) == 0 {
			continue
		}
		if initial(a[0]) == initial(n[0]) && a[len(a)-1] == n[len(n)-1] {
			return true
		}
	}
	return false
}

func initial(name string) rune {
	r, _ := utf8.DecodeRuneInString(name)
	return r
}
