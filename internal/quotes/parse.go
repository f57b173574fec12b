package quotes

import (
	"strings"
)

var quoteMarks = strings.NewReplacer("&gt;", "", `"`, "", "“", "", "”", "")

// Parse extracts the quote and the person who said it from a message of the form
//
//	> "Some memorable words" - Someone
//
// Slack escapes the leading '>' as "&gt;". Parse returns ErrNotAQuote if the message doesn't have that shape.
func Parse(text string) (quote string, person string, err error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "&gt;") && !strings.HasPrefix(text, ">") {
		return "", "", ErrNotAQuote
	}
	text = strings.TrimPrefix(quoteMarks.Replace(text), ">")

	i := strings.LastIndex(text, "-")
	if i < 0 {
		return "", "", ErrNotAQuote
	}
	quote, person = strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
	if quote == "" || person == "" {
		return "", "", ErrNotAQuote
	}
	return quote, person, nil
}
