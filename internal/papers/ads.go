package papers

import (
	"context"
	"encoding/json"
	"fmt"
	"golang.org/x/time/rate"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultADSURL  = "https://api.adsabs.harvard.edu/v1"
	adsAbstractURL = "https://ui.adsabs.harvard.edu/abs/%s/abstract"
)

var (
	DefaultDocTypes = []string{"article", "eprint"}
	adsFields       = []string{"abstract", "author", "citation_count", "doctype", "first_author", "read_count", "title", "bibcode", "pubdate"}
)

// Query is a search against NASA/ADS.
type Query struct {
	// Q is the ADS query, e.g. `orcid:0000-0001-6147-5761` or `author:"Wagg, T"`.
	Q string
	// Astronomy restricts the search to the astronomy collection.
	Astronomy bool
	// Since and Until restrict the search to papers entered in that date range. A zero Until leaves the range open.
	Since, Until time.Time
	// DocTypes lists the document types to keep. Defaults to DefaultDocTypes.
	DocTypes []string
	// Rows limits the number of results. Zero uses the ADS default.
	Rows int
}

func (q Query) String() string {
	query := q.Q
	if q.Astronomy {
		query += " collection:astronomy"
	}
	if !q.Since.IsZero() {
		until := "*"
		if !q.Until.IsZero() {
			until = q.Until.Format(time.DateOnly)
		}
		query += " entdate:[" + q.Since.Format(time.DateOnly) + " TO " + until + "]"
	}
	return query
}

// ADS queries the NASA/ADS search API.
type ADS struct {
	HTTPClient *http.Client
	URL        string
	Token      string
	Limiter    *rate.Limiter
}

// NewADS returns an ADS client. Requests are limited to rps requests per second. If rps is zero, requests are not
// limited.
func NewADS(token string, rps float64) *ADS {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &ADS{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		URL:        DefaultADSURL,
		Token:      token,
		Limiter:    rate.NewLimiter(limit, 1),
	}
}

type adsResponse struct {
	Response struct {
		NumFound int      `json:"numFound"`
		Docs     []adsDoc `json:"docs"`
	} `json:"response"`
	Error *struct {
		Msg string `json:"msg"`
	} `json:"error,omitempty"`
}

type adsDoc struct {
	Abstract      string   `json:"abstract"`
	Author        []string `json:"author"`
	CitationCount int      `json:"citation_count"`
	DocType       string   `json:"doctype"`
	FirstAuthor   string   `json:"first_author"`
	ReadCount     int      `json:"read_count"`
	Title         []string `json:"title"`
	Bibcode       string   `json:"bibcode"`
	PubDate       string   `json:"pubdate"`
}

// Search runs the query and returns the matching papers, most recent first.
func (a *ADS) Search(ctx context.Context, q Query) ([]Paper, error) {
	if err := a.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ads: %w", err)
	}

	params := url.Values{}
	params.Set("q", q.String())
	params.Set("fl", strings.Join(adsFields, ","))
	params.Set("sort", "date desc")
	if q.Rows > 0 {
		params.Set("rows", fmt.Sprint(q.Rows))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(a.URL, "/")+"/search/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ads: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ads: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body adsResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("ads: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error != nil && body.Error.Msg != "" {
			return nil, fmt.Errorf("ads: %s: %s", resp.Status, body.Error.Msg)
		}
		return nil, fmt.Errorf("ads: %s", resp.Status)
	}

	docTypes := q.DocTypes
	if len(docTypes) == 0 {
		docTypes = DefaultDocTypes
	}
	papers := make([]Paper, 0, len(body.Response.Docs))
	for _, doc := range body.Response.Docs {
		if !slices.Contains(docTypes, doc.DocType) {
			continue
		}
		paper := Paper{
			Link:      fmt.Sprintf(adsAbstractURL, doc.Bibcode),
			Abstract:  doc.Abstract,
			Authors:   doc.Author,
			Date:      parsePubDate(doc.PubDate),
			Citations: doc.CitationCount,
			Reads:     doc.ReadCount,
		}
		if len(doc.Title) > 0 {
			paper.Title = doc.Title[0]
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

// Papers returns the astronomy articles and eprints of an author entered since the given date.
func (a *ADS) Papers(ctx context.Context, author Author, since time.Time) ([]Paper, error) {
	q := Query{Astronomy: true, Since: since}
	switch {
	case author.ORCID != "":
		q.Q = "orcid:" + author.ORCID
	case author.Name != "":
		q.Q = `author:"` + adsAuthorName(author.Name) + `"`
	default:
		return nil, nil
	}
	return a.Search(ctx, q)
}

// adsAuthorName converts "Tom Wagg" to "Wagg, T", the form ADS expects in author searches.
func adsAuthorName(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	first, _ := utf8.DecodeRuneInString(fields[0])
	return fields[len(fields)-1] + ", " + string(first)
}

// parsePubDate parses an ADS publication date. ADS dates are YYYY-MM-00: the date returned is the first of the month.
func parsePubDate(s string) time.Time {
	var year, month int
	if _, err := fmt.Sscanf(s, "%d-%d", &year, &month); err != nil || month < 1 || month > 12 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
