package papers

import (
	"context"
	"fmt"
	"github.com/mmcdole/gofeed"
	"net/http"
	"strings"
	"time"
)

const DefaultArxivURL = "https://arxiv.org"

// Arxiv reads the arXiv author feeds, which list an author's papers by ORCID.
type Arxiv struct {
	HTTPClient *http.Client
	URL        string
}

func NewArxiv() *Arxiv {
	return &Arxiv{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		URL:        DefaultArxivURL,
	}
}

// ByORCID returns all papers in the arXiv feed of an ORCID.
func (a *Arxiv) ByORCID(ctx context.Context, orcid string) ([]Paper, error) {
	parser := gofeed.NewParser()
	parser.Client = a.HTTPClient
	feed, err := parser.ParseURLWithContext(strings.TrimSuffix(a.URL, "/")+"/a/"+orcid+".atom2", ctx)
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper := Paper{
			Link:     item.GUID,
			Title:    strings.Join(strings.Fields(item.Title), " "),
			Abstract: strings.TrimSpace(item.Description),
		}
		if paper.Link == "" {
			paper.Link = item.Link
		}
		if item.PublishedParsed != nil {
			y, m, d := item.PublishedParsed.Date()
			paper.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		for _, author := range item.Authors {
			paper.Authors = append(paper.Authors, author.Name)
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

// Papers returns the papers in the author's feed published on or after since. Authors without an ORCID have no feed.
func (a *Arxiv) Papers(ctx context.Context, author Author, since time.Time) ([]Paper, error) {
	if author.ORCID == "" {
		return nil, nil
	}
	all, err := a.ByORCID(ctx, author.ORCID)
	if err != nil {
		return nil, err
	}
	y, m, d := since.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	papers := make([]Paper, 0, len(all))
	for _, p := range all {
		if !p.Date.Before(start) {
			papers = append(papers, p)
		}
	}
	return papers, nil
}
