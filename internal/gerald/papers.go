package gerald

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/papers"
	"github.com/slack-go/slack"
	"strings"
	"time"
)

const maxAbstractLength = 300

// AnnouncePapers announces the papers lab members published in the week before now. A paper written by several lab
// members is announced once, with all of them in bold.
func (g *Gerald) AnnouncePapers(ctx context.Context, now time.Time) error {
	members, err := g.stores.Roster.Members()
	if err != nil {
		return err
	}
	since := now.In(g.config.Location).AddDate(0, 0, -7)

	type found struct {
		paper papers.Paper
		names []string
	}
	var links []string
	byLink := make(map[string]*found)
	var errs []error
	for _, m := range members {
		if m.ORCID == "" && m.Name == "" {
			continue
		}
		list, err := g.stores.Feed.Papers(ctx, author(m), since)
		if err != nil {
			g.logger.Warn("failed to get papers", "name", m.Name, "err", err)
			errs = append(errs, fmt.Errorf("papers for %s: %w", m.Name, err))
			continue
		}
		for _, p := range list {
			f, ok := byLink[p.Link]
			if !ok {
				f = &found{paper: p}
				byLink[p.Link] = f
				links = append(links, p.Link)
			}
			f.names = append(f.names, m.Name)
		}
	}
	g.logger.Debug("papers found", "count", len(links), "since", since)

	for _, link := range links {
		f := byLink[link]
		text := "New paper by " + strings.Join(f.names, ", ") + ": " + f.paper.Title
		if _, _, err = g.postTo(ctx, g.config.Channels.Papers, text, slack.MsgOptionBlocks(paperBlocks(f.paper, f.names)...)); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func paperBlocks(paper papers.Paper, names []string) []slack.Block {
	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, ":tada: New paper alert! :tada:", true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*<"+paper.Link+"|"+paper.Title+">*", false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, papers.BoldAuthors(paper.Authors, names...), false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, truncate(paper.Abstract, maxAbstractLength), false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf(":books: %d citations | :eyes: %d reads | %s", paper.Citations, paper.Reads, paper.Date.Format("January 2006")), false, false)),
	}
}

// truncate shortens text to at most n runes, cutting at a word boundary where possible.
func truncate(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
