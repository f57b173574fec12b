package gerald

import (
	"context"
	"time"
)

// Morning runs the daily jobs: it starts the whinetime workflow, posts a quote and announces papers on their
// configured weekdays, and checks for birthdays every day. A failing job is logged and doesn't stop the others.
func (g *Gerald) Morning(ctx context.Context, now time.Time) {
	weekday := now.In(g.config.Location).Weekday()
	jobs := []struct {
		name string
		run  bool
		job  func() error
	}{
		{name: "whinetime", run: weekday == g.config.WhinetimeDay, job: func() error { return g.StartWhinetime(ctx) }},
		{name: "birthdays", run: true, job: func() error { return g.CheckBirthdays(ctx, now) }},
		{name: "quote", run: weekday == g.config.QuoteDay, job: func() error { return g.PostQuote(ctx) }},
		{name: "papers", run: weekday == g.config.PapersDay, job: func() error { return g.AnnouncePapers(ctx, now) }},
	}
	for _, j := range jobs {
		if !j.run {
			continue
		}
		if err := j.job(); err != nil {
			g.logger.Error("morning job failed", "job", j.name, "err", err)
		}
	}
}
