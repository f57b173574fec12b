package gerald

import (
	"context"
	"errors"
	"github.com/clambin/gerald/internal/quotes"
)

const noQuoteReply = "I'm all out of fresh quotes :sob: Post some more in the quotes channel and I'll keep them safe!"

// PostQuote posts a random quote that hasn't been used recently to the quotes channel.
func (g *Gerald) PostQuote(ctx context.Context) error {
	q, err := g.stores.Quotes.PickRandom(g.now().In(g.config.Location))
	if errors.Is(err, quotes.ErrNoQuote) {
		_, _, err = g.postTo(ctx, g.config.Channels.Quotes, noQuoteReply)
		return err
	}
	if err != nil {
		return err
	}
	_, _, err = g.postTo(ctx, g.config.Channels.Quotes, "Time for the quote of the week :speech_balloon:\n"+formatQuote(q))
	return err
}

func formatQuote(q quotes.Quote) string {
	return "_“" + q.Text + "”_ - " + q.Person
}
