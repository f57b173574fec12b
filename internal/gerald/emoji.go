package gerald

import (
	"context"
	"github.com/slack-go/slack/slackevents"
)

var emojiAddedMessages = []string{
	"I'd love to know the backstory on that one",
	"Anyone want to explain this??",
	"Feel free to put it to use on this message",
	"Looks like I've found my new favourite",
	"And that's all the context you're getting",
}

// EmojiChanged announces new custom emoji.
func (g *Gerald) EmojiChanged(ctx context.Context, ev *slackevents.EmojiChangedEvent) error {
	if ev.Subtype != "add" {
		return nil
	}
	_, _, err := g.postTo(ctx, g.config.Channels.Announce, "Someone just added :"+ev.Name+": - "+g.choose(emojiAddedMessages))
	return err
}
