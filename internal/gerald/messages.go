package gerald

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/quotes"
	"github.com/clambin/gerald/internal/slackapp"
	"github.com/slack-go/slack"
	"regexp"
	"strings"
)

// A match decides whether a message's text triggers a behaviour.
type match func(text string) bool

// anyOf matches if the text contains any of the words, ignoring case.
func anyOf(words ...string) match {
	return func(text string) bool {
		text = strings.ToLower(text)
		for _, word := range words {
			if strings.Contains(text, word) {
				return true
			}
		}
		return false
	}
}

// exactly matches if the text contains s. The match is case-sensitive.
func exactly(s string) match {
	return func(text string) bool {
		return strings.Contains(text, s)
	}
}

// allOf matches if all matches match.
func allOf(matches ...match) match {
	return func(text string) bool {
		for _, m := range matches {
			if !m(text) {
				return false
			}
		}
		return true
	}
}

func always(string) bool { return true }

// on returns a Handler that runs f for any message whose text matches m.
func on(m match, f func(context.Context, slackapp.Message) error) slackapp.Handler {
	return slackapp.HandlerFunc(func(ctx context.Context, msg slackapp.Message) (bool, error) {
		if !m(msg.Text) {
			return false, nil
		}
		return true, f(ctx, msg)
	})
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////

func (g *Gerald) messageHandlers() slackapp.Broadcast {
	return slackapp.Broadcast{
		slackapp.HandlerFunc(g.react),
		on(anyOf("bonk"), g.bonk),
		slackapp.HandlerFunc(g.captureQuote),
	}
}

var reactions = []struct {
	match  match
	emojis []string
}{
	{match: anyOf("tom"), emojis: []string{"tom"}},
	{match: anyOf("undergrad"), emojis: []string{"underage"}},
	{match: anyOf("gerald"), emojis: []string{"gerald", "eyes"}},
	{match: anyOf("birthday"), emojis: []string{"birthday", "tada"}},
	{match: anyOf("panic"), emojis: []string{"mildpanic"}},
	{match: exactly("PANIC"), emojis: []string{"mild-panic-intensifies"}},
}

func (g *Gerald) react(ctx context.Context, msg slackapp.Message) (bool, error) {
	var reacted bool
	for _, r := range reactions {
		if !r.match(msg.Text) {
			continue
		}
		reacted = true
		for _, emoji := range r.emojis {
			if err := g.addReaction(ctx, msg, emoji); err != nil {
				return reacted, err
			}
		}
	}
	return reacted, nil
}

func (g *Gerald) addReaction(ctx context.Context, msg slackapp.Message, emoji string) error {
	err := g.client.AddReactionContext(ctx, emoji, slack.NewRefToMessage(msg.Channel, msg.TimeStamp))
	switch code := slackError(err); code {
	case "":
		if err != nil {
			return fmt.Errorf("reactions.add: %w", err)
		}
		return nil
	case "already_reacted", "invalid_name":
		g.logger.Debug("reaction not added", "emoji", emoji, "reason", code)
		return nil
	default:
		return fmt.Errorf("reactions.add %s: %w", emoji, err)
	}
}

var (
	mentionRegExp = regexp.MustCompile(`<@(\w+)(?:\|[^>]*)?>`)

	bonkFollowups = []string{
		"Now go and think about what you've done!",
		"Bad grad student, I'll take away your :coffee:!",
		"You're lucky Asimov made that first law mate...:robot_face::skull:",
		"There's more where that came from",
	}
)

func (g *Gerald) bonk(ctx context.Context, msg slackapp.Message) error {
	self, err := g.self(ctx)
	if err != nil {
		return err
	}
	for _, mention := range mentionRegExp.FindAllStringSubmatch(msg.Text, -1) {
		if mention[1] == self {
			continue
		}
		return g.reply(ctx, msg, "BONK "+mention[0]+" :bonk::bonk:\n"+g.choose(bonkFollowups))
	}
	return g.reply(ctx, msg, "I couldn't work out who to bonk :sob:")
}

// captureQuote stores messages in the quotes channel that look like a quote.
func (g *Gerald) captureQuote(ctx context.Context, msg slackapp.Message) (bool, error) {
	text, person, err := quotes.Parse(msg.Text)
	if errors.Is(err, quotes.ErrNotAQuote) {
		return false, nil
	}
	channel, err := g.channelID(ctx, g.config.Channels.Quotes)
	if err != nil || channel != msg.Channel {
		return false, err
	}
	q, err := g.stores.Quotes.Add(text, person)
	if err != nil {
		return true, fmt.Errorf("save quote: %w", err)
	}
	g.logger.Info("quote saved", "id", q.ID, "person", q.Person)
	return true, g.addReaction(ctx, msg, "memo")
}
