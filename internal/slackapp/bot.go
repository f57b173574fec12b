package slackapp

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// A Bot receives events from a SlackApp and passes them to the registered handlers:
//
//   - channel messages are passed to all message handlers
//   - mentions of the bot are passed to the mention handlers, in order, until one processes it
//   - block actions and view submissions are passed to the handler registered for their action or callback ID
//   - emoji_changed events are passed to the emoji handler
//
// Events are processed one at a time. A failing handler is logged and does not stop the bot.
type Bot struct {
	*SlackApp
	messages     Broadcast
	mentions     FirstMatch
	interactions Interactions
	emoji        EmojiHandlerFunc
	metrics      *Metrics
	logger       *slog.Logger
	userID       string
}

func NewBot(client *slack.Client, options ...BotOptionFunc) *Bot {
	b := makeBot(options...)
	b.SlackApp = NewSlackApp(client, b.logger.With("component", "slackapp"))
	return b
}

func newBotWith(c *slack.Client, h SocketModeHandler, options ...BotOptionFunc) *Bot {
	b := makeBot(options...)
	b.SlackApp = newSlackAppWithSocketModeHandler(socketmode.New(c), h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return b
}

func makeBot(options ...BotOptionFunc) *Bot {
	b := Bot{
		interactions: make(Interactions),
		logger:       slog.Default(),
	}
	for _, o := range options {
		o(&b)
	}
	return &b
}

// UserID returns the bot's own user ID. It is set once Run has authenticated with Slack.
func (b *Bot) UserID() string {
	return b.userID
}

func (b *Bot) Run(ctx context.Context) error {
	var err error
	if b.userID, err = b.authenticate(ctx); err != nil {
		return err
	}

	b.logger.Debug("starting Bot", "user", b.userID)
	defer b.logger.Debug("shutting down Bot")
	errCh := make(chan error, 1)
	go func() { errCh <- b.SlackApp.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err = <-errCh:
			if err != nil {
				err = fmt.Errorf("slackapp failed: %w", err)
			}
			return err
		case ev := <-b.SlackApp.Events:
			b.metrics.event(ev.Type)
			b.handleEvent(ctx, ev)
		case callback := <-b.SlackApp.Interactions:
			b.metrics.event(string(callback.Type))
			b.handleInteraction(ctx, callback)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, ev slackevents.EventsAPIInnerEvent) {
	switch data := ev.Data.(type) {
	case *slackevents.AppMentionEvent:
		msg := Message{
			Channel:         data.Channel,
			User:            data.User,
			Text:            removeUserID(data.Text, b.userID),
			TimeStamp:       data.TimeStamp,
			ThreadTimeStamp: data.ThreadTimeStamp,
		}
		b.run("mention", func() error { _, err := b.mentions.Handle(ctx, msg); return err })
	case *slackevents.MessageEvent:
		// don't process our own messages, other bots, or edits & deletions
		if data.User == b.userID || data.BotID != "" || data.SubType != "" {
			return
		}
		msg := Message{
			Channel:         data.Channel,
			User:            data.User,
			Text:            data.Text,
			TimeStamp:       data.TimeStamp,
			ThreadTimeStamp: data.ThreadTimeStamp,
		}
		b.run("message", func() error { _, err := b.messages.Handle(ctx, msg); return err })
	case *slackevents.EmojiChangedEvent:
		if b.emoji != nil {
			b.run("emoji", func() error { return b.emoji(ctx, data) })
		}
	default:
		b.logger.Warn("received unexpected Event API event", "type", ev.Type)
	}
}

func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	switch callback.Type {
	case slack.InteractionTypeBlockActions:
		for _, action := range callback.ActionCallback.BlockActions {
			if h, ok := b.interactions[action.ActionID]; ok {
				b.run(action.ActionID, func() error { return h.HandleInteraction(ctx, callback) })
			} else {
				b.logger.Warn("no handler for block action", "action", action.ActionID)
			}
		}
	case slack.InteractionTypeViewSubmission:
		if h, ok := b.interactions[callback.View.CallbackID]; ok {
			b.run(callback.View.CallbackID, func() error { return h.HandleInteraction(ctx, callback) })
		} else {
			b.logger.Warn("no handler for view submission", "callback", callback.View.CallbackID)
		}
	default:
		b.logger.Debug("ignoring interaction", "type", callback.Type)
	}
}

func (b *Bot) run(name string, f func() error) {
	if err := f(); err != nil {
		b.metrics.failure(name)
		b.logger.Error("handler failed", "handler", name, "err", err)
	}
}

func (b *Bot) authenticate(ctx context.Context) (string, error) {
	auth, err := b.SlackApp.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	return auth.UserID, nil
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type BotOptionFunc func(*Bot)

func WithLogger(logger *slog.Logger) BotOptionFunc {
	return func(bot *Bot) {
		bot.logger = logger
	}
}

// WithMessageHandler adds a handler for channel messages.
func WithMessageHandler(handler Handler) BotOptionFunc {
	return func(bot *Bot) {
		bot.messages = append(bot.messages, handler)
	}
}

// WithMentionHandler adds a handler for mentions. Mention handlers are tried in the order they were added.
func WithMentionHandler(handler Handler) BotOptionFunc {
	return func(bot *Bot) {
		bot.mentions = append(bot.mentions, handler)
	}
}

// WithInteraction registers the handler for a block action ID or a view callback ID.
func WithInteraction(id string, handler InteractionHandler) BotOptionFunc {
	return func(bot *Bot) {
		bot.interactions[id] = handler
	}
}

func WithEmojiHandler(handler EmojiHandlerFunc) BotOptionFunc {
	return func(bot *Bot) {
		bot.emoji = handler
	}
}

func WithMetrics(metrics *Metrics) BotOptionFunc {
	return func(bot *Bot) {
		bot.metrics = metrics
	}
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var userIDRegExp = regexp.MustCompile(`<@(\w+)(?:\|[^>]*)?>`)

// removeUserID removes mentions of userID from the text.
func removeUserID(input string, userID string) string {
	output := userIDRegExp.ReplaceAllStringFunc(input, func(mention string) string {
		if matches := userIDRegExp.FindStringSubmatch(mention); len(matches) == 2 && matches[1] == userID {
			return ""
		}
		return mention
	})
	return strings.Join(strings.Fields(output), " ")
}
