package slackapp

import (
	"context"
	"errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// A Message is a message posted in a channel, or a mention of the bot.
type Message struct {
	Channel         string
	User            string
	Text            string
	TimeStamp       string
	ThreadTimeStamp string
}

// Thread returns the timestamp to use when replying to the message in a thread.
func (m Message) Thread() string {
	if m.ThreadTimeStamp != "" {
		return m.ThreadTimeStamp
	}
	return m.TimeStamp
}

// A Handler processes a message. It returns true if the message concerned it.
type Handler interface {
	Handle(context.Context, Message) (bool, error)
}

// HandlerFunc is an adapter that allows a function to be used as a Handler
type HandlerFunc func(context.Context, Message) (bool, error)

// Handle calls f(ctx, msg)
func (f HandlerFunc) Handle(ctx context.Context, msg Message) (bool, error) {
	return f(ctx, msg)
}

var (
	_ Handler = Broadcast{}
	_ Handler = FirstMatch{}
)

// Broadcast passes a message to all its handlers. It returns true if any handler processed the message.
// Errors from all handlers are joined.
type Broadcast []Handler

func (b Broadcast) Handle(ctx context.Context, msg Message) (bool, error) {
	var handled bool
	var errs []error
	for _, h := range b {
		ok, err := h.Handle(ctx, msg)
		handled = handled || ok
		if err != nil {
			errs = append(errs, err)
		}
	}
	return handled, errors.Join(errs...)
}

// FirstMatch passes a message to its handlers in order, until one of them processes it.
//
// Note that both Broadcast and FirstMatch implement the Handler interface, so they can be nested:
//
//	Broadcast
//	  reactions
//	  FirstMatch
//	    replies
//	    fallback
type FirstMatch []Handler

func (f FirstMatch) Handle(ctx context.Context, msg Message) (bool, error) {
	for _, h := range f {
		if ok, err := h.Handle(ctx, msg); ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

// An InteractionHandler processes a block action or a view submission.
type InteractionHandler interface {
	HandleInteraction(context.Context, slack.InteractionCallback) error
}

// InteractionHandlerFunc is an adapter that allows a function to be used as an InteractionHandler
type InteractionHandlerFunc func(context.Context, slack.InteractionCallback) error

// HandleInteraction calls f(ctx, callback)
func (f InteractionHandlerFunc) HandleInteraction(ctx context.Context, callback slack.InteractionCallback) error {
	return f(ctx, callback)
}

// Interactions maps action IDs (for block actions) or callback IDs (for view submissions) to their InteractionHandler.
type Interactions map[string]InteractionHandler

// EmojiHandlerFunc processes an emoji_changed event.
type EmojiHandlerFunc func(context.Context, *slackevents.EmojiChangedEvent) error
