// Package gerald implements Gerald's behaviours: the reactions and replies to channel messages and mentions, the
// weekly whinetime workflow, birthdays, quotes and paper announcements.
package gerald

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/papers"
	"github.com/clambin/gerald/internal/quotes"
	"github.com/clambin/gerald/internal/roster"
	"github.com/clambin/gerald/internal/rotation"
	"github.com/clambin/gerald/internal/slackapp"
	"github.com/slack-go/slack"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrChannelNotFound is returned when a configured channel doesn't exist, or the bot can't see it.
var ErrChannelNotFound = errors.New("channel not found")

// SlackClient is the part of the Slack Web API that Gerald uses. It is satisfied by *slack.Client.
type SlackClient interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	ScheduleMessageContext(ctx context.Context, channelID, postAt string, options ...slack.MsgOption) (string, string, error)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetUsersInConversationContext(ctx context.Context, params *slack.GetUsersInConversationParameters) ([]string, string, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
}

var _ SlackClient = &slack.Client{}

// Channels holds the names (not the IDs) of the channels Gerald posts in.
type Channels struct {
	Announce  string
	Whinetime string
	Quotes    string
	Papers    string
}

// Configuration holds Gerald's settings.
type Configuration struct {
	Channels Channels
	// Location is the time zone used for dates in messages and for scheduled reminders.
	Location *time.Location
	// BirthdayGIFURL is a format string: %d is replaced by a number in [0, BirthdayGIFCount).
	BirthdayGIFURL   string
	BirthdayGIFCount int
	WhinetimeDay     time.Weekday
	QuoteDay         time.Weekday
	PapersDay        time.Weekday
}

// Stores holds the data Gerald works with.
type Stores struct {
	Rotation *rotation.Store
	Quotes   *quotes.Store
	Roster   *roster.Roster
	Feed     papers.Feed
}

// Gerald is the bot's personality. Its handlers are registered with a slackapp.Bot using BotOptions, and its
// scheduled jobs are run by calling Morning once a day.
type Gerald struct {
	client       SlackClient
	config       Configuration
	stores       Stores
	logger       *slog.Logger
	now          func() time.Time
	rand         *rand.Rand
	randLock     sync.Mutex
	lock         sync.Mutex
	channels     map[string]string
	userID       string
	announcement announcement
}

// announcement is the last whinetime announcement we posted.
type announcement struct {
	channel   string
	timestamp string
}

type Option func(*Gerald)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gerald) {
		g.logger = logger
	}
}

// WithRand sets the random source used to pick hosts, replies, quotes and GIFs.
func WithRand(r *rand.Rand) Option {
	return func(g *Gerald) {
		g.rand = r
	}
}

func New(client SlackClient, config Configuration, stores Stores, options ...Option) *Gerald {
	g := Gerald{
		client:   client,
		config:   config,
		stores:   stores,
		logger:   slog.Default(),
		now:      time.Now,
		channels: make(map[string]string),
	}
	for _, o := range options {
		o(&g)
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.config.Location == nil {
		g.config.Location = time.Local
	}
	if g.config.BirthdayGIFCount <= 0 {
		g.config.BirthdayGIFCount = 1
	}
	return &g
}

// BotOptions returns the options that register Gerald's handlers with a slackapp.Bot.
func (g *Gerald) BotOptions() []slackapp.BotOptionFunc {
	return []slackapp.BotOptionFunc{
		slackapp.WithMessageHandler(g.messageHandlers()),
		slackapp.WithMentionHandler(g.mentionHandlers()),
		slackapp.WithInteraction(actionWhinetimeOpen, slackapp.InteractionHandlerFunc(g.openWhinetimeModal)),
		slackapp.WithInteraction(actionWhinetimeReRoll, slackapp.InteractionHandlerFunc(g.reRollWhinetime)),
		slackapp.WithInteraction(callbackWhinetimeModal, slackapp.InteractionHandlerFunc(g.submitWhinetimeModal)),
		slackapp.WithEmojiHandler(g.EmojiChanged),
	}
}

// channelID returns the ID of the channel with the given name. IDs are cached once found.
func (g *Gerald) channelID(ctx context.Context, name string) (string, error) {
	g.lock.Lock()
	id, ok := g.channels[name]
	g.lock.Unlock()
	if ok {
		return id, nil
	}

	params := slack.GetConversationsParameters{ExcludeArchived: true, Limit: 200}
	for {
		channels, cursor, err := g.client.GetConversationsContext(ctx, &params)
		if err != nil {
			return "", fmt.Errorf("conversations.list: %w", err)
		}
		for _, ch := range channels {
			if ch.Name == name {
				g.lock.Lock()
				g.channels[name] = ch.ID
				g.lock.Unlock()
				return ch.ID, nil
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}
	g.logger.Warn("couldn't find channel. Was it renamed?", "channel", name)
	return "", fmt.Errorf("%w: %s", ErrChannelNotFound, name)
}

// self returns the bot's own user ID.
func (g *Gerald) self(ctx context.Context) (string, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.userID != "" {
		return g.userID, nil
	}
	auth, err := g.client.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	g.userID = auth.UserID
	return g.userID, nil
}

func (g *Gerald) post(ctx context.Context, channel string, text string, options ...slack.MsgOption) (string, error) {
	_, ts, err := g.client.PostMessageContext(ctx, channel, append([]slack.MsgOption{slack.MsgOptionText(text, false)}, options...)...)
	if err != nil {
		return "", fmt.Errorf("chat.postMessage: %w", err)
	}
	return ts, nil
}

// reply posts text in the thread of msg.
func (g *Gerald) reply(ctx context.Context, msg slackapp.Message, text string) error {
	_, err := g.post(ctx, msg.Channel, text, slack.MsgOptionTS(msg.Thread()))
	return err
}

// postTo posts text to the channel with the given name.
func (g *Gerald) postTo(ctx context.Context, channelName string, text string, options ...slack.MsgOption) (string, string, error) {
	channel, err := g.channelID(ctx, channelName)
	if err != nil {
		return "", "", err
	}
	ts, err := g.post(ctx, channel, text, options...)
	return channel, ts, err
}

func (g *Gerald) choose(options []string) string {
	return options[g.intN(len(options))]
}

func (g *Gerald) intN(n int) int {
	g.randLock.Lock()
	defer g.randLock.Unlock()
	return g.rand.IntN(n)
}

// slackError returns the error code of a Slack API error response, or "" if err isn't one.
func slackError(err error) string {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		return resp.Err
	}
	return ""
}
