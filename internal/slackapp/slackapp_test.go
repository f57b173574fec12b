package slackapp

import (
	"context"
	"errors"
	"github.com/clambin/gerald/internal/testutils"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"testing"
)

func TestSlackApp(t *testing.T) {
	var h testutils.FakeHandler
	app := newSlackAppWithSocketModeHandler(nil, &h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error)
	go func() { errChan <- app.Run(ctx) }()

	assert.False(t, app.Connected())
	app.onConnecting(nil, nil)
	h.Login()
	assert.True(t, app.Connected())
	app.onHello(nil, nil)

	// payloads of the wrong type are dropped
	go app.onEvent(&socketmode.Event{Type: socketmode.EventTypeInvalidAuth}, nil)
	go app.onInteraction(&socketmode.Event{Type: socketmode.EventTypeInvalidAuth}, nil)
	assert.Empty(t, app.Events)
	assert.Empty(t, app.Interactions)

	events := []struct {
		name  string
		event *socketmode.Event
		check func(t *testing.T, ev slackevents.EventsAPIInnerEvent)
	}{
		{
			name:  "mention",
			event: testutils.AppMentionEvent("hello world"),
			check: func(t *testing.T, ev slackevents.EventsAPIInnerEvent) {
				mention, ok := ev.Data.(*slackevents.AppMentionEvent)
				require.True(t, ok)
				assert.Equal(t, "hello world", mention.Text)
			},
		},
		{
			name:  "message",
			event: testutils.MessageEvent("U1", "bonk"),
			check: func(t *testing.T, ev slackevents.EventsAPIInnerEvent) {
				msg, ok := ev.Data.(*slackevents.MessageEvent)
				require.True(t, ok)
				assert.Equal(t, "U1", msg.User)
			},
		},
		{
			name:  "emoji",
			event: testutils.EmojiChangedEvent("add", "partyparrot"),
			check: func(t *testing.T, ev slackevents.EventsAPIInnerEvent) {
				emoji, ok := ev.Data.(*slackevents.EmojiChangedEvent)
				require.True(t, ok)
				assert.Equal(t, "partyparrot", emoji.Name)
			},
		},
	}
	for _, tt := range events {
		t.Run(tt.name, func(t *testing.T) {
			go h.SendEvent(tt.event, testutils.SocketModeClient())
			tt.check(t, <-app.Events)
		})
	}

	go h.SendInteraction(testutils.InteractionEvent(testutils.BlockAction("whinetime-open", "none")), testutils.SocketModeClient())
	callback := <-app.Interactions
	assert.Equal(t, slack.InteractionTypeBlockActions, callback.Type)
	require.Len(t, callback.ActionCallback.BlockActions, 1)
	assert.Equal(t, "whinetime-open", callback.ActionCallback.BlockActions[0].ActionID)

	app.onIncomingError(&socketmode.Event{Data: &slack.IncomingEventError{ErrorObj: errors.New("fail")}}, nil)
	app.onIncomingError(&socketmode.Event{Type: socketmode.EventTypeIncomingError}, nil)
	app.onConnectionError(&socketmode.Event{Type: socketmode.EventTypeInvalidAuth, Request: &socketmode.Request{Reason: "invalid credentials"}}, nil)
	app.onConnectionError(&socketmode.Event{Type: socketmode.EventTypeConnectionError}, nil)
	app.onDisconnected(nil, nil)
	assert.False(t, app.Connected())

	cancel()
	assert.NoError(t, <-errChan)
}
