package slackapp

import (
	"context"
	"errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"log/slog"
	"sync/atomic"
)

// A SlackApp implements Slack's Events API and interactivity, using Socket Mode. It connects to Slack, listens for
// incoming events and interactions and makes them available on the Events and Interactions channels.
type SlackApp struct {
	*socketmode.Client
	Events       chan slackevents.EventsAPIInnerEvent
	Interactions chan slack.InteractionCallback
	SocketModeHandler
	logger    *slog.Logger
	connected atomic.Bool
}

// SocketModeHandler dispatches socket mode events. It is satisfied by socketmode.SocketmodeHandler.
type SocketModeHandler interface {
	RunEventLoopContext(ctx context.Context) error
	Handle(socketmode.EventType, socketmode.SocketmodeHandlerFunc)
}

// NewSlackApp creates a new slackapp for the slack client.
func NewSlackApp(client *slack.Client, logger *slog.Logger) *SlackApp {
	smc := socketmode.New(client)
	return newSlackAppWithSocketModeHandler(smc, socketmode.NewSocketmodeHandler(smc), logger)
}

func newSlackAppWithSocketModeHandler(client *socketmode.Client, handler SocketModeHandler, logger *slog.Logger) *SlackApp {
	app := SlackApp{
		Client:            client,
		Events:            make(chan slackevents.EventsAPIInnerEvent),
		Interactions:      make(chan slack.InteractionCallback),
		SocketModeHandler: handler,
		logger:            logger,
	}
	app.SocketModeHandler.Handle(socketmode.EventTypeConnecting, app.onConnecting)
	app.SocketModeHandler.Handle(socketmode.EventTypeConnectionError, app.onConnectionError)
	app.SocketModeHandler.Handle(socketmode.EventTypeConnected, app.onConnected)
	app.SocketModeHandler.Handle(socketmode.EventTypeIncomingError, app.onIncomingError)
	app.SocketModeHandler.Handle(socketmode.EventTypeHello, app.onHello)
	app.SocketModeHandler.Handle(socketmode.EventTypeDisconnect, app.onDisconnected)
	app.SocketModeHandler.Handle(socketmode.EventTypeEventsAPI, app.onEvent)
	app.SocketModeHandler.Handle(socketmode.EventTypeInteractive, app.onInteraction)

	return &app
}

// Run starts the slackapp. It connects to Slack and passes any received events to the Events and Interactions channels.
func (h *SlackApp) Run(ctx context.Context) error {
	h.logger.Info("starting SlackApp")
	defer h.logger.Info("shutting down SlackApp")
	return h.SocketModeHandler.RunEventLoopContext(ctx)
}

// Connected returns true if the slackapp is connected to Slack.
func (h *SlackApp) Connected() bool {
	return h.connected.Load()
}

func (h *SlackApp) onConnecting(_ *socketmode.Event, _ *socketmode.Client) {
	h.logger.Debug("connecting to Slack ...")
}

func (h *SlackApp) onConnectionError(ev *socketmode.Event, _ *socketmode.Client) {
	reason := string(ev.Type)
	if ev.Request != nil {
		reason = ev.Request.Reason
	}
	h.logger.Error("failed to connect to Slack", "reason", reason)
}

func (h *SlackApp) onConnected(_ *socketmode.Event, _ *socketmode.Client) {
	h.connected.Store(true)
	h.logger.Info("connected to Slack")
}

func (h *SlackApp) onIncomingError(ev *socketmode.Event, _ *socketmode.Client) {
	var err *slack.IncomingEventError
	if e, ok := ev.Data.(error); ok && errors.As(e, &err) {
		h.logger.Warn("received incoming error", "err", err)
	} else {
		h.logger.Warn("received unexpected event type", "type", ev.Type)
	}
}

func (h *SlackApp) onHello(_ *socketmode.Event, _ *socketmode.Client) {
}

func (h *SlackApp) onDisconnected(_ *socketmode.Event, _ *socketmode.Client) {
	h.connected.Store(false)
	h.logger.Warn("disconnected from Slack")
}

func (h *SlackApp) onEvent(ev *socketmode.Event, client *socketmode.Client) {
	eventsAPIEvent, ok := ev.Data.(slackevents.EventsAPIEvent)
	if !ok {
		h.logger.Warn("received unexpected event type", "type", ev.Type)
		return
	}
	client.Ack(*ev.Request)
	innerEvent := eventsAPIEvent.InnerEvent
	h.logger.Debug("Event received", "type", innerEvent.Type)

	h.Events <- innerEvent
}

func (h *SlackApp) onInteraction(ev *socketmode.Event, client *socketmode.Client) {
	callback, ok := ev.Data.(slack.InteractionCallback)
	if !ok {
		h.logger.Warn("received unexpected interaction type", "type", ev.Type)
		return
	}
	// views must be acked without a payload for the modal to close
	client.Ack(*ev.Request)
	h.logger.Debug("Interaction received", "type", callback.Type)

	h.Interactions <- callback
}
