package testutils

import (
	"bytes"
	"context"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"io"
	"net/http"
	"sync"
)

type FakeHandler struct {
	lock          sync.Mutex
	eventHandlers map[socketmode.EventType]socketmode.SocketmodeHandlerFunc
}

func (f *FakeHandler) RunEventLoopContext(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *FakeHandler) Handle(evt socketmode.EventType, h socketmode.SocketmodeHandlerFunc) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.eventHandlers == nil {
		f.eventHandlers = make(map[socketmode.EventType]socketmode.SocketmodeHandlerFunc)
	}
	f.eventHandlers[evt] = h
}

// SendEvent passes an Events API event to the registered handler.
func (f *FakeHandler) SendEvent(ev *socketmode.Event, c *socketmode.Client) {
	f.send(socketmode.EventTypeEventsAPI, ev, c)
}

// SendInteraction passes an interactive event to the registered handler.
func (f *FakeHandler) SendInteraction(ev *socketmode.Event, c *socketmode.Client) {
	f.send(socketmode.EventTypeInteractive, ev, c)
}

func (f *FakeHandler) send(evt socketmode.EventType, ev *socketmode.Event, c *socketmode.Client) {
	f.lock.Lock()
	h, ok := f.eventHandlers[evt]
	f.lock.Unlock()
	if ok {
		h(ev, c)
	}
}

func (f *FakeHandler) Login() {
	f.send(socketmode.EventTypeConnected, nil, nil)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////

var _ http.RoundTripper = &StubbedRoundTripper{}

type StubbedRoundTripper struct{}

func (r StubbedRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(``)),
	}, nil
}

// SocketModeClient returns a socketmode client that doesn't connect anywhere. Use it to ack events in tests.
func SocketModeClient() *socketmode.Client {
	return socketmode.New(slack.New("", slack.OptionHTTPClient(&http.Client{Transport: &StubbedRoundTripper{}})))
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////

func eventsAPIEvent(eventType string, data any) *socketmode.Event {
	return &socketmode.Event{
		Type:    socketmode.EventTypeEventsAPI,
		Request: &socketmode.Request{},
		Data: slackevents.EventsAPIEvent{
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Type: eventType,
				Data: data,
			},
		},
	}
}

func AppMentionEvent(text string) *socketmode.Event {
	return eventsAPIEvent(string(slackevents.AppMention), &slackevents.AppMentionEvent{
		Channel:   "1",
		User:      "U1",
		Text:      text,
		TimeStamp: "1660000000.000100",
	})
}

func MessageEvent(user string, text string) *socketmode.Event {
	return eventsAPIEvent(string(slackevents.Message), &slackevents.MessageEvent{
		Channel:   "1",
		User:      user,
		Text:      text,
		TimeStamp: "1660000000.000200",
	})
}

func EmojiChangedEvent(subtype string, name string) *socketmode.Event {
	return eventsAPIEvent("emoji_changed", &slackevents.EmojiChangedEvent{
		Type:    "emoji_changed",
		Subtype: subtype,
		Name:    name,
	})
}

func InteractionEvent(callback slack.InteractionCallback) *socketmode.Event {
	return &socketmode.Event{
		Type:    socketmode.EventTypeInteractive,
		Request: &socketmode.Request{},
		Data:    callback,
	}
}

// BlockAction returns an interaction for a button press.
func BlockAction(actionID string, value string) slack.InteractionCallback {
	return slack.InteractionCallback{
		Type:      slack.InteractionTypeBlockActions,
		TriggerID: "trigger-1",
		Container: slack.Container{ChannelID: "C1", MessageTs: "1660000000.000300"},
		ActionCallback: slack.ActionCallbacks{
			BlockActions: []*slack.BlockAction{{ActionID: actionID, Value: value}},
		},
	}
}

// ViewSubmission returns an interaction for a submitted modal with the given state.
func ViewSubmission(callbackID string, values map[string]map[string]slack.BlockAction) slack.InteractionCallback {
	return slack.InteractionCallback{
		Type: slack.InteractionTypeViewSubmission,
		View: slack.View{
			CallbackID: callbackID,
			State:      &slack.ViewState{Values: values},
		},
	}
}
