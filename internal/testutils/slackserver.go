package testutils

import (
	"bytes"
	"encoding/json"
	"github.com/slack-go/slack"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// BotUserID is the user ID the fake server reports for the bot.
const BotUserID = "W23456789"

var defaultResponses = map[string]string{
	"auth.test":             `{ "ok": true, "url": "https://subarachnoid.slack.com/", "team": "Subarachnoid Workspace", "user": "bot", "team_id": "T0G9PQBBK", "user_id": "W23456789", "bot_id": "BZYBOTHED" }`,
	"chat.postMessage":      `{"ok": true, "channel": "C1", "ts": "1660000000.000900"}`,
	"chat.delete":           `{"ok": true, "channel": "C1", "ts": "1660000000.000900"}`,
	"chat.scheduleMessage":  `{"ok": true, "channel": "C1", "scheduled_message_id": "Q1", "post_at": "1660000000"}`,
	"reactions.add":         `{"ok": true}`,
	"views.open":            `{"ok": true, "view": {"id": "V1"}}`,
	"conversations.list":    `{"ok": true, "channels": [{"id": "C1", "name": "bot-test"}, {"id": "C2", "name": "quotes"}], "response_metadata": {"next_cursor": ""}}`,
	"conversations.members": `{"ok": true, "members": ["W23456789", "U1", "U2"], "response_metadata": {"next_cursor": ""}}`,
	"users.list":            `{"ok": true, "members": [{"id": "U1", "name": "tomwagg"}, {"id": "U2", "name": "alice"}], "response_metadata": {"next_cursor": ""}}`,
}

// A Call is a request received by the SlackServer.
type Call struct {
	Method string
	Values url.Values
	Body   string
}

// Blocks returns the blocks of a posted message as JSON, without escaping '<', '>' and '&'.
func (c Call) Blocks() string {
	var blocks any
	if err := json.Unmarshal([]byte(c.Values.Get("blocks")), &blocks); err != nil {
		return ""
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(blocks)
	return b.String()
}

// SlackServer fakes the Slack Web API. It records every call and replies with a canned response per method.
type SlackServer struct {
	*httptest.Server
	t         *testing.T
	lock      sync.Mutex
	calls     []Call
	responses map[string]string
}

// NewSlackServer starts a SlackServer. It is closed when the test ends.
func NewSlackServer(t *testing.T) *SlackServer {
	t.Helper()
	s := SlackServer{t: t, responses: make(map[string]string, len(defaultResponses))}
	for method, response := range defaultResponses {
		s.responses[method] = response
	}
	s.Server = httptest.NewServer(&s)
	t.Cleanup(s.Close)
	return &s
}

// Client returns a slack client that talks to the server.
func (s *SlackServer) Client() *slack.Client {
	return slack.New("xoxb-token", slack.OptionAPIURL(s.URL+"/"))
}

// SetResponse overrides the response for a Web API method.
func (s *SlackServer) SetResponse(method string, response string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.responses[method] = response
}

// Calls returns the calls received for a method. If method is blank, all calls are returned.
func (s *SlackServer) Calls(method string) []Call {
	s.lock.Lock()
	defer s.lock.Unlock()
	var calls []Call
	for _, c := range s.calls {
		if method == "" || c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// Texts returns the text of each posted message, in order.
func (s *SlackServer) Texts() []string {
	var texts []string
	for _, c := range s.Calls("chat.postMessage") {
		texts = append(texts, c.Values.Get("text"))
	}
	return texts
}

func (s *SlackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/")
	body, _ := io.ReadAll(r.Body)
	call := Call{Method: method, Body: string(body)}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		call.Values, _ = url.ParseQuery(string(body))
	} else {
		call.Values = r.URL.Query()
	}

	s.lock.Lock()
	s.calls = append(s.calls, call)
	response, ok := s.responses[method]
	s.lock.Unlock()

	if !ok {
		s.t.Log(r.URL.String())
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(response))
}
