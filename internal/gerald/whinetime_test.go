package gerald

import (
	"context"
	"fmt"
	"github.com/clambin/gerald/internal/testutils"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestGerald_StartWhinetime(t *testing.T) {
	g, s, dir := newGerald(t, nil, defaultFiles())
	ctx := context.Background()

	// first pick comes from the rotation, which moves on
	require.NoError(t, g.StartWhinetime(ctx))
	assert.Equal(t, []string{drumRoll, "Whinetime (Week of 01/08/22)"}, s.Texts())
	post := s.Calls("chat.postMessage")[1]
	assert.Equal(t, "C1", post.Values.Get("channel"))
	blocks := post.Blocks()
	assert.Contains(t, blocks, `Okay <@U1>, you're the boss, what's the plan?`)
	assert.Contains(t, blocks, `"action_id":"whinetime-open"`)
	assert.Contains(t, blocks, `"action_id":"whinetime-re-roll"`)
	assert.Contains(t, blocks, `"value":"U1"`)
	assert.Contains(t, blocks, `"style":"danger"`)

	order, err := os.ReadFile(filepath.Join(dir, "whinetime_order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "U2,U1\n1", string(order))
	assert.Equal(t, announcement{channel: "C1", timestamp: "1660000000.000900"}, g.announcement)

	// U1 declines: the announcement is replaced and U2 is next. the rotation doesn't move.
	require.NoError(t, g.reRollWhinetime(ctx, testutils.BlockAction(actionWhinetimeReRoll, "U1")))
	deletes := s.Calls("chat.delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "C1", deletes[0].Values.Get("channel"))
	assert.Equal(t, "1660000000.000300", deletes[0].Values.Get("ts"))

	texts := s.Texts()
	require.Len(t, texts, 4)
	assert.Contains(t, []string{
		fmt.Sprintf(reRollMessages[0], "U2"), reRollMessages[1], reRollMessages[3],
	}, texts[2])
	blocks = s.Calls("chat.postMessage")[3].Blocks()
	assert.Contains(t, blocks, `Okay <@U2>`)
	assert.Contains(t, blocks, `"value":"U1,U2"`)

	order, err = os.ReadFile(filepath.Join(dir, "whinetime_order.txt"))
	require.NoError(t, err)
	assert.Equal(t, "U2,U1\n1", string(order))

	// everyone declines
	require.NoError(t, g.reRollWhinetime(ctx, testutils.BlockAction(actionWhinetimeReRoll, "U1,U2")))
	texts = s.Texts()
	require.Len(t, texts, 5)
	assert.Equal(t, nobodyLeft, texts[4])
}

func TestGerald_StartWhinetime_NoRotation(t *testing.T) {
	g, s, dir := newGerald(t, nil, testFiles{})

	require.NoError(t, g.StartWhinetime(context.Background()))
	blocks := s.Calls("chat.postMessage")[1].Blocks()
	assert.True(t, strings.Contains(blocks, `<@U1>`) || strings.Contains(blocks, `<@U2>`), blocks)
	assert.NotContains(t, blocks, testutils.BotUserID)
	assert.Equal(t, testutils.BotUserID, g.userID)

	// no rotation file is created
	_, err := os.Stat(filepath.Join(dir, "whinetime_order.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGerald_StartWhinetime_Failure(t *testing.T) {
	g, s, _ := newGerald(t, nil, defaultFiles())
	s.SetResponse("chat.postMessage", `{"ok": false, "error": "not_in_channel"}`)
	assert.Error(t, g.StartWhinetime(context.Background()))

	g, _, _ = newGerald(t, nil, defaultFiles())
	g.config.Channels.Whinetime = "general"
	assert.ErrorIs(t, g.StartWhinetime(context.Background()), ErrChannelNotFound)
}

func TestGerald_openWhinetimeModal(t *testing.T) {
	g, s, _ := newGerald(t, nil, defaultFiles())

	require.NoError(t, g.openWhinetimeModal(context.Background(), testutils.BlockAction(actionWhinetimeOpen, "none")))
	calls := s.Calls("views.open")
	require.Len(t, calls, 1)
	body := calls[0].Body
	assert.Contains(t, body, `"trigger_id":"trigger-1"`)
	assert.Contains(t, body, `"callback_id":"whinetime-modal"`)
	assert.Contains(t, body, `"initial_date":"2022-08-05"`)
	assert.Contains(t, body, `"initial_time":"17:00"`)
	assert.Contains(t, body, `"block_id":"whinetime-location"`)
}

func TestGerald_submitWhinetimeModal(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		response string
		wantErr  assert.ErrorAssertionFunc
	}{
		{
			name:    "valid",
			date:    "2022-08-05",
			wantErr: assert.NoError,
		},
		{
			name:     "too late to schedule",
			date:     "2022-08-05",
			response: `{"ok": false, "error": "time_in_past"}`,
			wantErr:  assert.NoError,
		},
		{
			name:    "invalid date",
			date:    "",
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, s, _ := newGerald(t, nil, defaultFiles())
			if tt.response != "" {
				s.SetResponse("chat.scheduleMessage", tt.response)
			}

			callback := testutils.ViewSubmission(callbackWhinetimeModal, map[string]map[string]slack.BlockAction{
				blockLocation: {actionLocation: {Value: "the pub"}},
				blockDate:     {actionDate: {SelectedDate: tt.date}},
				blockTime:     {actionTime: {SelectedTime: "17:00"}},
			})
			err := g.submitWhinetimeModal(context.Background(), callback)
			tt.wantErr(t, err)
			if err != nil {
				return
			}

			assert.Equal(t, []string{"Okay folks, we're good to go! Whinetime will happen on Friday (August 5th) at 05:00PM " +
				"at the pub. I'll remind you closer to the time but now react to this message with :beers: if you're coming!"}, s.Texts())

			when := time.Date(2022, time.August, 5, 17, 0, 0, 0, time.UTC)
			reminders := s.Calls("chat.scheduleMessage")
			require.Len(t, reminders, 2)
			assert.Equal(t, strconv.FormatInt(when.Add(-24*time.Hour).Unix(), 10), reminders[0].Values.Get("post_at"))
			assert.Equal(t, dayBeforeText, reminders[0].Values.Get("text"))
			assert.Equal(t, strconv.FormatInt(when.Add(-time.Hour).Unix(), 10), reminders[1].Values.Get("post_at"))
			assert.Contains(t, reminders[1].Values.Get("text"), "Remember it's at the pub this week")
			assert.Equal(t, "C1", reminders[1].Values.Get("channel"))
		})
	}
}
