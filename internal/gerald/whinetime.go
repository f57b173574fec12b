package gerald

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/gerald/internal/datefmt"
	"github.com/clambin/gerald/internal/rotation"
	"github.com/slack-go/slack"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	actionWhinetimeOpen    = "whinetime-open"
	actionWhinetimeReRoll  = "whinetime-re-roll"
	callbackWhinetimeModal = "whinetime-modal"

	blockLocation  = "whinetime-location"
	blockDate      = "whinetime-date"
	blockTime      = "whinetime-time"
	actionDate     = "datepicker-action"
	actionTime     = "timepicker-action"
	actionLocation = "whinetime-location"
)

const (
	drumRoll       = "Drumroll please :drum_with_drumsticks:...it's time to pick a whinetime host"
	nobodyLeft     = "Uh oh, I've tried everyone in the channel and it seems no one is free to host! :smiling_face_with_tear:"
	dayBeforeText  = "Only one day to go until #whinetime! Don't forget to react to the message above if you're coming"
	hourBeforeText = "Feeling that Friday afternoon fatigue? You need some #whinetime mate and luckily it's only one " +
		"hour to go :meowparty::meowparty: Remember it's at %s this week, hope you guys have fun!"
)

var reRollMessages = []string{
	"Not whinetime eh? Are you sure? You could be great, you know, whinetime will help you on the way to greatness, " +
		"no doubt about that — no? Well, if you're sure — better be ~GRYFFINDOR~ <@%s>!",
	"Okay let's try that again, your whinetime host will be...:drum_with_drumsticks:",
	"Okay let's try that again, your whinetime host will be...:drum_with_drumsticks:",
	"Nevermind, let's choose someone else, how about...:drum_with_drumsticks:",
}

// StartWhinetime picks this week's whinetime host and posts the announcement. Hosts in exclude are skipped: passing
// any means the previous host declined, and the pick is a re-roll.
//
// Hosts are taken from the rotation, in order. If nobody in the rotation is left, a random member of the whinetime
// channel is picked instead. Only a first pick from the rotation advances the rotation.
func (g *Gerald) StartWhinetime(ctx context.Context, exclude ...string) error {
	channel, err := g.channelID(ctx, g.config.Channels.Whinetime)
	if err != nil {
		return err
	}
	reRoll := len(exclude) > 0

	host, fromRotation, err := g.pickHost(ctx, channel, reRoll, exclude)
	if err != nil {
		return err
	}
	if host == "" {
		_, err = g.post(ctx, channel, nobodyLeft)
		return err
	}

	intro := drumRoll
	if reRoll {
		intro = g.choose(reRollMessages)
		if strings.Contains(intro, "%s") {
			intro = fmt.Sprintf(intro, host)
		}
	}
	if _, err = g.post(ctx, channel, intro); err != nil {
		return err
	}

	header := "Whinetime (Week of " + g.now().In(g.config.Location).Format("02/01/06") + ")"
	ts, err := g.post(ctx, channel, header, slack.MsgOptionBlocks(announcementBlocks(header, host, append(slices.Clone(exclude), host))...))
	if err != nil {
		return err
	}
	g.lock.Lock()
	g.announcement = announcement{channel: channel, timestamp: ts}
	g.lock.Unlock()
	g.logger.Info("whinetime host picked", "host", host, "reroll", reRoll)

	if fromRotation && !reRoll {
		if err = g.stores.Rotation.Rotate(); err != nil {
			return fmt.Errorf("rotate hosts: %w", err)
		}
	}
	return nil
}

// pickHost returns the next host. host is blank if nobody is left.
func (g *Gerald) pickHost(ctx context.Context, channel string, reRoll bool, exclude []string) (host string, fromRotation bool, err error) {
	var candidates []string
	if reRoll {
		candidates, err = g.stores.Rotation.Candidates(exclude...)
	} else if host, err = g.stores.Rotation.NextHost(); err == nil {
		candidates = []string{host}
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, rotation.ErrNoHosts) {
		return "", false, fmt.Errorf("rotation: %w", err)
	}
	if len(candidates) > 0 {
		return candidates[0], true, nil
	}

	self, err := g.self(ctx)
	if err != nil {
		return "", false, err
	}
	members, err := g.channelMembers(ctx, channel)
	if err != nil {
		return "", false, err
	}
	members = slices.DeleteFunc(members, func(member string) bool {
		return member == self || slices.Contains(exclude, member)
	})
	if len(members) == 0 {
		return "", false, nil
	}
	return members[g.intN(len(members))], false, nil
}

func (g *Gerald) channelMembers(ctx context.Context, channel string) ([]string, error) {
	params := slack.GetUsersInConversationParameters{ChannelID: channel}
	var members []string
	for {
		page, cursor, err := g.client.GetUsersInConversationContext(ctx, &params)
		if err != nil {
			return nil, fmt.Errorf("conversations.members: %w", err)
		}
		members = append(members, page...)
		if cursor == "" {
			return members, nil
		}
		params.Cursor = cursor
	}
}

func announcementBlocks(header string, host string, excluded []string) []slack.Block {
	reRoll := slack.NewButtonBlockElement(actionWhinetimeReRoll, strings.Join(excluded, ","),
		slack.NewTextBlockObject(slack.PlainTextType, "Choose someone else!", true, false),
	).WithStyle(slack.StyleDanger).WithConfirm(slack.NewConfirmationBlockObject(
		slack.NewTextBlockObject(slack.PlainTextType, "Are you sure?", false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "Wouldn't you rather be relaxing at whinetime :pleading_face:?", false, false),
		slack.NewTextBlockObject(slack.PlainTextType, "Do it", false, false),
		slack.NewTextBlockObject(slack.PlainTextType, "Stop, I've changed my mind!", false, false),
	))

	return []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, header, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "Okay <@"+host+">, you're the boss, what's the plan?", false, false), nil, nil),
		slack.NewActionBlock("",
			slack.NewButtonBlockElement(actionWhinetimeOpen, "none", slack.NewTextBlockObject(slack.PlainTextType, "Setup logistics", true, false)),
			reRoll,
		),
	}
}

// reRollWhinetime handles the "Choose someone else!" button: it removes the announcement and picks another host.
func (g *Gerald) reRollWhinetime(ctx context.Context, callback slack.InteractionCallback) error {
	channel, ts := callback.Container.ChannelID, callback.Container.MessageTs
	if channel == "" || ts == "" {
		g.lock.Lock()
		channel, ts = g.announcement.channel, g.announcement.timestamp
		g.lock.Unlock()
	}
	if channel != "" && ts != "" {
		if _, _, err := g.client.DeleteMessageContext(ctx, channel, ts); err != nil {
			return fmt.Errorf("chat.delete: %w", err)
		}
	}

	var exclude []string
	for _, action := range callback.ActionCallback.BlockActions {
		if action.ActionID == actionWhinetimeReRoll && action.Value != "" {
			exclude = strings.Split(action.Value, ",")
		}
	}
	// a re-roll always excludes someone
	if len(exclude) == 0 {
		exclude = []string{callback.User.ID}
	}
	return g.StartWhinetime(ctx, exclude...)
}

// openWhinetimeModal handles the "Setup logistics" button: it asks the host for the plan.
func (g *Gerald) openWhinetimeModal(ctx context.Context, callback slack.InteractionCallback) error {
	now := g.now().In(g.config.Location)
	friday := now.AddDate(0, 0, (int(time.Friday)-int(now.Weekday())+7)%7)

	location := slack.NewInputBlock(blockLocation,
		slack.NewTextBlockObject(slack.PlainTextType, "Where shall we go?", true, false), nil,
		slack.NewPlainTextInputBlockElement(nil, actionLocation),
	)
	datePicker := slack.NewDatePickerBlockElement(actionDate)
	datePicker.InitialDate = friday.Format(time.DateOnly)
	datePicker.Placeholder = slack.NewTextBlockObject(slack.PlainTextType, "Select a date", true, false)
	timePicker := slack.NewTimePickerBlockElement(actionTime)
	timePicker.InitialTime = "17:00"
	timePicker.Placeholder = slack.NewTextBlockObject(slack.PlainTextType, "Select time", true, false)

	view := slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: callbackWhinetimeModal,
		Title:      slack.NewTextBlockObject(slack.PlainTextType, "Whinetime logistics", true, false),
		Submit:     slack.NewTextBlockObject(slack.PlainTextType, "Submit", true, false),
		Close:      slack.NewTextBlockObject(slack.PlainTextType, "Cancel", true, false),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Whinetime (Week of "+now.Format("02/01/06")+")", true, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "Okay you're the boss, what's the plan? Let me know and I'll send reminders out for whinetime!", false, false), nil, nil),
			location,
			slack.NewInputBlock(blockDate, slack.NewTextBlockObject(slack.PlainTextType, "Which day?", true, false), nil, datePicker),
			slack.NewInputBlock(blockTime, slack.NewTextBlockObject(slack.PlainTextType, "What time?", true, false), nil, timePicker),
		}},
	}
	if _, err := g.client.OpenViewContext(ctx, callback.TriggerID, view); err != nil {
		return fmt.Errorf("views.open: %w", err)
	}
	return nil
}

// submitWhinetimeModal announces the plan the host submitted and schedules reminders.
func (g *Gerald) submitWhinetimeModal(ctx context.Context, callback slack.InteractionCallback) error {
	if callback.View.State == nil {
		return errors.New("whinetime modal: no state")
	}
	values := callback.View.State.Values
	location := strings.TrimSpace(values[blockLocation][actionLocation].Value)
	date := values[blockDate][actionDate].SelectedDate
	clock := values[blockTime][actionTime].SelectedTime

	when, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, g.config.Location)
	if err != nil {
		return fmt.Errorf("whinetime modal: invalid date/time: %w", err)
	}

	channel, _, err := g.postTo(ctx, g.config.Channels.Whinetime, "Okay folks, we're good to go! Whinetime will happen on "+
		datefmt.Format("Monday (January {S}) at 03:04PM", when)+" at "+location+
		". I'll remind you closer to the time but now react to this message with :beers: if you're coming!")
	if err != nil {
		return err
	}

	for _, reminder := range []struct {
		at   time.Time
		text string
	}{
		{at: when.Add(-24 * time.Hour), text: dayBeforeText},
		{at: when.Add(-time.Hour), text: fmt.Sprintf(hourBeforeText, location)},
	} {
		if err = g.schedule(ctx, channel, reminder.at, reminder.text); err != nil {
			return err
		}
	}
	return nil
}

// schedule schedules a message. If Slack refuses to schedule it, e.g. because the time has already passed, the
// error is logged and ignored.
func (g *Gerald) schedule(ctx context.Context, channel string, at time.Time, text string) error {
	_, _, err := g.client.ScheduleMessageContext(ctx, channel, strconv.FormatInt(at.Unix(), 10), slack.MsgOptionText(text, false))
	if err == nil {
		g.logger.Debug("reminder scheduled", "at", at)
		return nil
	}
	if code := slackError(err); code != "" {
		g.logger.Warn("could not schedule reminder", "at", at, "reason", code)
		return nil
	}
	return fmt.Errorf("chat.scheduleMessage: %w", err)
}
