package gerald

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"time"
)

// CheckBirthdays wishes a happy birthday to everybody whose birthday is today.
func (g *Gerald) CheckBirthdays(ctx context.Context, now time.Time) error {
	members, days, ok, err := g.stores.Roster.ClosestBirthday(now.In(g.config.Location))
	if err != nil {
		return err
	}
	if !ok || days != 0 {
		return nil
	}

	users, err := g.client.GetUsersContext(ctx)
	if err != nil {
		return fmt.Errorf("users.list: %w", err)
	}
	ids := make(map[string]string, len(users))
	for _, u := range users {
		ids[u.Name] = u.ID
	}

	for _, m := range members {
		id, found := ids[m.Handle]
		if !found {
			g.logger.Warn("birthday person not found in workspace", "name", m.Name, "handle", m.Handle)
			continue
		}
		if err = g.happyBirthday(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gerald) happyBirthday(ctx context.Context, userID string) error {
	text := ":birthday: Happy birthday to <@" + userID + ">! :birthday:"
	gif := fmt.Sprintf(g.config.BirthdayGIFURL, g.intN(g.config.BirthdayGIFCount))
	_, _, err := g.postTo(ctx, g.config.Channels.Announce, text, slack.MsgOptionBlocks(
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		slack.NewImageBlock(gif, "birthday", "", nil),
	))
	return err
}
