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
	"io/fs"
	"strconv"
	"strings"
	"time"
)

const (
	statusReply    = "Don't worry, I'm okay. In fact, I'm feeling positively tremendous old bean!"
	celebrateReply = ":tada::meowparty: WOOP WOOP :meowparty::tada:"
	fallbackReply  = "Okay, good news: I heard you, bad news: I'm not a very smart bot so I don't know what you " +
		"want from me :shrug::baby::robot_face:"
)

var thanksReplies = []string{"You're welcome!", "My pleasure!", "Happy to help!"}

// mentionHandlers returns the replies to mentions, in order of precedence. The last one always replies.
func (g *Gerald) mentionHandlers() slackapp.FirstMatch {
	return slackapp.FirstMatch{
		on(anyOf("status", "okay", "ok", "how are you"), g.replyWith(statusReply)),
		on(anyOf("thank", "you're the best", "nice job", "good work", "good job"), g.replyWithOneOf(thanksReplies)),
		on(anyOf("celebrate"), g.replyWith(celebrateReply)),
		on(exactly("WHINETIME MANUAL"), func(ctx context.Context, _ slackapp.Message) error { return g.StartWhinetime(ctx) }),
		on(exactly("BIRTHDAY MANUAL"), func(ctx context.Context, _ slackapp.Message) error { return g.CheckBirthdays(ctx, g.now()) }),
		on(exactly("QUOTE MANUAL"), func(ctx context.Context, _ slackapp.Message) error { return g.PostQuote(ctx) }),
		on(exactly("PAPERS MANUAL"), func(ctx context.Context, _ slackapp.Message) error { return g.AnnouncePapers(ctx, g.now()) }),
		on(allOf(anyOf("next"), anyOf("birthday")), g.nextBirthday),
		on(allOf(anyOf("everyone", "all"), anyOf("birthday")), g.allBirthdays),
		on(allOf(anyOf("whinetime"), anyOf("when", "next")), g.whenIsMyWhinetime),
		on(anyOf("quote"), g.quoteInThread),
		on(anyOf("paper"), g.latestPaper),
		on(always, g.replyWith(fallbackReply)),
	}
}

func (g *Gerald) replyWith(text string) func(context.Context, slackapp.Message) error {
	return func(ctx context.Context, msg slackapp.Message) error {
		return g.reply(ctx, msg, text)
	}
}

func (g *Gerald) replyWithOneOf(texts []string) func(context.Context, slackapp.Message) error {
	return func(ctx context.Context, msg slackapp.Message) error {
		return g.reply(ctx, msg, g.choose(texts))
	}
}

func (g *Gerald) nextBirthday(ctx context.Context, msg slackapp.Message) error {
	members, days, ok, err := g.stores.Roster.ClosestBirthday(g.now().In(g.config.Location))
	if err != nil {
		return err
	}
	if !ok {
		return g.reply(ctx, msg, "I don't know anyone's birthday :sob:")
	}

	when := "it's in " + strconv.Itoa(days) + " days!"
	if days == 0 {
		when = "it's today :scream:!!"
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	if len(names) == 1 {
		return g.reply(ctx, msg, "The next person to have a birthday is "+names[0]+" and "+when)
	}
	return g.reply(ctx, msg, "The next people to have birthdays are "+strings.Join(names, " AND ")+" and "+when)
}

func (g *Gerald) allBirthdays(ctx context.Context, msg slackapp.Message) error {
	known, unknown, err := g.stores.Roster.Birthdays()
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(":birthday: Here's a list of birthdays that I know\n")
	for _, m := range known {
		b.WriteString("• " + m.Name + " - " + m.Birthday.String() + "\n")
	}
	b.WriteString("\n:question: And here's a list of people I know but whose birthdays I don't\n")
	for _, m := range unknown {
		b.WriteString("• " + m.Name + "\n")
	}
	return g.reply(ctx, msg, strings.TrimRight(b.String(), "\n"))
}

func (g *Gerald) whenIsMyWhinetime(ctx context.Context, msg slackapp.Message) error {
	weeks, err := g.stores.Rotation.WeeksUntil(msg.User)
	switch {
	case err == nil && weeks == 0:
		return g.reply(ctx, msg, "You're up this week! Better start planning :beers:")
	case err == nil && weeks == 1:
		return g.reply(ctx, msg, "You're hosting whinetime next week!")
	case err == nil:
		return g.reply(ctx, msg, "You're hosting whinetime in "+strconv.Itoa(weeks)+" weeks")
	case errors.Is(err, rotation.ErrUnknownHost):
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}

	hosts, err := g.stores.Rotation.Hosts()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if len(hosts) == 0 {
		return g.reply(ctx, msg, "There's no whinetime rotation at the moment, so it could be anyone :shrug:")
	}
	for i := range hosts {
		hosts[i] = "<@" + hosts[i] + ">"
	}
	return g.reply(ctx, msg, "You're not in the whinetime rotation! Here's the current order: "+strings.Join(hosts, ", "))
}

func (g *Gerald) quoteInThread(ctx context.Context, msg slackapp.Message) error {
	q, err := g.stores.Quotes.PickRandom(g.now().In(g.config.Location))
	if errors.Is(err, quotes.ErrNoQuote) {
		return g.reply(ctx, msg, noQuoteReply)
	}
	if err != nil {
		return err
	}
	return g.reply(ctx, msg, formatQuote(q))
}

func (g *Gerald) latestPaper(ctx context.Context, msg slackapp.Message) error {
	members, err := g.stores.Roster.Find(msg.Text)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return g.reply(ctx, msg, "Whose paper? I couldn't find anyone I know in that message :thinking_face:")
	}
	m := members[0]
	found, err := g.stores.Feed.Papers(ctx, author(m), time.Time{})
	if err != nil {
		return fmt.Errorf("papers for %s: %w", m.Name, err)
	}
	paper, days, ok := papers.MostRecent(found, g.now().In(g.config.Location))
	if !ok {
		return g.reply(ctx, msg, "I couldn't find any papers by "+m.Name+" :sob:")
	}
	return g.reply(ctx, msg, fmt.Sprintf("The most recent paper by %s came out %s: <%s|%s>", m.FirstName(), daysAgo(days), paper.Link, paper.Title))
}

func author(m roster.Member) papers.Author {
	return papers.Author{Name: m.Name, ORCID: m.ORCID}
}

func daysAgo(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "yesterday"
	default:
		return strconv.Itoa(days) + " days ago"
	}
}
