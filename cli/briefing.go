// ABOUTME: Morning briefing command
// ABOUTME: Renders the daily digest with lipgloss, or prints it as JSON
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/briefing"
	"github.com/harperreed/synchro/models"
)

type briefingStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	overdue lipgloss.Style
	due     lipgloss.Style
	ok      lipgloss.Style
	muted   lipgloss.Style
}

// newBriefingStyles binds the styles to w so that colour is dropped when w is not a terminal.
func newBriefingStyles(w io.Writer) briefingStyles {
	r := lipgloss.NewRenderer(w)
	return briefingStyles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("170")).MarginBottom(1),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		overdue: r.NewStyle().Foreground(lipgloss.Color("9")),
		due:     r.NewStyle().Foreground(lipgloss.Color("11")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

func briefingCmd() *cli.Command {
	return &cli.Command{
		Name:    "briefing",
		Aliases: []string{"today"},
		Usage:   "Show who to reach out to today",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the digest as JSON"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			digest, err := e.svc.Digest(c.Context, e.user)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return outputJSON(c, digest)
			}
			_, err = io.WriteString(c.App.Writer, renderDigest(newBriefingStyles(c.App.Writer), digest))
			return err
		}),
	}
}

func renderDigest(st briefingStyles, d *briefing.Digest) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Briefing for "+d.GeneratedAt.Format("Monday, January 2")) + "\n")

	if d.Stats.OverdueCount+d.Stats.DueTodayCount == 0 {
		b.WriteString(st.ok.Render("✓ Nobody is due today.") + "\n")
	}
	writeEntries(&b, st, "Overdue", d.Overdue, st.overdue, func(e briefing.Entry) string {
		return fmt.Sprintf("%d days overdue", -e.DaysUntil)
	})
	writeEntries(&b, st, "Due today", d.DueToday, st.due, func(briefing.Entry) string {
		return "due today"
	})
	writeEntries(&b, st, "Due this week", d.DueThisWeek, st.ok, func(e briefing.Entry) string {
		return fmt.Sprintf("in %d days", e.DaysUntil)
	})
	writeEntries(&b, st, "Birthdays today", d.BirthdaysToday, st.due, func(briefing.Entry) string {
		return "🎂 today"
	})
	writeEntries(&b, st, "Upcoming birthdays", d.UpcomingBirthdays, st.ok, func(e briefing.Entry) string {
		return fmt.Sprintf("in %d days", e.DaysUntil)
	})

	if len(d.TodayEvents) > 0 {
		b.WriteString("\n" + st.header.Render("Meetings today") + "\n")
		for _, ev := range d.TodayEvents {
			b.WriteString("  " + eventLine(ev) + "\n")
		}
	}
	b.WriteString("\n" + st.muted.Render(fmt.Sprintf("%d events this week", d.Stats.WeekEventsCount)) + "\n")
	return b.String()
}

func writeEntries(b *strings.Builder, st briefingStyles, title string, entries []briefing.Entry, style lipgloss.Style, when func(briefing.Entry) string) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("\n" + st.header.Render(fmt.Sprintf("%s (%d)", title, len(entries))) + "\n")
	for _, e := range entries {
		line := fmt.Sprintf("  %-24s %s", e.Contact.Name, style.Render(when(e)))
		if e.Contact.PipelineStage != "" {
			line += " " + st.muted.Render(e.Contact.PipelineStage)
		}
		b.WriteString(line + "\n")
	}
}

func eventLine(ev models.CalendarEvent) string {
	switch {
	case ev.AllDay:
		return "all day  " + ev.Title
	case ev.EndTime != "":
		return fmt.Sprintf("%s-%s  %s", ev.StartTime, ev.EndTime, ev.Title)
	default:
		return fmt.Sprintf("%-5s  %s", ev.StartTime, ev.Title)
	}
}
