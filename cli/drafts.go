// ABOUTME: Draft message commands
// ABOUTME: Generate, list and resolve reconnection drafts from the terminal
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/models"
)

func draftsCmd() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "Manage reconnection drafts",
		Subcommands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Write a pending draft for a contact",
				ArgsUsage: "<contact-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tone", Usage: "e.g. casual, warm, formal"},
					&cli.StringFlag{Name: "language", Usage: "Language to write in"},
					&cli.StringFlag{Name: "example", Usage: "A message whose style to imitate"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "contact id")
					if err != nil {
						return err
					}
					d, err := e.svc.GenerateDraft(c.Context, e.user, id, drafter.StyleHints{
						Tone:        c.String("tone"),
						Language:    c.String("language"),
						ExampleText: c.String("example"),
					})
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "Draft %s for %s:\n\n%s\n", d.ID, d.ContactName, d.DraftMessage)
					return err
				}),
			},
			{
				Name:  "list",
				Usage: "List drafts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Value: models.DraftPending, Usage: "pending, sent or dismissed"},
					&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					drafts, err := e.svc.ListDrafts(c.Context, e.user, c.String("status"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(c, drafts)
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					_, _ = fmt.Fprintln(w, "CONTACT\tCREATED\tMESSAGE\tID")
					for _, d := range drafts {
						_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ContactName, d.CreatedAt.Format(models.DateLayout), truncate(d.DraftMessage, 48), d.ID)
					}
					return w.Flush()
				}),
			},
			{
				Name:      "sent",
				Usage:     "Mark a draft as sent and reschedule the contact",
				ArgsUsage: "<draft-id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "draft id")
					if err != nil {
						return err
					}
					_, contact, err := e.svc.MarkDraftSent(c.Context, e.user, id)
					if err != nil {
						return err
					}
					next := "-"
					if contact.NextDue != nil {
						next = contact.NextDue.Format(models.DateLayout)
					}
					_, err = fmt.Fprintf(c.App.Writer, "✓ Sent to %s, next due %s\n", contact.Name, next)
					return err
				}),
			},
			{
				Name:      "dismiss",
				Usage:     "Dismiss a pending draft",
				ArgsUsage: "<draft-id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "draft id")
					if err != nil {
						return err
					}
					d, err := e.svc.DismissDraft(c.Context, e.user, id)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "Dismissed draft for %s\n", d.ContactName)
					return err
				}),
			},
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
