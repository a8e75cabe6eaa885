// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts and logging interactions
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/models"
)

func contactsCmd() *cli.Command {
	return &cli.Command{
		Name:    "contacts",
		Aliases: []string{"c"},
		Usage:   "Manage contacts",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a contact",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Contact name"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "birthday", Usage: "YYYY-MM-DD or MM-DD"},
					&cli.StringFlag{Name: "notes", Usage: "Notes about the contact"},
					&cli.StringFlag{Name: "stage", Aliases: []string{"s"}, Usage: "Pipeline stage (default Monthly; New is never scheduled)"},
					&cli.StringFlag{Name: "last-contact", Usage: "When you last spoke (defaults to now)"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					in := models.NewContact{
						Name:          c.String("name"),
						Email:         c.String("email"),
						Phone:         c.String("phone"),
						Birthday:      c.String("birthday"),
						Notes:         c.String("notes"),
						PipelineStage: c.String("stage"),
					}
					if c.IsSet("last-contact") {
						v := c.String("last-contact")
						in.LastContactDate = &v
					}
					contact, err := e.svc.CreateContact(c.Context, e.user, in)
					if err != nil {
						return err
					}
					return outputJSON(c, contact)
				}),
			},
			{
				Name:  "list",
				Usage: "List contacts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "stage", Aliases: []string{"s"}, Usage: "Only this pipeline stage"},
					&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					contacts, err := e.svc.ListContacts(c.Context, e.user, c.String("stage"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(c, contacts)
					}
					return printContacts(c, contacts)
				}),
			},
			{
				Name:      "show",
				Usage:     "Show one contact",
				ArgsUsage: "<id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "contact id")
					if err != nil {
						return err
					}
					contact, err := e.svc.GetContact(c.Context, e.user, id)
					if err != nil {
						return err
					}
					return outputJSON(c, contact)
				}),
			},
			{
				Name:      "update",
				Usage:     "Update contact fields; pass an empty value to clear one",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Contact name"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "birthday", Usage: "YYYY-MM-DD or MM-DD"},
					&cli.StringFlag{Name: "notes", Usage: "Notes"},
					&cli.StringFlag{Name: "stage", Usage: "Pipeline stage; next due is recomputed from the last contact date"},
					&cli.StringFlag{Name: "last-contact", Usage: "Last contact date"},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "contact id")
					if err != nil {
						return err
					}
					upd := models.ContactUpdate{
						Name:            flagField(c, "name"),
						Email:           flagField(c, "email"),
						Phone:           flagField(c, "phone"),
						Birthday:        flagField(c, "birthday"),
						Notes:           flagField(c, "notes"),
						PipelineStage:   flagField(c, "stage"),
						LastContactDate: flagField(c, "last-contact"),
					}
					contact, err := e.svc.UpdateContact(c.Context, e.user, id, upd)
					if err != nil {
						return err
					}
					return outputJSON(c, contact)
				}),
			},
			{
				Name:      "move",
				Usage:     "Move a contact to another stage, scheduling from today",
				ArgsUsage: "<id> <stage>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					if c.NArg() != 2 {
						return cli.Exit("usage: synchro contacts move <id> <stage>", 2)
					}
					contact, err := e.svc.MoveStage(c.Context, e.user, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					return outputJSON(c, contact)
				}),
			},
			{
				Name:      "history",
				Usage:     "List a contact's interactions, newest first",
				ArgsUsage: "<id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "contact id")
					if err != nil {
						return err
					}
					interactions, err := e.svc.ListInteractions(c.Context, e.user, id)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					_, _ = fmt.Fprintln(w, "DATE\tTYPE\tNOTES")
					for _, i := range interactions {
						_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", i.Date.Format(models.DateLayout), i.InteractionType, i.Notes)
					}
					return w.Flush()
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a contact with its interactions and drafts",
				ArgsUsage: "<id>",
				Action: withEnv(func(c *cli.Context, e *env) error {
					id, err := requireArg(c, "contact id")
					if err != nil {
						return err
					}
					if err := e.svc.DeleteContact(c.Context, e.user, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(c.App.Writer, "Deleted contact %s\n", id)
					return err
				}),
			},
		},
	}
}

func logCmd() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Log an interaction and reschedule the contact",
		ArgsUsage: "<contact-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: models.InteractionOther, Usage: "Personal Meeting, Phone Call, Email, WhatsApp, Scheduled Meeting or Other"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "When it happened (defaults to now)"},
			&cli.StringFlag{Name: "notes", Usage: "What you talked about"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			id, err := requireArg(c, "contact id")
			if err != nil {
				return err
			}
			_, contact, err := e.svc.LogInteraction(c.Context, e.user, id, models.NewInteraction{
				InteractionType: c.String("type"),
				Date:            c.String("date"),
				Notes:           c.String("notes"),
			})
			if err != nil {
				return err
			}
			next := "never (stage New)"
			if contact.NextDue != nil {
				next = contact.NextDue.Format(models.DateLayout)
			}
			_, err = fmt.Fprintf(c.App.Writer, "✓ Logged %s with %s, next due %s\n", c.String("type"), contact.Name, next)
			return err
		}),
	}
}

func stagesCmd() *cli.Command {
	return &cli.Command{
		Name:  "stages",
		Usage: "Show the effective pipeline stage table",
		Action: withEnv(func(c *cli.Context, e *env) error {
			stages, err := e.svc.Stages(c.Context, e.user)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "STAGE\tINTERVAL\tRANDOMIZE\tVARIATION")
			for _, s := range stages {
				_, _ = fmt.Fprintf(w, "%s\t%dd\t%t\t%d\n", s.Name, s.IntervalDays, s.Randomize, s.RandomVariation)
			}
			return w.Flush()
		}),
	}
}

// flagField turns an optional flag into a partial-update field: unset flags are
// unchanged and empty values clear.
func flagField(c *cli.Context, name string) models.Field[string] {
	if !c.IsSet(name) {
		return models.Field[string]{}
	}
	if v := c.String(name); v != "" {
		return models.Set(v)
	}
	return models.Clear[string]()
}

func printContacts(c *cli.Context, contacts []models.Contact) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTAGE\tNEXT DUE\tEMAIL\tID")
	for _, ct := range contacts {
		next := "-"
		if ct.NextDue != nil {
			next = ct.NextDue.Format(models.DateLayout)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ct.Name, ct.PipelineStage, next, ct.Email, ct.ID)
	}
	return w.Flush()
}
