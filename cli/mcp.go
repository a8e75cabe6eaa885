// ABOUTME: MCP server subcommand
// ABOUTME: Serves the contact tools, prompts and resources over stdio for Claude Desktop
package cli

import (
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/handlers"
)

func mcpCmd(version string) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio",
		Action: withEnv(func(c *cli.Context, e *env) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := newMCPServer(e, version)
			e.logger.Info("starting MCP server", "user", e.user, "db", e.cfg.DBPath)
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		}),
	}
}

// newMCPServer registers every tool, prompt and resource for the local user.
func newMCPServer(e *env, version string) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(e.svc, e.user)
	draftHandlers := handlers.NewDraftHandlers(e.svc, e.user)
	calendarHandlers := handlers.NewCalendarHandlers(e.svc, e.user)
	settingsHandlers := handlers.NewSettingsHandlers(e.svc, e.user)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "synchro",
		Version: version,
	}, nil)

	// Contacts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a contact. Stage defaults to New, which is never scheduled",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name, email or notes, optionally within one pipeline stage",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact",
		Description: "Get one contact by id",
	}, contactHandlers.GetContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update contact fields. Omitted fields are unchanged and empty strings clear",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_contact_stage",
		Description: "Move a contact to another pipeline stage and schedule the next contact from today",
	}, contactHandlers.MoveStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact together with its interactions and drafts",
	}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_interaction",
		Description: "Log a conversation with a contact and reschedule their next contact",
	}, contactHandlers.LogInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_interactions",
		Description: "List a contact's interactions, newest first",
	}, contactHandlers.ListInteractions)

	// Drafts and briefing
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_draft",
		Description: "Write a pending reconnection message for a contact",
	}, draftHandlers.GenerateDraft)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_drafts",
		Description: "List drafts by status (pending, sent or dismissed)",
	}, draftHandlers.ListDrafts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_draft_sent",
		Description: "Mark a pending draft as sent; this counts as contact and reschedules the contact",
	}, draftHandlers.MarkDraftSent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dismiss_draft",
		Description: "Dismiss a pending draft without contacting anyone",
	}, draftHandlers.DismissDraft)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "due_contacts",
		Description: "List scheduled contacts whose next contact is due or overdue",
	}, draftHandlers.DueContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "daily_digest",
		Description: "Morning briefing: overdue, due today, due this week, birthdays and meetings",
	}, draftHandlers.DailyDigest)

	// Calendar and groups
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_calendar_event",
		Description: "Create a calendar event; participants are rescheduled from the event start",
	}, calendarHandlers.CreateEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_calendar_events",
		Description: "List calendar events in a date range or for one contact",
	}, calendarHandlers.ListEvents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_calendar_event",
		Description: "Delete a calendar event",
	}, calendarHandlers.DeleteEvent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_group",
		Description: "Create a contact group",
	}, calendarHandlers.CreateGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_groups",
		Description: "List contact groups with member counts",
	}, calendarHandlers.ListGroups)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_contact_to_groups",
		Description: "Replace the set of groups a contact belongs to",
	}, calendarHandlers.MoveToGroups)

	// Settings
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Get writing style, notification time and the effective pipeline stages",
	}, settingsHandlers.GetSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_settings",
		Description: "Update settings. Custom stages override defaults by name; omitted fields are unchanged",
	}, settingsHandlers.UpdateSettings)

	handlers.NewPromptHandlers(e.svc, e.user).Register(server)
	handlers.NewResourceHandlers(e.svc, e.user).Register(server)

	return server
}
