// ABOUTME: MCP prompt handlers for reusable relationship workflow templates
// ABOUTME: Contact summaries and a reconnect plan built from today's digest
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

type PromptHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewPromptHandlers(svc *lifecycle.Service, userID string) *PromptHandlers {
	return &PromptHandlers{svc: svc, userID: userID}
}

// Register adds every prompt to server.
func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact and suggest how to reconnect",
		Arguments: []*mcp.PromptArgument{
			{Name: "contact_id", Description: "Contact ID", Required: true},
		},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "reconnect-plan",
		Description: "Plan today's outreach from overdue and due contacts",
	}, h.GetPrompt)
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "contact-summary":
		return h.contactSummary(ctx, request.Params.Arguments)
	case "reconnect-plan":
		return h.reconnectPlan(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) contactSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["contact_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("contact_id is required")
	}

	contact, err := h.svc.GetContact(ctx, h.userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	interactions, err := h.svc.ListInteractions(ctx, h.userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please provide a summary of this contact:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", contact.Name)
	writeIf(&b, "Job", contact.Job)
	writeIf(&b, "Location", contact.Location)
	writeIf(&b, "Hobbies", contact.Hobbies)
	writeIf(&b, "How we met", contact.HowWeMet)
	fmt.Fprintf(&b, "Stage: %s\n", contact.PipelineStage)
	if contact.LastContactDate != nil {
		fmt.Fprintf(&b, "Last contacted: %s\n", contact.LastContactDate.Format(models.DateLayout))
	}
	if contact.NextDue != nil {
		fmt.Fprintf(&b, "Next due: %s\n", contact.NextDue.Format(models.DateLayout))
	}
	if contact.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", contact.Notes)
	}
	if len(interactions) > 0 {
		b.WriteString("\nRecent interactions:\n")
		for i, in := range interactions {
			if i == lifecycle.HistoryLimit {
				break
			}
			fmt.Fprintf(&b, "- %s %s", in.Date.Format(models.DateLayout), in.InteractionType)
			if in.Notes != "" {
				fmt.Fprintf(&b, ": %s", in.Notes)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. A short summary of who they are")
	b.WriteString("\n2. Topics worth bringing up next time")
	b.WriteString("\n3. Whether the current stage fits how often you actually talk")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.Name), b.String()), nil
}

func (h *PromptHandlers) reconnectPlan(ctx context.Context) (*mcp.GetPromptResult, error) {
	d, err := h.svc.Digest(ctx, h.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build digest: %w", err)
	}

	var b strings.Builder
	b.WriteString("Help me plan today's outreach.\n")
	section := func(title string, n int, lines func()) {
		if n == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", title, n)
		lines()
	}
	section("Overdue", len(d.Overdue), func() {
		for _, e := range d.Overdue {
			fmt.Fprintf(&b, "- %s (%s, %d days late)\n", e.Contact.Name, e.Contact.PipelineStage, -e.DaysUntil)
		}
	})
	section("Due today", len(d.DueToday), func() {
		for _, e := range d.DueToday {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Contact.Name, e.Contact.PipelineStage)
		}
	})
	section("Birthdays today", len(d.BirthdaysToday), func() {
		for _, e := range d.BirthdaysToday {
			fmt.Fprintf(&b, "- %s\n", e.Contact.Name)
		}
	})
	section("Meetings today", len(d.TodayEvents), func() {
		for _, ev := range d.TodayEvents {
			fmt.Fprintf(&b, "- %s %s\n", ev.StartTime, ev.Title)
		}
	})
	if d.Stats.OverdueCount+d.Stats.DueTodayCount+d.Stats.BirthdaysTodayCount == 0 {
		b.WriteString("\nNobody is due today.\n")
	}
	b.WriteString("\nSuggest an order to reach out in and a one-line opener for each person.")

	return userPrompt("Today's reconnect plan", b.String()), nil
}

func writeIf(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
