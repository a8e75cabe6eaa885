// ABOUTME: Draft and briefing MCP tool handlers
// ABOUTME: Generates outreach drafts, resolves them, and reports who is due
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/briefing"
	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

type DraftHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewDraftHandlers(svc *lifecycle.Service, userID string) *DraftHandlers {
	return &DraftHandlers{svc: svc, userID: userID}
}

type GenerateDraftInput struct {
	ContactID   string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Tone        string `json:"tone,omitempty" jsonschema:"Tone of the message, e.g. Casual or Professional"`
	Language    string `json:"language,omitempty" jsonschema:"Language to write in"`
	ExampleText string `json:"example_text,omitempty" jsonschema:"A message whose style should be imitated"`
}

type DraftOutput struct {
	ID           string  `json:"id"`
	ContactID    string  `json:"contact_id"`
	ContactName  string  `json:"contact_name"`
	DraftMessage string  `json:"draft_message"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	ResolvedAt   *string `json:"resolved_at,omitempty"`
}

func (h *DraftHandlers) GenerateDraft(ctx context.Context, request *mcp.CallToolRequest, input GenerateDraftInput) (*mcp.CallToolResult, DraftOutput, error) {
	if input.ContactID == "" {
		return nil, DraftOutput{}, fmt.Errorf("contact_id is required")
	}
	draft, err := h.svc.GenerateDraft(ctx, h.userID, input.ContactID, drafter.StyleHints{
		Tone:        input.Tone,
		Language:    input.Language,
		ExampleText: input.ExampleText,
	})
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to generate draft: %w", err)
	}
	return nil, draftToOutput(draft), nil
}

type ListDraftsInput struct {
	Status string `json:"status,omitempty" jsonschema:"pending (default), sent or dismissed"`
}

type ListDraftsOutput struct {
	Drafts []DraftOutput `json:"drafts"`
}

func (h *DraftHandlers) ListDrafts(ctx context.Context, request *mcp.CallToolRequest, input ListDraftsInput) (*mcp.CallToolResult, ListDraftsOutput, error) {
	drafts, err := h.svc.ListDrafts(ctx, h.userID, input.Status)
	if err != nil {
		return nil, ListDraftsOutput{}, fmt.Errorf("failed to list drafts: %w", err)
	}
	result := make([]DraftOutput, len(drafts))
	for i := range drafts {
		result[i] = draftToOutput(&drafts[i])
	}
	return nil, ListDraftsOutput{Drafts: result}, nil
}

type DraftIDInput struct {
	ID string `json:"id" jsonschema:"Draft ID (required)"`
}

type MarkDraftSentOutput struct {
	Draft   DraftOutput    `json:"draft"`
	Contact *ContactOutput `json:"contact,omitempty"`
}

func (h *DraftHandlers) MarkDraftSent(ctx context.Context, request *mcp.CallToolRequest, input DraftIDInput) (*mcp.CallToolResult, MarkDraftSentOutput, error) {
	draft, contact, err := h.svc.MarkDraftSent(ctx, h.userID, input.ID)
	if err != nil {
		return nil, MarkDraftSentOutput{}, fmt.Errorf("failed to mark draft sent: %w", err)
	}
	out := MarkDraftSentOutput{Draft: draftToOutput(draft)}
	if contact != nil {
		c := contactToOutput(contact)
		out.Contact = &c
	}
	return nil, out, nil
}

func (h *DraftHandlers) DismissDraft(ctx context.Context, request *mcp.CallToolRequest, input DraftIDInput) (*mcp.CallToolResult, DraftOutput, error) {
	draft, err := h.svc.DismissDraft(ctx, h.userID, input.ID)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("failed to dismiss draft: %w", err)
	}
	return nil, draftToOutput(draft), nil
}

type BriefingInput struct{}

type DueContactOutput struct {
	Contact   ContactOutput `json:"contact"`
	DaysUntil int           `json:"days_until"`
}

type DigestOutput struct {
	GeneratedAt       string             `json:"generated_at"`
	Overdue           []DueContactOutput `json:"overdue"`
	DueToday          []DueContactOutput `json:"due_today"`
	DueThisWeek       []DueContactOutput `json:"due_this_week"`
	BirthdaysToday    []DueContactOutput `json:"birthdays_today"`
	UpcomingBirthdays []DueContactOutput `json:"upcoming_birthdays"`
	TodayEvents       []EventOutput      `json:"today_events"`
	WeekEvents        []EventOutput      `json:"week_events"`
	Stats             briefing.Stats     `json:"stats"`
}

func (h *DraftHandlers) DueContacts(ctx context.Context, request *mcp.CallToolRequest, input BriefingInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	contacts, err := h.svc.Briefing(ctx, h.userID)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to load briefing: %w", err)
	}
	result := make([]ContactOutput, len(contacts))
	for i := range contacts {
		result[i] = contactToOutput(&contacts[i])
	}
	return nil, FindContactsOutput{Contacts: result}, nil
}

func (h *DraftHandlers) DailyDigest(ctx context.Context, request *mcp.CallToolRequest, input BriefingInput) (*mcp.CallToolResult, DigestOutput, error) {
	d, err := h.svc.Digest(ctx, h.userID)
	if err != nil {
		return nil, DigestOutput{}, fmt.Errorf("failed to build digest: %w", err)
	}
	return nil, digestToOutput(d), nil
}

func digestToOutput(d *briefing.Digest) DigestOutput {
	return DigestOutput{
		GeneratedAt:       d.GeneratedAt.Format(timeLayout),
		Overdue:           entriesToOutput(d.Overdue),
		DueToday:          entriesToOutput(d.DueToday),
		DueThisWeek:       entriesToOutput(d.DueThisWeek),
		BirthdaysToday:    entriesToOutput(d.BirthdaysToday),
		UpcomingBirthdays: entriesToOutput(d.UpcomingBirthdays),
		TodayEvents:       eventsToOutput(d.TodayEvents),
		WeekEvents:        eventsToOutput(d.WeekEvents),
		Stats:             d.Stats,
	}
}

func entriesToOutput(entries []briefing.Entry) []DueContactOutput {
	out := make([]DueContactOutput, len(entries))
	for i := range entries {
		out[i] = DueContactOutput{Contact: contactToOutput(&entries[i].Contact), DaysUntil: entries[i].DaysUntil}
	}
	return out
}

func draftToOutput(d *models.Draft) DraftOutput {
	return DraftOutput{
		ID:           d.ID.String(),
		ContactID:    d.ContactID.String(),
		ContactName:  d.ContactName,
		DraftMessage: d.DraftMessage,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt.Format(timeLayout),
		ResolvedAt:   formatOptional(d.ResolvedAt),
	}
}
