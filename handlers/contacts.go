// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add/find/get/update/move/delete contact and interaction logging tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

const timeLayout = time.RFC3339

type ContactHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewContactHandlers(svc *lifecycle.Service, userID string) *ContactHandlers {
	return &ContactHandlers{svc: svc, userID: userID}
}

type AddContactInput struct {
	Name            string   `json:"name" jsonschema:"Contact name (required)"`
	Email           string   `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone           string   `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Job             string   `json:"job,omitempty" jsonschema:"What the contact does for a living"`
	Location        string   `json:"location,omitempty" jsonschema:"Where the contact lives"`
	Birthday        string   `json:"birthday,omitempty" jsonschema:"Birthday as YYYY-MM-DD or MM-DD"`
	HowWeMet        string   `json:"how_we_met,omitempty" jsonschema:"How you met this person"`
	Notes           string   `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
	PipelineStage   string   `json:"pipeline_stage,omitempty" jsonschema:"Cadence stage such as Weekly or Monthly (defaults to Monthly; New is never scheduled)"`
	LastContactDate string   `json:"last_contact_date,omitempty" jsonschema:"When you last spoke (ISO 8601, defaults to now)"`
	Groups          []string `json:"groups,omitempty" jsonschema:"Group IDs to add the contact to"`
}

type ContactOutput struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Job                string   `json:"job,omitempty"`
	Location           string   `json:"location,omitempty"`
	Birthday           string   `json:"birthday,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	Groups             []string `json:"groups"`
	PipelineStage      string   `json:"pipeline_stage"`
	TargetIntervalDays int      `json:"target_interval_days"`
	LastContactDate    *string  `json:"last_contact_date,omitempty"`
	NextDue            *string  `json:"next_due,omitempty"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	in := models.NewContact{
		Name:          strings.TrimSpace(input.Name),
		Email:         input.Email,
		Phone:         input.Phone,
		Job:           input.Job,
		Location:      input.Location,
		Birthday:      input.Birthday,
		HowWeMet:      input.HowWeMet,
		Notes:         input.Notes,
		PipelineStage: input.PipelineStage,
		Groups:        input.Groups,
	}
	if input.LastContactDate != "" {
		in.LastContactDate = &input.LastContactDate
	}

	contact, err := h.svc.CreateContact(ctx, h.userID, in)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type FindContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (matches name, email and notes)"`
	Stage string `json:"stage,omitempty" jsonschema:"Only contacts in this pipeline stage"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	contacts, err := h.svc.ListContacts(ctx, h.userID, input.Stage)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	result := []ContactOutput{}
	for i := range contacts {
		if query != "" && !matches(&contacts[i], query) {
			continue
		}
		result = append(result, contactToOutput(&contacts[i]))
		if len(result) == limit {
			break
		}
	}
	return nil, FindContactsOutput{Contacts: result}, nil
}

func matches(c *models.Contact, query string) bool {
	for _, field := range []string{c.Name, c.Email, c.Notes} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

type ContactIDInput struct {
	ID string `json:"id" jsonschema:"Contact ID (required)"`
}

func (h *ContactHandlers) GetContact(ctx context.Context, request *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.svc.GetContact(ctx, h.userID, input.ID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to get contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type UpdateContactInput struct {
	ID              string  `json:"id" jsonschema:"Contact ID (required)"`
	Name            *string `json:"name,omitempty" jsonschema:"Updated contact name"`
	Email           *string `json:"email,omitempty" jsonschema:"Updated email address (empty string clears it)"`
	Phone           *string `json:"phone,omitempty" jsonschema:"Updated phone number (empty string clears it)"`
	Job             *string `json:"job,omitempty" jsonschema:"Updated job"`
	Location        *string `json:"location,omitempty" jsonschema:"Updated location"`
	Birthday        *string `json:"birthday,omitempty" jsonschema:"Updated birthday (YYYY-MM-DD or MM-DD)"`
	Notes           *string `json:"notes,omitempty" jsonschema:"Updated notes"`
	PipelineStage   *string `json:"pipeline_stage,omitempty" jsonschema:"New pipeline stage; recomputes next due from the last contact date"`
	LastContactDate *string `json:"last_contact_date,omitempty" jsonschema:"Updated last contact date (ISO 8601, empty string clears it)"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == "" {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	upd := models.ContactUpdate{
		Name:            optional(input.Name),
		Email:           optional(input.Email),
		Phone:           optional(input.Phone),
		Job:             optional(input.Job),
		Location:        optional(input.Location),
		Birthday:        optional(input.Birthday),
		Notes:           optional(input.Notes),
		PipelineStage:   optional(input.PipelineStage),
		LastContactDate: optional(input.LastContactDate),
	}

	contact, err := h.svc.UpdateContact(ctx, h.userID, input.ID, upd)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

// optional maps a tool argument onto a partial-update field: absent is
// unchanged and an empty string clears.
func optional(v *string) models.Field[string] {
	switch {
	case v == nil:
		return models.Field[string]{}
	case *v == "":
		return models.Clear[string]()
	default:
		return models.Set(*v)
	}
}

type MoveStageInput struct {
	ID            string `json:"id" jsonschema:"Contact ID (required)"`
	PipelineStage string `json:"pipeline_stage" jsonschema:"Target pipeline stage (required); the next due date is computed from today"`
}

func (h *ContactHandlers) MoveStage(ctx context.Context, request *mcp.CallToolRequest, input MoveStageInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.svc.MoveStage(ctx, h.userID, input.ID, input.PipelineStage)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to move contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type DeleteContactOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, request *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, DeleteContactOutput, error) {
	if err := h.svc.DeleteContact(ctx, h.userID, input.ID); err != nil {
		return nil, DeleteContactOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteContactOutput{
		Success: true,
		Message: fmt.Sprintf("Deleted contact: %s", input.ID),
	}, nil
}

type LogInteractionInput struct {
	ContactID       string `json:"contact_id" jsonschema:"Contact ID (required)"`
	InteractionType string `json:"interaction_type,omitempty" jsonschema:"One of Personal Meeting, Phone Call, Email, WhatsApp, Scheduled Meeting or Other (defaults to Other)"`
	Note            string `json:"note,omitempty" jsonschema:"Note about the interaction"`
	InteractionDate string `json:"interaction_date,omitempty" jsonschema:"Date of interaction (ISO 8601 format, defaults to now)"`
}

type InteractionOutput struct {
	ID              string `json:"id"`
	ContactID       string `json:"contact_id"`
	InteractionType string `json:"interaction_type"`
	Date            string `json:"date"`
	Notes           string `json:"notes,omitempty"`
	EventID         string `json:"event_id,omitempty"`
}

type LogInteractionOutput struct {
	Interaction InteractionOutput `json:"interaction"`
	Contact     ContactOutput     `json:"contact"`
}

func (h *ContactHandlers) LogInteraction(ctx context.Context, request *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, LogInteractionOutput, error) {
	if input.ContactID == "" {
		return nil, LogInteractionOutput{}, fmt.Errorf("contact_id is required")
	}
	typ := input.InteractionType
	if typ == "" {
		typ = models.InteractionOther
	}

	interaction, contact, err := h.svc.LogInteraction(ctx, h.userID, input.ContactID, models.NewInteraction{
		InteractionType: typ,
		Date:            input.InteractionDate,
		Notes:           input.Note,
	})
	if err != nil {
		return nil, LogInteractionOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil, LogInteractionOutput{
		Interaction: interactionToOutput(interaction),
		Contact:     contactToOutput(contact),
	}, nil
}

type ListInteractionsInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
}

type ListInteractionsOutput struct {
	Interactions []InteractionOutput `json:"interactions"`
}

func (h *ContactHandlers) ListInteractions(ctx context.Context, request *mcp.CallToolRequest, input ListInteractionsInput) (*mcp.CallToolResult, ListInteractionsOutput, error) {
	interactions, err := h.svc.ListInteractions(ctx, h.userID, input.ContactID)
	if err != nil {
		return nil, ListInteractionsOutput{}, fmt.Errorf("failed to list interactions: %w", err)
	}
	result := make([]InteractionOutput, len(interactions))
	for i := range interactions {
		result[i] = interactionToOutput(&interactions[i])
	}
	return nil, ListInteractionsOutput{Interactions: result}, nil
}

func contactToOutput(contact *models.Contact) ContactOutput {
	output := ContactOutput{
		ID:                 contact.ID.String(),
		Name:               contact.Name,
		Email:              contact.Email,
		Phone:              contact.Phone,
		Job:                contact.Job,
		Location:           contact.Location,
		Birthday:           contact.Birthday,
		Notes:              contact.Notes,
		Groups:             contact.Groups,
		PipelineStage:      contact.PipelineStage,
		TargetIntervalDays: contact.TargetIntervalDays,
		CreatedAt:          contact.CreatedAt.Format(timeLayout),
		UpdatedAt:          contact.UpdatedAt.Format(timeLayout),
	}
	if output.Groups == nil {
		output.Groups = []string{}
	}
	output.LastContactDate = formatOptional(contact.LastContactDate)
	output.NextDue = formatOptional(contact.NextDue)
	return output
}

func interactionToOutput(i *models.Interaction) InteractionOutput {
	return InteractionOutput{
		ID:              i.ID,
		ContactID:       i.ContactID.String(),
		InteractionType: i.InteractionType,
		Date:            i.Date.Format(timeLayout),
		Notes:           i.Notes,
		EventID:         i.EventID,
	}
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}
