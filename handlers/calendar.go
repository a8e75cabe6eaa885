// ABOUTME: Calendar event and group MCP tool handlers
// ABOUTME: Events with participants log Scheduled Meeting interactions on save
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

type CalendarHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewCalendarHandlers(svc *lifecycle.Service, userID string) *CalendarHandlers {
	return &CalendarHandlers{svc: svc, userID: userID}
}

type CreateEventInput struct {
	Title        string   `json:"title" jsonschema:"Event title (required)"`
	Description  string   `json:"description,omitempty" jsonschema:"Event description"`
	Date         string   `json:"date" jsonschema:"Event date as YYYY-MM-DD (required)"`
	StartTime    string   `json:"start_time,omitempty" jsonschema:"Start time as HH:MM"`
	EndTime      string   `json:"end_time,omitempty" jsonschema:"End time as HH:MM"`
	AllDay       bool     `json:"all_day,omitempty" jsonschema:"Whether the event lasts all day"`
	Participants []string `json:"participants,omitempty" jsonschema:"Contact IDs attending; each gets a Scheduled Meeting interaction"`
}

type EventOutput struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	AllDay       bool     `json:"all_day"`
	Participants []string `json:"participants"`
	Source       string   `json:"source"`
}

func (h *CalendarHandlers) CreateEvent(ctx context.Context, request *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, EventOutput, error) {
	event, err := h.svc.CreateEvent(ctx, h.userID, models.CalendarEventInput{
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		AllDay:       input.AllDay,
		Participants: input.Participants,
	})
	if err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to create event: %w", err)
	}
	return nil, eventToOutput(event), nil
}

type ListEventsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"First date to include (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Last date to include (YYYY-MM-DD)"`
	ContactID string `json:"contact_id,omitempty" jsonschema:"Only events this contact attends"`
}

type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
}

func (h *CalendarHandlers) ListEvents(ctx context.Context, request *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, ListEventsOutput, error) {
	var (
		events []models.CalendarEvent
		err    error
	)
	if input.ContactID != "" {
		events, err = h.svc.EventsForContact(ctx, h.userID, input.ContactID)
	} else {
		events, err = h.svc.ListEvents(ctx, h.userID, input.StartDate, input.EndDate)
	}
	if err != nil {
		return nil, ListEventsOutput{}, fmt.Errorf("failed to list events: %w", err)
	}
	return nil, ListEventsOutput{Events: eventsToOutput(events)}, nil
}

type EventIDInput struct {
	ID string `json:"id" jsonschema:"Event ID (required)"`
}

func (h *CalendarHandlers) DeleteEvent(ctx context.Context, request *mcp.CallToolRequest, input EventIDInput) (*mcp.CallToolResult, DeleteContactOutput, error) {
	if err := h.svc.DeleteEvent(ctx, h.userID, input.ID); err != nil {
		return nil, DeleteContactOutput{}, fmt.Errorf("failed to delete event: %w", err)
	}
	return nil, DeleteContactOutput{Success: true, Message: fmt.Sprintf("Deleted event: %s", input.ID)}, nil
}

type CreateGroupInput struct {
	Name        string `json:"name" jsonschema:"Group name (required)"`
	Description string `json:"description,omitempty" jsonschema:"What the group is for"`
	Color       string `json:"color,omitempty" jsonschema:"Display color"`
}

type GroupOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Color        string `json:"color,omitempty"`
	ContactCount int    `json:"contact_count"`
}

func (h *CalendarHandlers) CreateGroup(ctx context.Context, request *mcp.CallToolRequest, input CreateGroupInput) (*mcp.CallToolResult, GroupOutput, error) {
	g, err := h.svc.CreateGroup(ctx, h.userID, models.GroupInput{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
	})
	if err != nil {
		return nil, GroupOutput{}, fmt.Errorf("failed to create group: %w", err)
	}
	return nil, groupToOutput(g), nil
}

type ListGroupsInput struct{}

type ListGroupsOutput struct {
	Groups []GroupOutput `json:"groups"`
}

func (h *CalendarHandlers) ListGroups(ctx context.Context, request *mcp.CallToolRequest, input ListGroupsInput) (*mcp.CallToolResult, ListGroupsOutput, error) {
	groups, err := h.svc.ListGroups(ctx, h.userID)
	if err != nil {
		return nil, ListGroupsOutput{}, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]GroupOutput, len(groups))
	for i := range groups {
		out[i] = groupToOutput(&groups[i])
	}
	return nil, ListGroupsOutput{Groups: out}, nil
}

type MoveToGroupsInput struct {
	ContactID string   `json:"contact_id" jsonschema:"Contact ID (required)"`
	GroupIDs  []string `json:"group_ids" jsonschema:"The full set of groups the contact should belong to"`
}

func (h *CalendarHandlers) MoveToGroups(ctx context.Context, request *mcp.CallToolRequest, input MoveToGroupsInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.svc.MoveToGroups(ctx, h.userID, input.ContactID, input.GroupIDs)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to move contact to groups: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

func eventToOutput(e *models.CalendarEvent) EventOutput {
	out := EventOutput{
		ID:           e.ID.String(),
		Title:        e.Title,
		Description:  e.Description,
		Date:         e.Date,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		AllDay:       e.AllDay,
		Participants: make([]string, len(e.Participants)),
		Source:       e.Source,
	}
	for i, p := range e.Participants {
		out.Participants[i] = p.String()
	}
	return out
}

func eventsToOutput(events []models.CalendarEvent) []EventOutput {
	out := make([]EventOutput, len(events))
	for i := range events {
		out[i] = eventToOutput(&events[i])
	}
	return out
}

func groupToOutput(g *models.Group) GroupOutput {
	return GroupOutput{
		ID:           g.ID.String(),
		Name:         g.Name,
		Description:  g.Description,
		Color:        g.Color,
		ContactCount: g.ContactCount,
	}
}
