// ABOUTME: MCP resource handlers for exposing relationship data
// ABOUTME: Provides read-only access to contacts, pending drafts, stages and the digest via synchro:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

const uriScheme = "synchro://"

type ResourceHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewResourceHandlers(svc *lifecycle.Service, userID string) *ResourceHandlers {
	return &ResourceHandlers{svc: svc, userID: userID}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	var (
		data any
		err  error
	)
	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			data, err = h.svc.ListContacts(ctx, h.userID, "")
		} else {
			data, err = h.svc.GetContact(ctx, h.userID, parts[1])
		}
	case "drafts":
		data, err = h.svc.ListDrafts(ctx, h.userID, models.DraftPending)
	case "stages":
		data, err = h.svc.Stages(ctx, h.userID)
	case "briefing":
		data, err = h.svc.Digest(ctx, h.userID)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}}, nil
}

// Register exposes the fixed resources and the per-contact template.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	for _, r := range []*mcp.Resource{
		{URI: uriScheme + "contacts", Name: "contacts", Description: "All contacts with their cadence state", MIMEType: "application/json"},
		{URI: uriScheme + "drafts", Name: "drafts", Description: "Pending outreach drafts", MIMEType: "application/json"},
		{URI: uriScheme + "stages", Name: "stages", Description: "Effective pipeline stage table", MIMEType: "application/json"},
		{URI: uriScheme + "briefing", Name: "briefing", Description: "Today's digest of due contacts, birthdays and events", MIMEType: "application/json"},
	} {
		server.AddResource(r, h.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "contacts/{id}",
		Name:        "contact",
		Description: "A single contact",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
