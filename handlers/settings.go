// ABOUTME: Settings MCP tool handlers
// ABOUTME: Reads the effective cadence table and edits custom stages
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/synchro/lifecycle"
	"github.com/harperreed/synchro/models"
)

type SettingsHandlers struct {
	svc    *lifecycle.Service
	userID string
}

func NewSettingsHandlers(svc *lifecycle.Service, userID string) *SettingsHandlers {
	return &SettingsHandlers{svc: svc, userID: userID}
}

type StageOutput struct {
	Name            string `json:"name"`
	IntervalDays    int    `json:"interval_days"`
	Randomize       bool   `json:"randomize"`
	RandomVariation int    `json:"random_variation"`
}

type SettingsOutput struct {
	WritingStyleSample string        `json:"writing_style_sample"`
	NotificationTime   string        `json:"notification_time"`
	CustomStages       []StageOutput `json:"custom_stages"`
	EffectiveStages    []StageOutput `json:"effective_stages"`
}

type GetSettingsInput struct{}

func (h *SettingsHandlers) GetSettings(ctx context.Context, request *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, SettingsOutput, error) {
	out, err := h.load(ctx)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, out, nil
}

type StageInput struct {
	Name            string `json:"name" jsonschema:"Stage name"`
	IntervalDays    int    `json:"interval_days" jsonschema:"Days between contacts"`
	Randomize       bool   `json:"randomize,omitempty" jsonschema:"Spread due dates randomly"`
	RandomVariation int    `json:"random_variation,omitempty" jsonschema:"Maximum days of spread when randomize is set"`
}

type UpdateSettingsInput struct {
	WritingStyleSample *string       `json:"writing_style_sample,omitempty" jsonschema:"Sample message in your voice (empty string restores the default)"`
	NotificationTime   *string       `json:"notification_time,omitempty" jsonschema:"Briefing time as HH:MM"`
	PipelineStages     *[]StageInput `json:"pipeline_stages,omitempty" jsonschema:"Replaces all custom stages; contacts in removed custom stages return to New"`
}

func (h *SettingsHandlers) UpdateSettings(ctx context.Context, request *mcp.CallToolRequest, input UpdateSettingsInput) (*mcp.CallToolResult, SettingsOutput, error) {
	upd := models.SettingsUpdate{
		WritingStyleSample: optional(input.WritingStyleSample),
		NotificationTime:   optional(input.NotificationTime),
	}
	if input.PipelineStages != nil {
		stages := make([]models.PipelineStage, len(*input.PipelineStages))
		for i, s := range *input.PipelineStages {
			stages[i] = models.PipelineStage(s)
		}
		upd.PipelineStages = models.Set(stages)
	}

	if _, err := h.svc.UpdateSettings(ctx, h.userID, upd); err != nil {
		return nil, SettingsOutput{}, fmt.Errorf("failed to update settings: %w", err)
	}
	out, err := h.load(ctx)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, out, nil
}

func (h *SettingsHandlers) load(ctx context.Context) (SettingsOutput, error) {
	settings, err := h.svc.GetSettings(ctx, h.userID)
	if err != nil {
		return SettingsOutput{}, fmt.Errorf("failed to get settings: %w", err)
	}
	stages, err := h.svc.Stages(ctx, h.userID)
	if err != nil {
		return SettingsOutput{}, fmt.Errorf("failed to get stages: %w", err)
	}
	return SettingsOutput{
		WritingStyleSample: settings.WritingStyleSample,
		NotificationTime:   settings.NotificationTime,
		CustomStages:       stagesToOutput(settings.PipelineStages),
		EffectiveStages:    stagesToOutput(stages),
	}, nil
}

func stagesToOutput(stages []models.PipelineStage) []StageOutput {
	out := make([]StageOutput, len(stages))
	for i, s := range stages {
		out[i] = StageOutput(s)
	}
	return out
}
