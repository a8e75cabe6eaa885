// ABOUTME: OpenAI-backed draft generator with a bounded per-call timeout
// ABOUTME: Sends screenshots as image parts; any failure returns the fallback message
package drafter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harperreed/synchro/metrics"
)

const (
	DefaultModel   = openai.GPT4oMini
	DefaultTimeout = 20 * time.Second
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *log.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *log.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// New returns an OpenAI generator when an API key is configured, otherwise Static.
func New(cfg OpenAIConfig, logger *log.Logger) Generator {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Static{}
	}
	return NewOpenAI(cfg, logger)
}

func (g *OpenAI) Generate(ctx context.Context, req Request) (string, bool) {
	start := time.Now()
	defer func() { metrics.DraftDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.complete(ctx, req)
	if err != nil {
		g.logger.Warn("draft generation failed, using fallback", "contact_id", req.Contact.ID, "err", err)
		return Fallback(req.Contact.Name), false
	}
	return text, true
}

func (g *OpenAI) complete(ctx context.Context, req Request) (string, error) {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	prompt := BuildPrompt(req)
	if len(req.Hints.Screenshots) == 0 {
		user.Content = prompt
	} else {
		user.MultiContent = []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
		for _, shot := range req.Hints.Screenshots {
			user.MultiContent = append(user.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: imageURL(shot), Detail: openai.ImageURLDetailLow},
			})
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			user,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

func imageURL(shot string) string {
	if strings.HasPrefix(shot, "data:") || strings.HasPrefix(shot, "http://") || strings.HasPrefix(shot, "https://") {
		return shot
	}
	return "data:image/jpeg;base64," + shot
}
