// ABOUTME: Outreach message drafting contract and deterministic fallback
// ABOUTME: Builds the prompt from contact profile, style hints and recent interactions
package drafter

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/synchro/models"
)

// StyleHints steer the generated message. Screenshots are base64 images or data URLs
// of past conversations whose style should be imitated.
type StyleHints struct {
	Screenshots []string `json:"screenshots,omitempty"`
	ExampleText string   `json:"example_text,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Language    string   `json:"language,omitempty"`
}

// Request is everything a generator may use to write one message.
type Request struct {
	Contact      models.Contact
	WritingStyle string
	Hints        StyleHints
	History      []models.Interaction
}

// Generator produces a message. Implementations must not fail: any error or
// timeout degrades to Fallback. The bool reports whether the text came from a model.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, bool)
}

// Fallback is the fixed reconnection message used when generation is unavailable.
func Fallback(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hey %s! It's been a while - would love to catch up soon. How have you been?", name)
}

// Static always returns the fallback. It is used when no model is configured.
type Static struct{}

func (Static) Generate(_ context.Context, req Request) (string, bool) {
	return Fallback(req.Contact.Name), false
}

const systemPrompt = "You are helping write reconnection messages. Write casual, warm messages that sound natural and personal."

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) string {
	c := req.Contact
	var ctx []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			ctx = append(ctx, fmt.Sprintf("%s: %s", label, v))
		}
	}
	add("Contact", c.Name)
	add("Job", c.Job)
	add("Location", c.Location)
	add("Education", c.AcademicDegree)
	add("Hobbies", c.Hobbies)
	add("Favorite Food", c.FavoriteFood)
	add("How we met", c.HowWeMet)
	add("Notes", c.Notes)
	if c.LastContactDate != nil {
		add("Last contact", c.LastContactDate.Format(models.DateLayout))
	}

	tone := firstNonEmpty(req.Hints.Tone, c.Tone, "Casual")
	language := firstNonEmpty(req.Hints.Language, c.Language, "English")
	example := firstNonEmpty(req.Hints.ExampleText, c.ExampleMessage, req.WritingStyle)

	name := c.Name
	if strings.TrimSpace(name) == "" {
		name = "this person"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a brief, warm reconnection message to %s.\n\n", name)
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(ctx, "\n"))
	b.WriteString("\n")

	if len(req.History) > 0 {
		b.WriteString("\nRecent interactions (newest first):\n")
		for _, i := range req.History {
			line := fmt.Sprintf("- %s, %s", i.Date.Format(models.DateLayout), i.InteractionType)
			if n := strings.TrimSpace(i.Notes); n != "" {
				line += ": " + n
			}
			b.WriteString(line + "\n")
		}
	}

	if example != "" {
		fmt.Fprintf(&b, "\nUser's writing style example:\n%q\n", example)
	}
	if len(req.Hints.Screenshots) > 0 {
		b.WriteString("\nThe attached screenshots show past conversations; match their style.\n")
	}

	fmt.Fprintf(&b, "\nWrite a short message (2-3 sentences) in %s with a %s tone that:\n", language, strings.ToLower(tone))
	b.WriteString("- Feels natural and personal\n")
	b.WriteString("- References something from the context if available\n")
	b.WriteString("- Mimics the user's writing style\n")
	b.WriteString("- Suggests catching up\n")
	b.WriteString("\nJust write the message, no extra explanation.")

	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
