// ABOUTME: Tests for the drafting collaborator
// ABOUTME: Uses an httptest server in place of the OpenAI API
package drafter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/models"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func completionHandler(t *testing.T, content string, seen *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":` + mustJSON(content) + `},"finish_reason":"stop"}]}`))
	}
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func request(name string) Request {
	return Request{
		Contact: models.Contact{ID: uuid.New(), Name: name, Job: "Pilot", FavoriteFood: "Ramen", Tone: "Friendly"},
	}
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "Hey Ada! It's been a while - would love to catch up soon. How have you been?", Fallback("Ada"))
	assert.Equal(t, "Hey there! It's been a while - would love to catch up soon. How have you been?", Fallback("  "))
}

func TestStaticGenerator(t *testing.T) {
	text, ok := Static{}.Generate(context.Background(), request("Ada"))
	assert.False(t, ok)
	assert.Equal(t, Fallback("Ada"), text)

	assert.IsType(t, Static{}, New(OpenAIConfig{}, testLogger()))
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(completionHandler(t, "  Hey Ada, ramen soon?  ", &body))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"}, testLogger())
	text, ok := g.Generate(context.Background(), request("Ada"))

	assert.True(t, ok)
	assert.Equal(t, "Hey Ada, ramen soon?", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])

	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 2)
	user, _ := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "Favorite Food: Ramen")
}

func TestOpenAIScreenshotsBecomeImageParts(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(completionHandler(t, "hi", &body))
	defer srv.Close()

	req := request("Ada")
	req.Hints.Screenshots = []string{"aGVsbG8=", "data:image/png;base64,aGk="}

	g := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	_, ok := g.Generate(context.Background(), req)
	require.True(t, ok)

	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 2)
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	require.Len(t, parts, 3)

	img, _ := parts[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	url, _ := img["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", url["url"])
}

func TestOpenAIFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	text, ok := g.Generate(context.Background(), request("Ada"))
	assert.False(t, ok)
	assert.Equal(t, Fallback("Ada"), text)
}

func TestOpenAIFallsBackOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond}, testLogger())

	start := time.Now()
	text, ok := g.Generate(context.Background(), request(""))
	assert.False(t, ok)
	assert.Equal(t, Fallback(""), text)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestOpenAIFallsBackOnEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, "   ", nil))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, testLogger())
	text, ok := g.Generate(context.Background(), request("Ada"))
	assert.False(t, ok)
	assert.Equal(t, Fallback("Ada"), text)
}

func TestBuildPrompt(t *testing.T) {
	last := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	req := request("Ada")
	req.Contact.LastContactDate = &last
	req.WritingStyle = "yo! long time"
	req.History = []models.Interaction{
		{InteractionType: models.InteractionPhoneCall, Date: last, Notes: "talked about her new plane"},
	}

	p := BuildPrompt(req)
	assert.Contains(t, p, "Write a brief, warm reconnection message to Ada.")
	assert.Contains(t, p, "Job: Pilot")
	assert.Contains(t, p, "Last contact: 2025-02-01")
	assert.Contains(t, p, "- 2025-02-01, Phone Call: talked about her new plane")
	assert.Contains(t, p, `"yo! long time"`)
	assert.Contains(t, p, "in English with a friendly tone")

	req.Hints = StyleHints{Tone: "Professional", Language: "German", ExampleText: "Guten Tag"}
	p = BuildPrompt(req)
	assert.Contains(t, p, "in German with a professional tone")
	assert.Contains(t, p, `"Guten Tag"`)
	assert.NotContains(t, p, "yo! long time")
}
