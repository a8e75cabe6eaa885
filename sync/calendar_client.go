// ABOUTME: Calendar API client setup for Google Calendar integration
// ABOUTME: Creates an authenticated Calendar service from a stored OAuth token
package sync

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarClient creates a Calendar service that refreshes the token at
// tokenPath as needed and writes the refreshed token back.
func NewCalendarClient(ctx context.Context, cfg *oauth2.Config, tokenPath string) (*calendar.Service, error) {
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, err
	}

	src := &persistingSource{
		base: cfg.TokenSource(ctx, token),
		path: tokenPath,
		last: token.AccessToken,
	}
	return newCalendarService(ctx, oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src)))
}

func newCalendarService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*calendar.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}
