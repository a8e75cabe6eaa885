// ABOUTME: Google Calendar CLI commands
// ABOUTME: Handles OAuth setup, calendar import and sync status
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/harperreed/synchro/models"
	"github.com/harperreed/synchro/sync"
)

const (
	calendarService = "calendar"
	authTimeout     = 5 * time.Minute
)

func calendarCmd() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Import meetings from Google Calendar",
		Subcommands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authorize read-only access to Google Calendar",
				Action: withEnv(calendarAuth),
			},
			{
				Name:  "sync",
				Usage: "Import new and changed events; attendees you know are rescheduled",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "initial", Usage: "Ignore the stored sync token and import the last 6 months"},
				},
				Action: withEnv(calendarSync),
			},
			{
				Name:   "status",
				Usage:  "Show the last calendar sync",
				Action: withEnv(calendarStatus),
			},
		},
	}
}

func oauthConfig(e *env) (*oauth2.Config, error) {
	cfg, err := sync.NewOAuthConfig(e.cfg.GoogleClientID, e.cfg.GoogleClientSecret, e.cfg.GoogleRedirectURL)
	if errors.Is(err, sync.ErrNotConfigured) {
		return nil, cli.Exit("set SYNCHRO_GOOGLE_CLIENT_ID and SYNCHRO_GOOGLE_CLIENT_SECRET first", 1)
	}
	return cfg, err
}

func calendarAuth(c *cli.Context, e *env) error {
	cfg, err := oauthConfig(e)
	if err != nil {
		return err
	}
	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect url: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Context, authTimeout)
	defer cancel()

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- errors.New("oauth state mismatch")
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("no authorization code received: %s", q.Get("error"))
		default:
			_, _ = fmt.Fprintln(w, "Authorization successful! You can close this window.")
			codeCh <- q.Get("code")
		}
	})

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL := sync.AuthURL(cfg, state)
	_, _ = fmt.Fprintf(c.App.Writer, "Opening browser for Google OAuth...\n\nIf the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if err := openBrowser(authURL); err != nil {
		e.logger.Debug("could not open browser", "err", err)
	}

	select {
	case code := <-codeCh:
		if _, err := sync.Exchange(ctx, cfg, code, e.cfg.TokenPath); err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.App.Writer, "✓ Authenticated\n✓ Token saved to %s\n\nRun 'synchro calendar sync --initial' to import events.\n", e.cfg.TokenPath)
		return err
	case err := <-errCh:
		return fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("OAuth flow timed out: %w", ctx.Err())
	}
}

func calendarSync(c *cli.Context, e *env) error {
	cfg, err := oauthConfig(e)
	if err != nil {
		return err
	}
	client, err := sync.NewCalendarClient(c.Context, cfg, e.cfg.TokenPath)
	if err != nil {
		return fmt.Errorf("%w (run 'synchro calendar auth' first)", err)
	}

	importer := sync.NewImporter(e.svc, e.store, client, e.user, sync.WithLogger(e.logger.WithPrefix("calendar")))
	res, err := importer.Import(c.Context, c.Bool("initial"))
	if err != nil {
		return err
	}

	mode := "full"
	if res.Incremental {
		mode = "incremental"
	}
	w := c.App.Writer
	_, _ = fmt.Fprintf(w, "✓ Calendar sync (%s): %d fetched, %d created, %d updated, %d skipped\n",
		mode, res.Fetched, res.Created, res.Updated, res.TotalSkipped())
	for reason, n := range res.Skipped {
		_, _ = fmt.Fprintf(w, "  %-20s %d\n", reason, n)
	}
	return nil
}

func calendarStatus(c *cli.Context, e *env) error {
	state, err := e.store.SyncState.Get(c.Context, e.user, calendarService)
	if err != nil {
		return err
	}
	w := c.App.Writer
	if state == nil {
		_, err = fmt.Fprintln(w, "Calendar has never been synced")
		return err
	}
	last := "never"
	if state.LastSyncTime != nil {
		last = state.LastSyncTime.Local().Format(time.DateTime)
	}
	_, _ = fmt.Fprintf(w, "Status:    %s\nLast sync: %s\n", state.Status, last)
	if state.Status == models.SyncStatusError {
		_, _ = fmt.Fprintf(w, "Error:     %s\n", state.ErrorMessage)
	}
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
