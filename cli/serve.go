// ABOUTME: HTTP API server and bearer token commands
// ABOUTME: serve runs the JSON API until interrupted; token mints a JWT for a user id
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/harperreed/synchro/web"
)

func serveCmd(version string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides SYNCHRO_HTTP_ADDR)"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := e.cfg.ValidateServer(); err != nil {
				return err
			}
			addr := e.cfg.HTTPAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e.logger.Info("starting synchro", "version", version, "db", e.cfg.DBPath)
			srv := web.NewServer(e.svc, e.cfg.JWTSecret, web.WithLogger(e.logger.WithPrefix("web")))
			return srv.Run(ctx, addr)
		}),
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a bearer token for the API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "User id the token authenticates (defaults to the local user)"},
			&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime (overrides SYNCHRO_TOKEN_TTL)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return outputError(err)
			}

			secret := cfg.JWTSecret
			if secret == "" {
				secret, err = promptSecret(c)
				if err != nil {
					return outputError(err)
				}
			}
			ttl := cfg.TokenTTL
			if c.IsSet("ttl") {
				ttl = c.Duration("ttl")
			}

			token, err := web.IssueToken(secret, cfg.LocalUserID, ttl, time.Now())
			if err != nil {
				return outputError(err)
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}

// promptSecret asks for the signing secret without echoing it.
func promptSecret(c *cli.Context) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", cli.Exit("SYNCHRO_JWT_SECRET is not set", 1)
	}
	_, _ = fmt.Fprint(c.App.ErrWriter, "JWT secret: ")
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(c.App.ErrWriter)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimSpace(string(b))
	if secret == "" {
		return "", cli.Exit("secret cannot be empty", 1)
	}
	return secret, nil
}
