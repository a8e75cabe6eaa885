// ABOUTME: Command tree for the synchro binary
// ABOUTME: Loads config, opens the database and builds the lifecycle service for each command
package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/harperreed/synchro/config"
	"github.com/harperreed/synchro/db"
	"github.com/harperreed/synchro/drafter"
	"github.com/harperreed/synchro/lifecycle"
)

// NewApp creates the CLI application with all commands.
func NewApp(version string) *cli.App {
	app := &cli.App{
		Name:    config.AppName,
		Usage:   "Keep in touch with the people who matter",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Optional .env file with SYNCHRO_ settings"},
			&cli.StringFlag{Name: "db-path", Usage: "Database path (overrides SYNCHRO_DB_PATH)"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Owner id for local commands (overrides SYNCHRO_LOCAL_USER)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			serveCmd(version),
			mcpCmd(version),
			tokenCmd(),
			contactsCmd(),
			logCmd(),
			briefingCmd(),
			draftsCmd(),
			stagesCmd(),
			calendarCmd(),
		},
	}
	// Errors are reported by main, which also picks the exit code.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// env is everything a command needs. Commands get one through withEnv.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	conn   *sql.DB
	store  *db.Store
	svc    *lifecycle.Service
	user   string
}

func (e *env) close() {
	if e.conn != nil {
		_ = e.conn.Close()
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	if v := c.String("db-path"); v != "" {
		cfg.DBPath = v
	}
	if v := c.String("user"); v != "" {
		cfg.LocalUserID = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(c.App.ErrWriter)

	calc, err := cfg.Calculator()
	if err != nil {
		return nil, err
	}

	conn, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath)

	store := db.NewStore(conn)
	gen := drafter.New(drafter.OpenAIConfig{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.DraftTimeout,
	}, logger.WithPrefix("drafter"))

	svc := lifecycle.New(store, cfg.Catalog(), calc,
		lifecycle.WithDrafter(gen),
		lifecycle.WithLogger(logger.WithPrefix("lifecycle")),
	)
	return &env{cfg: cfg, logger: logger, conn: conn, store: store, svc: svc, user: cfg.LocalUserID}, nil
}

// withEnv opens the environment around fn and formats whatever it returns.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := openEnv(c)
		if err != nil {
			return outputError(err)
		}
		defer e.close()
		if err := fn(c, e); err != nil {
			return outputError(err)
		}
		return nil
	}
}

// outputJSON writes v as indented JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		return err
	}
	var le *lifecycle.Error
	if errors.As(err, &le) {
		return cli.Exit(le.Msg, 1)
	}
	return cli.Exit(err.Error(), 1)
}

// requireArg returns the first positional argument or a usage error.
func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 {
		return "", cli.Exit(fmt.Sprintf("missing %s; usage: %s %s", what, c.Command.HelpName, c.Command.ArgsUsage), 2)
	}
	return c.Args().First(), nil
}
