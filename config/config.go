// ABOUTME: Runtime configuration loaded from .env, SYNCHRO_ environment variables and defaults
// ABOUTME: Builds the cadence catalog, calculator and root logger the rest of the app is wired with
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harperreed/synchro/cadence"
)

const (
	// AppName names the XDG data directory.
	AppName = "synchro"

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "SYNCHRO_"

	DefaultHTTPAddr     = ":8080"
	DefaultTokenTTL     = 7 * 24 * time.Hour
	DefaultLocalUserID  = "local"
	DefaultDraftTimeout = 20 * time.Second
	DefaultLogLevel     = "info"
)

// Config holds everything the binaries need at startup.
type Config struct {
	DBPath      string
	HTTPAddr    string
	JWTSecret   string
	TokenTTL    time.Duration
	LocalUserID string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	DraftTimeout  time.Duration

	JitterStrategy       string
	UniformJitterDays    int
	BaselineIntervalDays int
	ExtendedStages       bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	TokenPath          string

	LogLevel string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	return &Config{
		DBPath:               filepath.Join(dataDir, AppName+".db"),
		HTTPAddr:             DefaultHTTPAddr,
		TokenTTL:             DefaultTokenTTL,
		LocalUserID:          DefaultLocalUserID,
		DraftTimeout:         DefaultDraftTimeout,
		JitterStrategy:       cadence.StrategyProportional,
		UniformJitterDays:    cadence.DefaultUniformJitterDays,
		BaselineIntervalDays: cadence.DefaultBaselineDays,
		GoogleRedirectURL:    "http://localhost:8080/oauth/callback",
		TokenPath:            filepath.Join(dataDir, "google-token.json"),
		LogLevel:             DefaultLogLevel,
	}
}

// Load reads an optional .env file and overlays SYNCHRO_ variables on the defaults.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a config from lookup, which is usually os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	e := envReader{lookup: lookup}

	e.str("DB_PATH", &cfg.DBPath)
	e.str("HTTP_ADDR", &cfg.HTTPAddr)
	e.str("JWT_SECRET", &cfg.JWTSecret)
	e.duration("TOKEN_TTL", &cfg.TokenTTL)
	e.str("LOCAL_USER", &cfg.LocalUserID)
	e.str("OPENAI_API_KEY", &cfg.OpenAIKey)
	e.str("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	e.str("OPENAI_MODEL", &cfg.OpenAIModel)
	e.duration("DRAFT_TIMEOUT", &cfg.DraftTimeout)
	e.str("JITTER_STRATEGY", &cfg.JitterStrategy)
	e.integer("UNIFORM_JITTER_DAYS", &cfg.UniformJitterDays)
	e.integer("BASELINE_INTERVAL_DAYS", &cfg.BaselineIntervalDays)
	e.boolean("EXTENDED_STAGES", &cfg.ExtendedStages)
	e.str("GOOGLE_CLIENT_ID", &cfg.GoogleClientID)
	e.str("GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret)
	e.str("GOOGLE_REDIRECT_URL", &cfg.GoogleRedirectURL)
	e.str("GOOGLE_TOKEN_PATH", &cfg.TokenPath)
	e.str("LOG_LEVEL", &cfg.LogLevel)

	if e.err != nil {
		return nil, e.err
	}
	return cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if _, err := cadence.StrategyByName(c.JitterStrategy, c.UniformJitterDays); err != nil {
		return err
	}
	if c.BaselineIntervalDays <= 0 {
		return fmt.Errorf("%sBASELINE_INTERVAL_DAYS must be positive, got %d", EnvPrefix, c.BaselineIntervalDays)
	}
	if c.DraftTimeout <= 0 {
		return fmt.Errorf("%sDRAFT_TIMEOUT must be positive", EnvPrefix)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%sJWT_SECRET is required to serve the API", EnvPrefix)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%sTOKEN_TTL must be positive", EnvPrefix)
	}
	return nil
}

// Catalog builds the stage catalog described by the config.
func (c *Config) Catalog() *cadence.Catalog {
	opts := []cadence.CatalogOption{cadence.WithBaseline(c.BaselineIntervalDays)}
	if c.ExtendedStages {
		opts = append(opts, cadence.WithExtendedStages())
	}
	return cadence.NewCatalog(opts...)
}

// Calculator builds the due-date calculator with the configured jitter strategy.
func (c *Config) Calculator() (*cadence.Calculator, error) {
	strategy, err := cadence.StrategyByName(c.JitterStrategy, c.UniformJitterDays)
	if err != nil {
		return nil, err
	}
	return cadence.NewCalculator(strategy, nil), nil
}

// Logger builds the root logger writing to w.
func (c *Config) Logger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          AppName,
	})
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = n
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = b
}

// duration accepts Go durations ("36h") or a bare number of minutes.
func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Minute
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = d
}
