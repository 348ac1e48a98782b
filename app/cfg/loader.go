package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./listing-sync.db" description:"Path to the SQLite database file"`

	// HTTP server
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	TaskSecret string `long:"task-secret" env:"TASK_SECRET" description:"Shared secret required to trigger tasks over HTTP"`

	// Token endpoint
	TokenURL     string `long:"token-url" env:"TOKEN_URL" description:"OAuth2 token endpoint URL"`
	ClientID     string `long:"client-id" env:"CLIENT_ID" description:"OAuth2 client ID"`
	ClientSecret string `long:"client-secret" env:"CLIENT_SECRET" description:"OAuth2 client secret"`
	Scope        string `long:"scope" env:"SCOPE" description:"OAuth2 scope for the client credentials grant"`

	// Source data endpoint
	SourceURL     string `long:"source-url" env:"SOURCE_URL" description:"Source listings endpoint URL"`
	SourceMethod  string `long:"source-method" env:"SOURCE_METHOD" default:"GET" description:"HTTP method for the source endpoint"`
	SourceQuery   string `long:"source-query" env:"SOURCE_QUERY" description:"Extra query string appended to source requests"`
	PageSize      int    `long:"page-size" env:"PAGE_SIZE" default:"50" description:"Number of records fetched per batch"`
	SourceTimeout int    `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"300" description:"Source request timeout in seconds (45-600)"`

	// Destination mapping
	SchemasDir       string `long:"schemas-dir" env:"SCHEMAS_DIR" default:"./schemas" description:"Directory containing field group schema files"`
	SchemaGroup      string `long:"schema-group" env:"SCHEMA_GROUP" default:"listing" description:"ID of the field group records are mapped onto"`
	UniqueIDField    string `long:"unique-id-field" env:"UNIQUE_ID_FIELD" default:"ListingId" description:"Source record field used as the unique identifier"`
	LogoBaseURL      string `long:"logo-base-url" env:"LOGO_BASE_URL" description:"Base URL prepended to record logo paths"`
	RankingOverrides string `long:"ranking-overrides" env:"RANKING_OVERRIDES" description:"Optional YAML file mapping record IDs to sort score overrides"`

	// Scheduling
	CronSpec string `long:"cron" env:"CRON_SPEC" default:"@every 15m" description:"Cron spec for scheduled imports (empty disables scheduling)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Listing Sync/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		Port:             raw.Port,
		TaskSecret:       raw.TaskSecret,
		TokenURL:         raw.TokenURL,
		ClientID:         raw.ClientID,
		ClientSecret:     raw.ClientSecret,
		Scope:            raw.Scope,
		SourceURL:        raw.SourceURL,
		SourceMethod:     raw.SourceMethod,
		SourceQuery:      raw.SourceQuery,
		PageSize:         raw.PageSize,
		SourceTimeout:    clampTimeout(raw.SourceTimeout),
		SchemasDir:       raw.SchemasDir,
		SchemaGroup:      raw.SchemaGroup,
		UniqueIDField:    raw.UniqueIDField,
		LogoBaseURL:      raw.LogoBaseURL,
		RankingOverrides: raw.RankingOverrides,
		CronSpec:         raw.CronSpec,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// clampTimeout bounds the source request timeout to 45-600 seconds.
func clampTimeout(seconds int) int {
	if seconds < 45 {
		return 45
	}
	if seconds > 600 {
		return 600
	}
	return seconds
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
