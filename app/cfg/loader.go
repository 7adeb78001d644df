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
	DBPath string `long:"db-path" env:"DB_PATH" default:"./postpilot.db" description:"Path to the SQLite database file"`

	// Application configuration
	ProfilesDir       string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing user profile files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for pipeline processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Relevance oracle configuration
	GeminiAPIKey        string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"API key for the Gemini relevance oracle"`
	GeminiModel         string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.0-flash" description:"Gemini model used for relevance scoring and draft generation"`
	RelevanceBatchSize  int    `long:"relevance-batch-size" env:"RELEVANCE_BATCH_SIZE" default:"10" description:"Number of articles scored per oracle batch"`
	RelevanceBatchDelay int    `long:"relevance-batch-delay" env:"RELEVANCE_BATCH_DELAY" default:"2" description:"Delay between oracle batches in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PostPilot/1.0" description:"User agent string for HTTP requests"`
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
		DBPath:              raw.DBPath,
		ProfilesDir:         raw.ProfilesDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		GeminiAPIKey:        raw.GeminiAPIKey,
		GeminiModel:         raw.GeminiModel,
		RelevanceBatchSize:  raw.RelevanceBatchSize,
		RelevanceBatchDelay: raw.RelevanceBatchDelay,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
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
