package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cesargomez89/radioqueue/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	LogLevel          string
	LogFormat         string
	YTMusicURL        string
	ListenBrainzURL   string
	MusicBrainzURL    string
	RadioMode         string
	SeedPrompt        string
	YTMusicRPS        float64
	QuarantineWindow  time.Duration
	AutofillCooldown  time.Duration
	CacheTTL          time.Duration
	TargetBuffer      int
	RecommenderStrict bool
	CacheReset        bool

	parseErrs []string
}

// source resolves a key from the environment first, then the optional file.
type source struct {
	file map[string]interface{}
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return load(source{})
}

// LoadWithFile loads a TOML file whose keys are the lower-cased environment
// variable names (port, db_path, ...). Environment variables win over the file.
func LoadWithFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	file := make(map[string]interface{})
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return load(source{file: file}), nil
}

func load(src source) *Config {
	c := &Config{
		Port:            src.get("PORT", constants.DefaultPort),
		DBPath:          src.get("DB_PATH", constants.DefaultDBPath),
		LogLevel:        src.get("LOG_LEVEL", "info"),
		LogFormat:       src.get("LOG_FORMAT", "text"),
		YTMusicURL:      src.get("YTMUSIC_URL", constants.DefaultYTMusicURL),
		ListenBrainzURL: src.get("LISTENBRAINZ_URL", constants.DefaultListenBrainzURL),
		MusicBrainzURL:  src.get("MUSICBRAINZ_URL", constants.DefaultMusicBrainzURL),
		RadioMode:       src.get("RADIO_MODE", constants.DefaultRadioMode),
		SeedPrompt:      src.get("SEED_PROMPT", constants.DefaultSeedPrompt),
	}

	c.YTMusicRPS = c.parseFloat("YTMUSIC_RPS", src.get("YTMUSIC_RPS", ""), constants.DefaultYTMusicRPS)
	c.QuarantineWindow = c.parseDuration("QUARANTINE_WINDOW", src.get("QUARANTINE_WINDOW", ""), constants.DefaultQuarantineWindow)
	c.AutofillCooldown = c.parseDuration("AUTOFILL_COOLDOWN", src.get("AUTOFILL_COOLDOWN", ""), constants.DefaultAutofillCooldown)
	c.CacheTTL = c.parseDuration("CACHE_TTL", src.get("CACHE_TTL", ""), constants.DefaultCacheTTL)
	c.TargetBuffer = c.parseInt("TARGET_BUFFER", src.get("TARGET_BUFFER", ""), constants.DefaultTargetBuffer)
	c.RecommenderStrict = c.parseBool("RECOMMENDER_STRICT", src.get("RECOMMENDER_STRICT", ""), true)
	c.CacheReset = c.parseBool("CACHE_RESET", src.get("CACHE_RESET", ""), false)

	return c
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrs...)

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	for key, raw := range map[string]string{
		"YTMUSIC_URL":      c.YTMusicURL,
		"LISTENBRAINZ_URL": c.ListenBrainzURL,
		"MUSICBRAINZ_URL":  c.MusicBrainzURL,
	} {
		if raw == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", key))
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("%s is not a valid URL: %s", key, raw))
		}
	}

	validModes := map[string]bool{
		constants.RadioModeEasy:   true,
		constants.RadioModeMedium: true,
		constants.RadioModeHard:   true,
	}
	if !validModes[c.RadioMode] {
		errors = append(errors, fmt.Sprintf("RADIO_MODE must be one of: easy, medium, hard, got: %s", c.RadioMode))
	}

	if strings.TrimSpace(c.SeedPrompt) == "" {
		errors = append(errors, "SEED_PROMPT cannot be empty")
	}

	if c.YTMusicRPS <= 0 {
		errors = append(errors, fmt.Sprintf("YTMUSIC_RPS must be positive, got: %v", c.YTMusicRPS))
	}

	if c.QuarantineWindow <= 0 {
		errors = append(errors, fmt.Sprintf("QUARANTINE_WINDOW must be positive, got: %v", c.QuarantineWindow))
	}

	if c.AutofillCooldown < 0 {
		errors = append(errors, fmt.Sprintf("AUTOFILL_COOLDOWN cannot be negative, got: %v", c.AutofillCooldown))
	}

	if c.TargetBuffer < constants.MinDeliverableBuffer {
		errors = append(errors, fmt.Sprintf("TARGET_BUFFER must be at least %d, got: %d", constants.MinDeliverableBuffer, c.TargetBuffer))
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (s source) get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if v, ok := s.file[strings.ToLower(key)]; ok {
		return fmt.Sprint(v)
	}
	return fallback
}

func (c *Config) parseDuration(key, raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s must be a duration (e.g. 30m), got: %s", key, raw))
		return fallback
	}
	return d
}

func (c *Config) parseInt(key, raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s must be an integer, got: %s", key, raw))
		return fallback
	}
	return n
}

func (c *Config) parseFloat(key, raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s must be a number, got: %s", key, raw))
		return fallback
	}
	return f
}

func (c *Config) parseBool(key, raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s must be true or false, got: %s", key, raw))
		return fallback
	}
	return b
}
