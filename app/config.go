package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultUpstreamURL is the FBCV endpoint for grouping 1399.
const DefaultUpstreamURL = "https://esb.optimalwayconsulting.com/fbcv/1/btz38ZsZlAdaODiH2fGsnJC9mZgSNPeR/FCBQWeb/getAllGamesByGrupWithMatchRecords/1399"

// Config holds everything that used to be a hardcoded literal. Defaults live
// in DefaultConfig only; files and environment variables override them.
type Config struct {
	UpstreamURL     string        `yaml:"upstream_url" env:"UPSTREAM_URL"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout" env:"UPSTREAM_TIMEOUT"`
	TeamKeyword     string        `yaml:"team_keyword" env:"TEAM_KEYWORD"`
	EventDuration   time.Duration `yaml:"event_duration" env:"EVENT_DURATION"`
	TimezoneID      string        `yaml:"timezone_id" env:"TIMEZONE_ID"`
	UIDDomain       string        `yaml:"uid_domain" env:"UID_DOMAIN"`
	FeedPath        string        `yaml:"feed_path" env:"FEED_PATH"`
	CalendarName    string        `yaml:"calendar_name" env:"CALENDAR_NAME"`
	Port            string        `yaml:"port" env:"PORT"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the configuration the service ships with.
func DefaultConfig() Config {
	return Config{
		UpstreamURL:   DefaultUpstreamURL,
		TeamKeyword:   "XIRIVELLA",
		EventDuration: 2 * time.Hour,
		TimezoneID:    "Europe/Madrid",
		UIDDomain:     "xirivella",
		FeedPath:      "/xirivella.ics",
		Port:          "8000",
		LogLevel:      "info",
	}
}

// LoadConfig reads the configuration from path when given, otherwise from
// the environment only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that would make the feed unusable.
func (c Config) Validate() error {
	switch {
	case c.UpstreamURL == "":
		return errors.New("config: upstream_url is empty")
	case c.TeamKeyword == "":
		return errors.New("config: team_keyword is empty")
	case c.EventDuration <= 0:
		return fmt.Errorf("config: event_duration must be positive, got %s", c.EventDuration)
	case c.TimezoneID == "":
		return errors.New("config: timezone_id is empty")
	case c.FeedPath == "" || c.FeedPath[0] != '/':
		return fmt.Errorf("config: feed_path must start with '/', got %q", c.FeedPath)
	}
	return nil
}
