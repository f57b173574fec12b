// Package config loads Gerald's configuration.
//
// Settings are read, in increasing order of precedence, from built-in defaults, an optional config file, environment
// variables and command-line flags. Environment variables are prefixed with GERALD_ and use '_' instead of '.', e.g.
// GERALD_SLACK_BOT_TOKEN for slack.bot_token. A .env file in the working directory is loaded into the environment
// first, if it exists.
package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"
)

const envPrefix = "GERALD"

type Config struct {
	Slack    Slack    `mapstructure:"slack"`
	Channels Channels `mapstructure:"channels"`
	Data     Data     `mapstructure:"data"`
	Schedule Schedule `mapstructure:"schedule"`
	ADS      ADS      `mapstructure:"ads"`
	Arxiv    Arxiv    `mapstructure:"arxiv"`
	Birthday Birthday `mapstructure:"birthday"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Log      Log      `mapstructure:"log"`
}

type Slack struct {
	BotToken string `mapstructure:"bot_token"`
	AppToken string `mapstructure:"app_token"`
}

// Channels are the names of the channels Gerald posts in.
type Channels struct {
	Announce  string `mapstructure:"announce"`
	Whinetime string `mapstructure:"whinetime"`
	Quotes    string `mapstructure:"quotes"`
	Papers    string `mapstructure:"papers"`
}

// Data holds the paths of the data files.
type Data struct {
	Rotation string `mapstructure:"rotation"`
	Quotes   string `mapstructure:"quotes"`
	Roster   string `mapstructure:"roster"`
}

// Schedule configures when the daily jobs run. Morning is a cron expression, interpreted in Timezone. The other
// fields name the weekday of each weekly job.
type Schedule struct {
	Timezone  string `mapstructure:"timezone"`
	Morning   string `mapstructure:"morning"`
	Whinetime string `mapstructure:"whinetime"`
	Quote     string `mapstructure:"quote"`
	Papers    string `mapstructure:"papers"`
}

// ADS configures the NASA/ADS client. Without a token, papers are looked up in the arXiv instead.
type ADS struct {
	Token string  `mapstructure:"token"`
	URL   string  `mapstructure:"url"`
	Rate  float64 `mapstructure:"rate"`
}

type Arxiv struct {
	URL string `mapstructure:"url"`
}

type Birthday struct {
	GIFURL   string `mapstructure:"gif_url"`
	GIFCount int    `mapstructure:"gif_count"`
}

// Metrics configures the Prometheus metrics server. An empty Addr disables it.
type Metrics struct {
	Addr string `mapstructure:"addr"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"slack.bot_token":    "",
	"slack.app_token":    "",
	"channels.announce":  "bot-test",
	"channels.whinetime": "bot-test",
	"channels.quotes":    "bot-test",
	"channels.papers":    "bot-test",
	"data.rotation":      "public_data/whinetime_order.txt",
	"data.quotes":        "private_data/quotes.csv",
	"data.roster":        "data/birthday_phone_list.csv",
	"schedule.timezone":  "America/Los_Angeles",
	"schedule.morning":   "32 9 * * *",
	"schedule.whinetime": "Monday",
	"schedule.quote":     "Wednesday",
	"schedule.papers":    "Friday",
	"ads.token":          "",
	"ads.url":            "https://api.adsabs.harvard.edu/v1",
	"ads.rate":           1.0,
	"arxiv.url":          "https://arxiv.org",
	"birthday.gif_url":   "https://raw.githubusercontent.com/TomWagg/gerald/main/img/birthday_gifs/%d.gif",
	"birthday.gif_count": 8,
	"metrics.addr":       ":9090",
	"log.level":          "info",
	"log.format":         "text",
}

// New returns a viper instance with Gerald's defaults, which reads GERALD_ environment variables.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads environment variables from the given files (default: .env). Variables already set in the
// environment are not overwritten. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}
	return nil
}

// Load reads the configuration. If configFile is not blank, it is read first.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration is complete and that its values can be parsed.
func (c Config) Validate() error {
	var errs []error
	if c.Slack.BotToken == "" {
		errs = append(errs, errors.New("missing slack.bot_token"))
	}
	if c.Slack.AppToken == "" {
		errs = append(errs, errors.New("missing slack.app_token"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	for key, day := range map[string]string{
		"schedule.whinetime": c.Schedule.Whinetime,
		"schedule.quote":     c.Schedule.Quote,
		"schedule.papers":    c.Schedule.Papers,
	} {
		if _, err := ParseWeekday(day); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if !strings.Contains(c.Birthday.GIFURL, "%d") {
		errs = append(errs, fmt.Errorf("birthday.gif_url must contain %%d: %q", c.Birthday.GIFURL))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the time zone of the schedule.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// ParseWeekday parses the (case-insensitive) English name of a weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(name, day.String()) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}

// Logger returns a logger writing to w, using the configured level and format (text or json).
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, &opts)
	if strings.EqualFold(c.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, &opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
