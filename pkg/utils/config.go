package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"animeharvest/pkg/database"
)

// Duration lets TOML carry durations as strings ("500ms", "1s").
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// APIConfig points at the catalog endpoints.
type APIConfig struct {
	BaseURL   string   `toml:"base_url" validate:"required,url"`
	SeasonURL string   `toml:"season_url" validate:"required,url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   Duration `toml:"timeout" validate:"gt=0"`
}

// PacingConfig controls the pause after each successful fetch.
type PacingConfig struct {
	Short Duration `toml:"short" validate:"gte=0"`
	Long  Duration `toml:"long" validate:"gte=0"`
	Batch int      `toml:"batch" validate:"gte=1"`
}

// StoreConfig points at the dataset store and its fallback file.
type StoreConfig struct {
	DSN          string `toml:"dsn" validate:"required"`
	FallbackPath string `toml:"fallback_path" validate:"required"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=auto text json"`
	File   string `toml:"file"`
}

type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// HarvestConfig is everything one harvest run needs.
type HarvestConfig struct {
	Season         string `toml:"season" validate:"required,oneof=winter spring summer fall"`
	Year           int    `toml:"year" validate:"required,gte=1917,lte=2100"`
	CandidatesFile string `toml:"candidates_file"`

	API     APIConfig     `toml:"api"`
	Pacing  PacingConfig  `toml:"pacing"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// DefaultHarvestConfig mirrors the original dataset run: winter 2017
// against the public Jikan v3 API.
func DefaultHarvestConfig() HarvestConfig {
	return HarvestConfig{
		Season: "winter",
		Year:   2017,
		API: APIConfig{
			BaseURL:   "https://api.jikan.moe/v3/anime",
			SeasonURL: "https://api.jikan.moe/v3/season",
			UserAgent: "animeharvest/1.0",
			Timeout:   Duration(15 * time.Second),
		},
		Pacing: PacingConfig{
			Short: Duration(500 * time.Millisecond),
			Long:  Duration(time.Second),
			Batch: 10,
		},
		Store: StoreConfig{
			DSN:          database.DefaultConfig().DSN,
			FallbackPath: "fetched_animes.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// LoadHarvestConfig starts from defaults, applies the TOML file at path (if
// any) and then ANIMEHARVEST_* environment overrides. Validation is left to
// the caller so command-line flags can be applied first.
func LoadHarvestConfig(path string) (HarvestConfig, error) {
	cfg := DefaultHarvestConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *HarvestConfig) error {
	if v, ok := os.LookupEnv("ANIMEHARVEST_SEASON"); ok {
		cfg.Season = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_YEAR"); ok {
		year, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("ANIMEHARVEST_YEAR: %w", err)
		}
		cfg.Year = year
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_BASE_URL"); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_SEASON_URL"); ok {
		cfg.API.SeasonURL = v
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_DB_PATH"); ok {
		cfg.Store.DSN = v
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_FALLBACK"); ok {
		cfg.Store.FallbackPath = v
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("ANIMEHARVEST_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config and reports every offending field at once.
func (c HarvestConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
