package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animeharvest/pkg/utils"
)

// flagValues holds command-line overrides. Empty or zero values leave the
// loaded config alone, except the pause flags, which apply whenever given.
type flagValues struct {
	configPath  string
	season      string
	year        int
	candidates  string
	dsn         string
	fallback    string
	baseURL     string
	seasonURL   string
	logLevel    string
	logFormat   string
	logFile     string
	metricsFile string
	shortPause  time.Duration
	longPause   time.Duration

	// set when the pause flags were given, so an explicit 0 turns pacing off
	shortPauseSet bool
	longPauseSet  bool
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(&flagValues{})
}

func buildRootCommand(flags *flagValues) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "harvester",
		Short:         "Incrementally harvest seasonal anime metadata into the dataset store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runHarvest(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "TOML configuration file")
	pf.StringVar(&flags.dsn, "db", "", "dataset store: sqlite path or postgres:// URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "auto, text or json")
	pf.StringVar(&flags.logFile, "log-file", "", "also write JSON logs to this rotated file")

	f := rootCmd.Flags()
	f.StringVar(&flags.season, "season", "", "season to list: winter, spring, summer or fall")
	f.IntVar(&flags.year, "year", 0, "year of the season")
	f.StringVar(&flags.candidates, "candidates", "", "read candidates from an IDx,Title CSV instead of the listing endpoint")
	f.StringVar(&flags.fallback, "fallback", "", "CSV written when the store append fails")
	f.StringVar(&flags.baseURL, "base-url", "", "detail endpoint base URL")
	f.StringVar(&flags.seasonURL, "season-url", "", "seasonal listing base URL")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")
	f.DurationVar(&flags.shortPause, "pause", 0, "pause after each successful fetch")
	f.DurationVar(&flags.longPause, "batch-pause", 0, "pause after every batch of successful fetches")

	rootCmd.AddCommand(newLastRunCommand(flags))
	return rootCmd
}

// load reads the config file and environment, then applies flags on top.
func (f *flagValues) load(cmd *cobra.Command) (utils.HarvestConfig, error) {
	f.shortPauseSet = cmd.Flags().Changed("pause")
	f.longPauseSet = cmd.Flags().Changed("batch-pause")

	cfg, err := utils.LoadHarvestConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f *flagValues) apply(cfg *utils.HarvestConfig) {
	setString(&cfg.Season, strings.ToLower(strings.TrimSpace(f.season)))
	if f.year != 0 {
		cfg.Year = f.year
	}
	setString(&cfg.CandidatesFile, f.candidates)
	setString(&cfg.Store.DSN, f.dsn)
	setString(&cfg.Store.FallbackPath, f.fallback)
	setString(&cfg.API.BaseURL, f.baseURL)
	setString(&cfg.API.SeasonURL, f.seasonURL)
	setString(&cfg.Log.Level, f.logLevel)
	setString(&cfg.Log.Format, f.logFormat)
	setString(&cfg.Log.File, f.logFile)
	setString(&cfg.Metrics.Textfile, f.metricsFile)
	if f.shortPauseSet {
		cfg.Pacing.Short = utils.Duration(f.shortPause)
	}
	if f.longPauseSet {
		cfg.Pacing.Long = utils.Duration(f.longPause)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
