package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
	"github.com/stitts-dev/draft-sim/pkg/utils"
)

const EnvPrefix = "DRAFTSIM"

type Config struct {
	Env       string `mapstructure:"env" json:"env"`
	LogLevel  string `mapstructure:"log_level" json:"log_level"`
	DataDir   string `mapstructure:"data_dir" json:"data_dir"`
	OutputDir string `mapstructure:"output_dir" json:"output_dir"`

	League    LeagueConfig    `mapstructure:"league" json:"league"`
	Roster    RosterConfig    `mapstructure:"roster" json:"roster"`
	Selection SelectionConfig `mapstructure:"selection" json:"selection"`
	Scoring   ScoringConfig   `mapstructure:"scoring" json:"scoring"`
	Storage   StorageConfig   `mapstructure:"storage" json:"storage"`
}

type LeagueConfig struct {
	Teams   int   `mapstructure:"teams" json:"teams"`
	Rounds  int   `mapstructure:"rounds" json:"rounds"`
	Trials  int   `mapstructure:"trials" json:"trials"`
	Seed    int64 `mapstructure:"seed" json:"seed"`
	Workers int   `mapstructure:"workers" json:"workers"`
	Seasons []int `mapstructure:"seasons" json:"seasons"`
}

// RosterConfig maps position labels to counts. Keys are case-insensitive.
type RosterConfig struct {
	Required map[string]int `mapstructure:"required" json:"required"`
	Limits   map[string]int `mapstructure:"limits" json:"limits"`
}

type SelectionConfig struct {
	UseWeights          bool               `mapstructure:"use_weights" json:"use_weights"`
	EnforceCaps         bool               `mapstructure:"enforce_caps" json:"enforce_caps"`
	EnforceRequirements bool               `mapstructure:"enforce_requirements" json:"enforce_requirements"`
	WeightBands         []WeightBandConfig `mapstructure:"weight_bands" json:"weight_bands"`
	Overrides           []OverrideConfig   `mapstructure:"overrides" json:"overrides"`
}

// WeightBandConfig applies to rounds up to ThroughRound; 0 means every later round
type WeightBandConfig struct {
	ThroughRound int       `mapstructure:"through_round" json:"through_round"`
	Weights      []float64 `mapstructure:"weights" json:"weights"`
}

type OverrideConfig struct {
	Team         int    `mapstructure:"team" json:"team"`
	Position     string `mapstructure:"position" json:"position"`
	ThroughRound int    `mapstructure:"through_round" json:"through_round"`
}

type ScoringConfig struct {
	WaiverLeagueSize int                `mapstructure:"waiver_league_size" json:"waiver_league_size"`
	WaiverFactors    map[string]float64 `mapstructure:"waiver_factors" json:"waiver_factors"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Driver  string `mapstructure:"driver" json:"driver"`
	DSN     string `mapstructure:"dsn" json:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("data_dir", "data")
	v.SetDefault("output_dir", "output")

	// 12-team, 16-round redraft league
	v.SetDefault("league.teams", 12)
	v.SetDefault("league.rounds", 16)
	v.SetDefault("league.trials", 1000)
	v.SetDefault("league.seed", 0)
	v.SetDefault("league.workers", 0) // 0 = one per CPU
	v.SetDefault("league.seasons", []int{})

	// Per-key defaults so a file or env var setting one position keeps the rest
	for pos, n := range map[string]int{"qb": 1, "rb": 2, "wr": 2, "te": 1, "k": 1, "dst": 1} {
		v.SetDefault("roster.required."+pos, n)
	}
	for pos, n := range map[string]int{"qb": 4, "rb": 8, "wr": 8, "te": 3, "k": 3, "dst": 3} {
		v.SetDefault("roster.limits."+pos, n)
	}

	v.SetDefault("selection.use_weights", true)
	v.SetDefault("selection.enforce_caps", true)
	v.SetDefault("selection.enforce_requirements", true)
	v.SetDefault("selection.weight_bands", []map[string]interface{}{
		{"through_round": 3, "weights": []float64{0.64, 0.20, 0.10, 0.05, 0.01}},
		{"through_round": 0, "weights": []float64{0.50, 0.10, 0.10, 0.10, 0.10, 0.10}},
	})
	v.SetDefault("selection.overrides", []map[string]interface{}{})

	v.SetDefault("scoring.waiver_league_size", 16)
	for pos, f := range map[string]float64{"qb": 1.6, "rb": 3.6, "wr": 3.6, "te": 1.6, "k": 1.6, "dst": 1.6} {
		v.SetDefault("scoring.waiver_factors."+pos, f)
	}

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "draftsim.db")
}

// RegisterFlags adds the command line overrides shared by every subcommand
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("env", "", "environment: development or production")
	fs.String("log-level", "", "log level")
	fs.String("data-dir", "", "dataset directory")
	fs.String("output-dir", "", "output directory")
	fs.Int("teams", 0, "teams in the league")
	fs.Int("rounds", 0, "draft rounds")
	fs.Int("trials", 0, "number of simulated drafts")
	fs.Int64("seed", 0, "base random seed (0 = time based)")
	fs.Int("workers", 0, "parallel trial workers")
	fs.IntSlice("seasons", nil, "seasons to draw from (default: every ADP file)")
	fs.Bool("store", false, "persist results to the database")
	fs.String("db-driver", "", "database driver: sqlite or postgres")
	fs.String("db-dsn", "", "database DSN")
}

var flagKeys = map[string]string{
	"env":        "env",
	"log-level":  "log_level",
	"data-dir":   "data_dir",
	"output-dir": "output_dir",
	"teams":      "league.teams",
	"rounds":     "league.rounds",
	"trials":     "league.trials",
	"seed":       "league.seed",
	"workers":    "league.workers",
	"seasons":    "league.seasons",
	"store":      "storage.enabled",
	"db-driver":  "storage.driver",
	"db-dsn":     "storage.dsn",
}

// LoadConfig reads defaults, then the config file, then DRAFTSIM_* environment
// variables, then flags that were explicitly set. A nil FlagSet is allowed.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFile string
	if fs != nil {
		configFile, _ = fs.GetString("config")
		for name, key := range flagKeys {
			if flag := fs.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("draftsim")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), utils.ErrInvalidConfig)
}

// Validate rejects configurations the simulator cannot run
func (c *Config) Validate() error {
	if c.League.Teams < 1 {
		return invalid("league.teams must be at least 1, got %d", c.League.Teams)
	}
	if c.League.Rounds < 1 {
		return invalid("league.rounds must be at least 1, got %d", c.League.Rounds)
	}
	if c.League.Trials < 0 {
		return invalid("league.trials must not be negative")
	}
	if c.League.Workers < 0 {
		return invalid("league.workers must not be negative")
	}
	if c.Scoring.WaiverLeagueSize < 1 {
		return invalid("scoring.waiver_league_size must be at least 1")
	}

	required, err := c.RequiredPositions()
	if err != nil {
		return err
	}
	limits, err := c.PositionLimits()
	if err != nil {
		return err
	}
	total := 0
	for pos, n := range required {
		if limit, ok := limits[pos]; ok && n > limit {
			return invalid("roster.required %s=%d exceeds roster.limits %d", pos, n, limit)
		}
		total += n
	}
	if total > c.League.Rounds {
		return invalid("roster.required needs %d picks but league.rounds is %d", total, c.League.Rounds)
	}

	if _, err := c.WaiverFactors(); err != nil {
		return err
	}
	rules, err := c.Rules()
	if err != nil {
		return err
	}
	if err := rules.Validate(c.League.Teams); err != nil {
		return err
	}

	if c.Storage.Enabled {
		switch strings.ToLower(c.Storage.Driver) {
		case "sqlite", "sqlite3", "postgres", "postgresql":
		default:
			return invalid("storage.driver %q is not sqlite or postgres", c.Storage.Driver)
		}
		if c.Storage.DSN == "" {
			return invalid("storage.dsn is required when storage is enabled")
		}
	}
	return nil
}

func positionCounts(key string, raw map[string]int) (map[models.Position]int, error) {
	out := make(map[models.Position]int, len(raw))
	for label, n := range raw {
		pos, err := models.ParsePosition(label)
		if err != nil {
			return nil, invalid("%s: %v", key, err)
		}
		if n < 0 {
			return nil, invalid("%s.%s must not be negative", key, label)
		}
		out[pos] = n
	}
	return out, nil
}

func (c *Config) RequiredPositions() (map[models.Position]int, error) {
	return positionCounts("roster.required", c.Roster.Required)
}

// PositionLimits returns caps by position; unlisted positions are uncapped
func (c *Config) PositionLimits() (map[models.Position]int, error) {
	return positionCounts("roster.limits", c.Roster.Limits)
}

func (c *Config) WaiverFactors() (map[models.Position]float64, error) {
	out := make(map[models.Position]float64, len(c.Scoring.WaiverFactors))
	for label, f := range c.Scoring.WaiverFactors {
		pos, err := models.ParsePosition(label)
		if err != nil {
			return nil, invalid("scoring.waiver_factors: %v", err)
		}
		if f < 0 {
			return nil, invalid("scoring.waiver_factors.%s must not be negative", label)
		}
		out[pos] = f
	}
	return out, nil
}

// Rules converts the selection section for the draft selector
func (c *Config) Rules() (draft.Rules, error) {
	rules := draft.Rules{
		UseWeights:          c.Selection.UseWeights,
		EnforceCaps:         c.Selection.EnforceCaps,
		EnforceRequirements: c.Selection.EnforceRequirements,
	}
	for _, b := range c.Selection.WeightBands {
		rules.WeightBands = append(rules.WeightBands, draft.WeightBand{
			ThroughRound: b.ThroughRound,
			Weights:      b.Weights,
		})
	}
	for i, o := range c.Selection.Overrides {
		pos, err := models.ParsePosition(o.Position)
		if err != nil {
			return draft.Rules{}, invalid("selection.overrides[%d]: %v", i, err)
		}
		rules.Overrides = append(rules.Overrides, draft.Override{
			TeamID:       o.Team,
			Position:     pos,
			ThroughRound: o.ThroughRound,
		})
	}
	return rules, nil
}
