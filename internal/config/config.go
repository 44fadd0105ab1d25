// Package config loads drawloop settings. DRAWLOOP_* environment variables
// override the TOML file, which overrides built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "DRAWLOOP"
	ConfigPathEnv = "DRAWLOOP_CONFIG"

	configDir  = ".config/drawloop"
	configFile = "config.toml"
	configType = "toml"
	dataDir    = ".local/share/drawloop"
)

type Config struct {
	Canvas    CanvasConfig    `mapstructure:"canvas"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Learning  LearningConfig  `mapstructure:"learning"`
	DSL       DSLConfig       `mapstructure:"dsl"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Synth     SynthConfig     `mapstructure:"synth"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// File is the config file that was read, empty when only defaults apply.
	File string `mapstructure:"-"`
}

type CanvasConfig struct {
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
	Background string `mapstructure:"background"`
}

type GeneratorConfig struct {
	Kind string `mapstructure:"kind"`
}

type PathsConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	CorpusDir   string `mapstructure:"corpus_dir"`
	HistoryFile string `mapstructure:"history_file"`
}

type LearningConfig struct {
	SimilarityThreshold  float64      `mapstructure:"similarity_threshold"`
	ExplorationThreshold float64      `mapstructure:"exploration_threshold"`
	MaxExamples          int          `mapstructure:"max_examples"`
	ExplorationInterval  int          `mapstructure:"exploration_interval"`
	PeriodicBatch        int          `mapstructure:"periodic_batch"`
	FinalBatch           int          `mapstructure:"final_batch"`
	FewShot              int          `mapstructure:"few_shot"`
	DefaultBucket        string       `mapstructure:"default_bucket"`
	HistoryLimit         int          `mapstructure:"history_limit"`
	Rules                []RuleConfig `mapstructure:"rules"`
}

type RuleConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

type DSLConfig struct {
	Strict bool `mapstructure:"strict"`
}

type OracleConfig struct {
	URL               string        `mapstructure:"url"`
	TextModel         string        `mapstructure:"text_model"`
	FallbackTextModel string        `mapstructure:"fallback_text_model"`
	VisionModel       string        `mapstructure:"vision_model"`
	EmbedModel        string        `mapstructure:"embed_model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryCount        int           `mapstructure:"retry_count"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff   time.Duration `mapstructure:"max_retry_backoff"`
	RatePerSecond     float64       `mapstructure:"rate_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type SynthConfig struct {
	MinCommands        int              `mapstructure:"min_commands"`
	MaxCommands        int              `mapstructure:"max_commands"`
	ClusterProbability float64          `mapstructure:"cluster_probability"`
	DetailProbability  float64          `mapstructure:"detail_probability"`
	Palette            []string         `mapstructure:"palette"`
	Templates          []TemplateConfig `mapstructure:"templates"`
}

type TemplateConfig struct {
	Command string        `mapstructure:"command"`
	Weight  float64       `mapstructure:"weight"`
	Params  []ParamConfig `mapstructure:"params"`
}

type ParamConfig struct {
	Name  string `mapstructure:"name"`
	Kind  string `mapstructure:"kind"`
	Fixed string `mapstructure:"fixed"`
	Min   int    `mapstructure:"min"`
	Max   int    `mapstructure:"max"`
}

type CleanupConfig struct {
	MaxOutputAge time.Duration `mapstructure:"max_output_age"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration into a fresh Config. An explicit path, from the
// argument or DRAWLOOP_CONFIG, must exist; the default path may be absent.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	setDefaults(v, homeDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType(configType)

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}

	var file string
	if path != "" {
		file = expandHome(path, homeDir)
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(configFile, filepath.Ext(configFile)))
		v.AddConfigPath(filepath.Join(homeDir, configDir))
		err := v.ReadInConfig()
		if err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else {
			file = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode config: %w", domain.ErrInvalidConfig, err)
	}
	cfg.File = file
	cfg.Paths.OutputDir = expandHome(cfg.Paths.OutputDir, homeDir)
	cfg.Paths.CorpusDir = expandHome(cfg.Paths.CorpusDir, homeDir)
	cfg.Paths.HistoryFile = expandHome(cfg.Paths.HistoryFile, homeDir)
	cfg.Logging.File = expandHome(cfg.Logging.File, homeDir)
	cfg.Learning.DefaultBucket = strings.TrimSpace(cfg.Learning.DefaultBucket)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	data := filepath.Join(homeDir, dataDir)

	v.SetDefault("canvas.width", 512)
	v.SetDefault("canvas.height", 512)
	v.SetDefault("canvas.background", "white")
	v.SetDefault("generator.kind", "placeholder")

	v.SetDefault("paths.output_dir", filepath.Join(data, "output"))
	v.SetDefault("paths.corpus_dir", filepath.Join(data, "corpus"))
	v.SetDefault("paths.history_file", filepath.Join(data, "history.toml"))

	v.SetDefault("learning.similarity_threshold", 0.8)
	v.SetDefault("learning.exploration_threshold", 0.7)
	v.SetDefault("learning.max_examples", 100)
	v.SetDefault("learning.exploration_interval", 5)
	v.SetDefault("learning.periodic_batch", 2)
	v.SetDefault("learning.final_batch", 5)
	v.SetDefault("learning.few_shot", 3)
	v.SetDefault("learning.default_bucket", domain.DefaultBucket)
	v.SetDefault("learning.history_limit", 20)

	v.SetDefault("dsl.strict", false)

	v.SetDefault("oracle.url", "http://localhost:11434")
	v.SetDefault("oracle.text_model", "llama3.2")
	v.SetDefault("oracle.fallback_text_model", "")
	v.SetDefault("oracle.vision_model", "llava")
	v.SetDefault("oracle.embed_model", "nomic-embed-text")
	v.SetDefault("oracle.timeout", 60*time.Second)
	v.SetDefault("oracle.retry_count", 3)
	v.SetDefault("oracle.retry_backoff", time.Second)
	v.SetDefault("oracle.max_retry_backoff", 10*time.Second)
	v.SetDefault("oracle.rate_per_second", 0.0)
	v.SetDefault("oracle.burst", 1)

	v.SetDefault("synth.min_commands", 4)
	v.SetDefault("synth.max_commands", 8)
	v.SetDefault("synth.cluster_probability", 0.4)
	v.SetDefault("synth.detail_probability", 0.3)
	v.SetDefault("synth.palette", domain.DefaultPalette)

	v.SetDefault("cleanup.max_output_age", 7*24*time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Validate checks ranges and cross-field constraints. Every failure wraps domain.ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	check(strings.TrimSpace(c.Generator.Kind) != "", "generator.kind is empty")

	check(c.Paths.OutputDir != "", "paths.output_dir is empty")
	check(c.Paths.CorpusDir != "", "paths.corpus_dir is empty")
	check(c.Paths.HistoryFile != "", "paths.history_file is empty")

	l := c.Learning
	check(unit(l.SimilarityThreshold), "learning.similarity_threshold must be in [0,1], got %v", l.SimilarityThreshold)
	check(unit(l.ExplorationThreshold), "learning.exploration_threshold must be in [0,1], got %v", l.ExplorationThreshold)
	check(l.MaxExamples >= 1, "learning.max_examples must be at least 1, got %d", l.MaxExamples)
	check(l.ExplorationInterval >= 0, "learning.exploration_interval must not be negative")
	check(l.PeriodicBatch >= 0, "learning.periodic_batch must not be negative")
	check(l.FinalBatch >= 0, "learning.final_batch must not be negative")
	check(l.FewShot >= 0, "learning.few_shot must not be negative")
	check(l.HistoryLimit >= 1, "learning.history_limit must be at least 1, got %d", l.HistoryLimit)
	if err := domain.ValidateBucket(l.DefaultBucket); err != nil {
		errs = append(errs, fmt.Errorf("learning.default_bucket: %w", err))
	}

	seen := map[string]struct{}{}
	for _, rule := range c.Rules() {
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("learning.rules: %w", err))
			continue
		}
		if rule.Name == l.DefaultBucket {
			errs = append(errs, fmt.Errorf("learning.rules: rule %q collides with the default bucket", rule.Name))
		}
		if _, dup := seen[rule.Name]; dup {
			errs = append(errs, fmt.Errorf("learning.rules: duplicate rule %q", rule.Name))
		}
		seen[rule.Name] = struct{}{}
	}

	o := c.Oracle
	check(strings.TrimSpace(o.URL) != "", "oracle.url is empty")
	check(o.TextModel != "" && o.VisionModel != "" && o.EmbedModel != "", "oracle models must all be set")
	check(o.Timeout >= 0, "oracle.timeout must not be negative")
	check(o.RetryCount >= 1, "oracle.retry_count must be at least 1, got %d", o.RetryCount)
	check(o.RetryBackoff >= 0 && o.MaxRetryBackoff >= 0, "oracle retry backoff must not be negative")
	check(o.RatePerSecond >= 0, "oracle.rate_per_second must not be negative")
	check(o.Burst >= 0, "oracle.burst must not be negative")

	s := c.Synth
	check(s.MinCommands >= 1, "synth.min_commands must be at least 1, got %d", s.MinCommands)
	check(s.MaxCommands >= s.MinCommands, "synth.max_commands (%d) is below synth.min_commands (%d)", s.MaxCommands, s.MinCommands)
	check(unit(s.ClusterProbability), "synth.cluster_probability must be in [0,1]")
	check(unit(s.DetailProbability), "synth.detail_probability must be in [0,1]")
	check(!slices.Contains(c.Palette(), ""), "synth.palette contains an empty color")
	if len(s.Templates) > 0 {
		if err := c.Catalog().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("synth.templates: %w", err))
		}
	}

	check(c.Cleanup.MaxOutputAge >= 0, "cleanup.max_output_age must not be negative")

	check(slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)),
		"logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	check(slices.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)),
		"logging.format must be text or json, got %q", c.Logging.Format)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

func (c Config) Rules() []domain.Rule {
	rules := make([]domain.Rule, 0, len(c.Learning.Rules))
	for _, rule := range c.Learning.Rules {
		rules = append(rules, domain.Rule{
			Name:        strings.TrimSpace(rule.Name),
			Description: strings.TrimSpace(rule.Description),
		})
	}

	return rules
}

// Catalog returns the configured templates, or the built-in catalog sized to the canvas.
func (c Config) Catalog() domain.Catalog {
	if len(c.Synth.Templates) == 0 {
		return domain.DefaultCatalog(c.Canvas.Width, c.Canvas.Height)
	}

	catalog := make(domain.Catalog, 0, len(c.Synth.Templates))
	for _, tmpl := range c.Synth.Templates {
		params := make([]domain.ParamSpec, 0, len(tmpl.Params))
		for _, p := range tmpl.Params {
			params = append(params, domain.ParamSpec{
				Name:  p.Name,
				Kind:  domain.ParamKind(strings.ToLower(p.Kind)),
				Fixed: p.Fixed,
				Min:   p.Min,
				Max:   p.Max,
			})
		}
		catalog = append(catalog, domain.Template{Command: tmpl.Command, Weight: tmpl.Weight, Params: params})
	}

	return catalog
}

func (c Config) Palette() []string {
	if len(c.Synth.Palette) == 0 {
		return domain.DefaultPalette
	}

	palette := make([]string, 0, len(c.Synth.Palette))
	for _, color := range c.Synth.Palette {
		palette = append(palette, strings.ToLower(strings.TrimSpace(color)))
	}

	return palette
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir, rest)
	}

	return path
}
