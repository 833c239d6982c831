package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/storage"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

const (
	appName        = "outliner"
	envPrefix      = "OUTLINER"
	apiKeyEnv      = "OPENAI_API_KEY"
	apiKeyHolder   = "${OPENAI_API_KEY}"
	BackendFS      = "filesystem"
	BackendRedis   = "redis"
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = agent.DefaultBaseURL
)

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Stages    StagesConfig    `mapstructure:"stages" yaml:"stages"`
	Story     StoryConfig     `mapstructure:"story" yaml:"story"`
	Retries   RetryConfig     `mapstructure:"retries" yaml:"retries"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" validate:"gt=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=1"`
	Stream      bool          `mapstructure:"stream" yaml:"stream"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
}

// StageSettings overrides LLMConfig for one stage. Nil fields inherit.
type StageSettings struct {
	Model            string   `mapstructure:"model" yaml:"model,omitempty"`
	Temperature      *float64 `mapstructure:"temperature" yaml:"temperature,omitempty" validate:"omitempty,gt=0,lte=2"`
	MaxTokens        *int     `mapstructure:"max_tokens" yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
	Stream           *bool    `mapstructure:"stream" yaml:"stream,omitempty"`
	FrequencyPenalty *float64 `mapstructure:"frequency_penalty" yaml:"frequency_penalty,omitempty" validate:"omitempty,gte=-2,lte=2"`
}

type StagesConfig struct {
	General       StageSettings `mapstructure:"general" yaml:"general"`
	Structure     StageSettings `mapstructure:"structure" yaml:"structure"`
	Worldbuilding StageSettings `mapstructure:"worldbuilding" yaml:"worldbuilding"`
	Characters    StageSettings `mapstructure:"characters" yaml:"characters"`
	Chapters      StageSettings `mapstructure:"chapters" yaml:"chapters"`
	Scenes        StageSettings `mapstructure:"scenes" yaml:"scenes"`
}

type StoryConfig struct {
	Structure        string `mapstructure:"structure" yaml:"structure" validate:"required,story_structure"`
	ChapterMinimum   int    `mapstructure:"chapter_minimum" yaml:"chapter_minimum" validate:"min=1"`
	SceneMinimum     int    `mapstructure:"scene_minimum" yaml:"scene_minimum" validate:"min=1"`
	StoryBeatMinimum int    `mapstructure:"story_beat_minimum" yaml:"story_beat_minimum" validate:"min=1"`
	ReviseGeneral    bool   `mapstructure:"revise_general" yaml:"revise_general"`
}

type OutputConfig struct {
	Dir         string      `mapstructure:"dir" yaml:"dir" validate:"required"`
	Format      string      `mapstructure:"format" yaml:"format" validate:"required,snapshot_format"`
	Consolidate bool        `mapstructure:"consolidate" yaml:"consolidate"`
	Backend     string      `mapstructure:"backend" yaml:"backend" validate:"oneof=filesystem redis"`
	Redis       RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"min=0"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type TelemetryConfig struct {
	MetricsAddr string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Tracing     TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint" validate:"required_if=Enabled true"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the config file at path (or the resolved default path when
// path is empty), applies OUTLINER_* environment overrides, fills defaults
// and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = Path()
	}

	v := newViper()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := v.ReadConfig(bytes.NewReader([]byte(os.ExpandEnv(string(data))))); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, with environment overrides
// applied.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.finalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", DefaultBaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.temperature", 0.95)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.stream", true)
	v.SetDefault("llm.timeout", 5*time.Minute)
	v.SetDefault("llm.max_retries", 3)

	for _, stage := range []string{"general", "structure", "worldbuilding", "characters", "chapters", "scenes"} {
		tokens := 2048
		if stage == "general" || stage == "structure" {
			tokens = 1024
		}
		v.SetDefault("stages."+stage+".max_tokens", tokens)
		v.SetDefault("stages."+stage+".frequency_penalty", 1.3)
	}

	v.SetDefault("story.structure", string(story.StyleSevenPoint))
	v.SetDefault("story.chapter_minimum", 5)
	v.SetDefault("story.scene_minimum", 3)
	v.SetDefault("story.story_beat_minimum", 3)
	v.SetDefault("story.revise_general", true)

	retries := DefaultRetries()
	v.SetDefault("retries.scenes_per_chapter", retries.ScenesPerChapter)
	v.SetDefault("retries.invalid_output", retries.InvalidOutput)
	v.SetDefault("retries.empty_output", retries.EmptyOutput)

	v.SetDefault("output.dir", defaultOutputDir())
	v.SetDefault("output.format", string(storage.FormatJSON))
	v.SetDefault("output.consolidate", true)
	v.SetDefault("output.backend", BackendFS)
	v.SetDefault("output.redis.addr", "localhost:6379")
	v.SetDefault("output.redis.password", "")
	v.SetDefault("output.redis.db", 0)
	v.SetDefault("output.redis.prefix", appName)

	limits := DefaultRateLimit()
	v.SetDefault("rate_limit.requests_per_minute", limits.RequestsPerMinute)
	v.SetDefault("rate_limit.burst", limits.Burst)

	v.SetDefault("telemetry.metrics_addr", "")
	v.SetDefault("telemetry.tracing.enabled", false)
	v.SetDefault("telemetry.tracing.endpoint", "localhost:4317")
	v.SetDefault("telemetry.tracing.sample_rate", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// finalize resolves values that depend on the environment.
func (c *Config) finalize() {
	if c.LLM.APIKey == "" || c.LLM.APIKey == apiKeyHolder {
		c.LLM.APIKey = os.Getenv(apiKeyEnv)
	}
	if c.Output.Dir == "" {
		c.Output.Dir = defaultOutputDir()
	}
	c.Output.Dir = expandTilde(c.Output.Dir)
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.Backend = strings.ToLower(strings.TrimSpace(c.Output.Backend))
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Path resolves the config file location: OUTLINER_CONFIG, then
// $XDG_CONFIG_HOME/outliner/config.yaml, then ~/.config/outliner/config.yaml.
// The --config flag is handled by the caller.
func Path() string {
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		return expandTilde(path)
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.yaml")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, "config.yaml")
}

func defaultOutputDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName, "stories")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName, "stories")
}

// expandTilde expands a tilde (~) at the beginning of a path to the user's home directory
func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("story_structure", func(fl validator.FieldLevel) bool {
		_, err := story.ParseStyle(fl.Field().String())
		return err == nil
	})

	_ = validate.RegisterValidation("snapshot_format", func(fl validator.FieldLevel) bool {
		_, err := storage.ParseFormat(fl.Field().String())
		return err == nil
	})

	return validate
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Output.Backend == BackendRedis && c.Output.Redis.Addr == "" {
		return errors.New("config validation failed: output.redis.addr is required for the redis backend")
	}
	return nil
}

// StoryStyle returns the configured structure style.
func (c *Config) StoryStyle() story.Style {
	style, err := story.ParseStyle(c.Story.Structure)
	if err != nil {
		return story.StyleSevenPoint
	}
	return style
}

// SnapshotFormat returns the configured snapshot encoding.
func (c *Config) SnapshotFormat() storage.Format {
	f, err := storage.ParseFormat(c.Output.Format)
	if err != nil {
		return storage.FormatJSON
	}
	return f
}

func (c *Config) TracingSettings() telemetry.TracingConfig {
	return telemetry.TracingConfig{
		Enabled:    c.Telemetry.Tracing.Enabled,
		Endpoint:   c.Telemetry.Tracing.Endpoint,
		SampleRate: c.Telemetry.Tracing.SampleRate,
	}
}

// CallSettings returns the effective model settings for a stage: the stage
// override merged over the llm section. revise_general shares the general
// stage's overrides.
func (c *Config) CallSettings(stage string) agent.CallSettings {
	settings := agent.CallSettings{
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Stream:      c.LLM.Stream,
	}

	var o *StageSettings
	switch stage {
	case "general", "revise_general":
		o = &c.Stages.General
	case "structure":
		o = &c.Stages.Structure
	case "worldbuilding":
		o = &c.Stages.Worldbuilding
	case "characters":
		o = &c.Stages.Characters
	case "chapters":
		o = &c.Stages.Chapters
	case "scenes":
		o = &c.Stages.Scenes
	default:
		return settings
	}

	if o.Model != "" {
		settings.Model = o.Model
	}
	if o.Temperature != nil {
		settings.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		settings.MaxTokens = *o.MaxTokens
	}
	if o.Stream != nil {
		settings.Stream = *o.Stream
	}
	if o.FrequencyPenalty != nil {
		penalty := *o.FrequencyPenalty
		settings.FrequencyPenalty = &penalty
	}
	return settings
}

// Save writes cfg to path as YAML. The API key is never written; the
// ${OPENAI_API_KEY} placeholder takes its place.
func Save(cfg *Config, path string) error {
	cfgToSave := *cfg
	cfgToSave.LLM.APIKey = apiKeyHolder

	data, err := yaml.Marshal(&cfgToSave)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
