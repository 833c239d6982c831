package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/storage"
)

// isolate points every path and key lookup at a temp dir so the host
// environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("OUTLINER_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"base url", cfg.LLM.BaseURL, "https://api.openai.com/v1"},
		{"api key from env", cfg.LLM.APIKey, "sk-from-env"},
		{"model", cfg.LLM.Model, "gpt-4o-mini"},
		{"temperature", cfg.LLM.Temperature, 0.95},
		{"max tokens", cfg.LLM.MaxTokens, 2048},
		{"stream", cfg.LLM.Stream, true},
		{"timeout", cfg.LLM.Timeout, 5 * time.Minute},
		{"max retries", cfg.LLM.MaxRetries, 3},
		{"structure", cfg.StoryStyle(), story.StyleSevenPoint},
		{"chapter minimum", cfg.Story.ChapterMinimum, 5},
		{"scene minimum", cfg.Story.SceneMinimum, 3},
		{"beat minimum", cfg.Story.StoryBeatMinimum, 3},
		{"revise general", cfg.Story.ReviseGeneral, true},
		{"scene retries", cfg.Retries.ScenesPerChapter, 30},
		{"invalid retries", cfg.Retries.InvalidOutput, 10},
		{"empty retries", cfg.Retries.EmptyOutput, 10},
		{"output dir", cfg.Output.Dir, filepath.Join(dir, "data", "outliner", "stories")},
		{"format", cfg.SnapshotFormat(), storage.FormatJSON},
		{"consolidate", cfg.Output.Consolidate, true},
		{"backend", cfg.Output.Backend, BackendFS},
		{"redis addr", cfg.Output.Redis.Addr, "localhost:6379"},
		{"redis prefix", cfg.Output.Redis.Prefix, "outliner"},
		{"rpm", cfg.RateLimit.RequestsPerMinute, 60},
		{"burst", cfg.RateLimit.Burst, 5},
		{"metrics addr", cfg.Telemetry.MetricsAddr, ""},
		{"tracing", cfg.Telemetry.Tracing.Enabled, false},
		{"tracing endpoint", cfg.Telemetry.Tracing.Endpoint, "localhost:4317"},
		{"sample rate", cfg.Telemetry.Tracing.SampleRate, 1.0},
		{"log level", cfg.Log.Level, "info"},
		{"log format", cfg.Log.Format, "text"},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Errorf("got %v, want %v", c.got, c.want)
			}
		})
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
llm:
  model: gpt-4.1
  temperature: 0.5
  timeout: 90s
stages:
  chapters:
    model: big-model
    max_tokens: 4096
story:
  structure: save_the_cat
  chapter_minimum: 8
output:
  dir: ~/stories
  format: YAML
  consolidate: false
`)
	t.Setenv("OUTLINER_LLM_STREAM", "false")
	t.Setenv("OUTLINER_STORY_SCENE_MINIMUM", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Model != "gpt-4.1" || cfg.LLM.Temperature != 0.5 {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.LLM.Timeout)
	}
	if cfg.LLM.Stream {
		t.Error("OUTLINER_LLM_STREAM=false should disable streaming")
	}
	if cfg.Story.SceneMinimum != 4 {
		t.Errorf("scene minimum = %d, want 4 from env", cfg.Story.SceneMinimum)
	}
	if cfg.StoryStyle() != story.StyleSaveTheCat {
		t.Errorf("structure = %q", cfg.StoryStyle())
	}
	if cfg.Story.ChapterMinimum != 8 {
		t.Errorf("chapter minimum = %d", cfg.Story.ChapterMinimum)
	}
	if cfg.SnapshotFormat() != storage.FormatYAML || cfg.Output.Consolidate {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Output.Dir != filepath.Join(dir, "stories") {
		t.Errorf("output dir = %q, want tilde expanded", cfg.Output.Dir)
	}

	chapters := cfg.CallSettings("chapters")
	if chapters.Model != "big-model" || chapters.MaxTokens != 4096 {
		t.Errorf("chapters settings = %+v", chapters)
	}
	if chapters.FrequencyPenalty == nil || *chapters.FrequencyPenalty != 1.3 {
		t.Error("chapters should keep the default frequency penalty")
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "llm: [not, a, map")

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestConfigValidation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: true,
			errMsg:  "Model",
		},
		{
			name:    "invalid base URL",
			mutate:  func(c *Config) { c.LLM.BaseURL = "not-a-url" },
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "zero temperature",
			mutate:  func(c *Config) { c.LLM.Temperature = 0 },
			wantErr: true,
			errMsg:  "Temperature",
		},
		{
			name:    "retries too high",
			mutate:  func(c *Config) { c.LLM.MaxRetries = 11 },
			wantErr: true,
			errMsg:  "MaxRetries",
		},
		{
			name:    "unknown structure",
			mutate:  func(c *Config) { c.Story.Structure = "Don't Save the Cat" },
			wantErr: true,
			errMsg:  "Structure",
		},
		{
			name:    "zero chapter minimum",
			mutate:  func(c *Config) { c.Story.ChapterMinimum = 0 },
			wantErr: true,
			errMsg:  "ChapterMinimum",
		},
		{
			name:    "unknown snapshot format",
			mutate:  func(c *Config) { c.Output.Format = "mp4" },
			wantErr: true,
			errMsg:  "Format",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Output.Backend = "s3" },
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name: "redis backend needs an address",
			mutate: func(c *Config) {
				c.Output.Backend = BackendRedis
				c.Output.Redis.Addr = ""
			},
			wantErr: true,
			errMsg:  "redis.addr",
		},
		{
			name: "tracing needs an endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			wantErr: true,
			errMsg:  "Endpoint",
		},
		{
			name: "stage override out of range",
			mutate: func(c *Config) {
				bad := 3.0
				c.Stages.Scenes.Temperature = &bad
			},
			wantErr: true,
			errMsg:  "Temperature",
		},
		{
			name:   "local endpoint without key",
			mutate: func(c *Config) { c.LLM.APIKey = ""; c.LLM.BaseURL = "http://localhost:11434/v1" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestCallSettings(t *testing.T) {
	isolate(t)
	cfg := Default()

	tests := []struct {
		stage       string
		wantTokens  int
		wantPenalty bool
	}{
		{stage: "general", wantTokens: 1024, wantPenalty: true},
		{stage: "structure", wantTokens: 1024, wantPenalty: true},
		{stage: "revise_general", wantTokens: 1024, wantPenalty: true},
		{stage: "worldbuilding", wantTokens: 2048, wantPenalty: true},
		{stage: "characters", wantTokens: 2048, wantPenalty: true},
		{stage: "chapters", wantTokens: 2048, wantPenalty: true},
		{stage: "scenes", wantTokens: 2048, wantPenalty: true},
		{stage: "unknown", wantTokens: 2048, wantPenalty: false},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			s := cfg.CallSettings(tt.stage)
			if s.Model != DefaultModel {
				t.Errorf("Model = %q", s.Model)
			}
			if s.MaxTokens != tt.wantTokens {
				t.Errorf("MaxTokens = %d, want %d", s.MaxTokens, tt.wantTokens)
			}
			if (s.FrequencyPenalty != nil) != tt.wantPenalty {
				t.Errorf("FrequencyPenalty = %v, want set=%v", s.FrequencyPenalty, tt.wantPenalty)
			}
			if !s.Stream || s.Temperature != 0.95 {
				t.Errorf("inherited settings = %+v", s)
			}
		})
	}

	t.Run("override does not alias config", func(t *testing.T) {
		s := cfg.CallSettings("scenes")
		*s.FrequencyPenalty = 0
		if *cfg.Stages.Scenes.FrequencyPenalty != 1.3 {
			t.Error("CallSettings leaked a pointer into the config")
		}
	})
}

func TestSaveWritesPlaceholder(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.LLM.APIKey = "sk-secret"
	cfg.Story.ChapterMinimum = 7
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("saved config contains the API key")
	}
	if !strings.Contains(string(data), "${OPENAI_API_KEY}") {
		t.Error("saved config lacks the API key placeholder")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LLM.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want value from env", loaded.LLM.APIKey)
	}
	if loaded.Story.ChapterMinimum != 7 || loaded.LLM.Timeout != 5*time.Minute {
		t.Errorf("round trip lost values: %+v", loaded.Story)
	}
}

func TestPath(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "explicit env var",
			env:  map[string]string{"OUTLINER_CONFIG": "/etc/outliner.yaml"},
			want: "/etc/outliner.yaml",
		},
		{
			name: "xdg config home",
			env:  map[string]string{"XDG_CONFIG_HOME": "/xdg"},
			want: filepath.Join("/xdg", "outliner", "config.yaml"),
		},
		{
			name: "home fallback",
			want: filepath.Join(dir, ".config", "outliner", "config.yaml"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := Path(); got != tt.want {
				t.Errorf("Path() = %q, want %q", got, tt.want)
			}
		})
	}
}
