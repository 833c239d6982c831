package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/config"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
)

const (
	generalJSON   = `{"title": "Night Shift", "themes": ["duty | fear"], "genres": ["thriller"], "synopsis": "A guard hears footsteps."}`
	structureJSON = `{"hook": "h", "plot_turn_1": "p1", "pinch_point_1": "pp1", "mid_point": "m", "pinch_point_2": "pp2", "plot_turn_2": "p2", "resolution": "r"}`
	worldJSON     = `{"geography": "A museum."}`
	castJSON      = `[{"name": "Ada", "age": "40", "role": "guard", "description": "tall", "personality": "calm"}]`
	chaptersJSON  = `[
		{"title": "Rounds", "story_structure_point": "hook", "location": "Lobby", "characters": [{"name": "Ada", "status": "bored"}], "synopsis": "Ada walks."},
		{"title": "Noise", "story_structure_point": "plot turn 1", "location": "Hall", "characters": [{"name": "Ada", "status": "alert"}], "synopsis": "Ada hears."}
	]`
	oneSceneJSON  = `[{"summary": "Ada looks.", "characters": [{"name": "Ada", "status": "alert"}], "location": "Hall", "story_beats": ["looks", "listens"]}]`
	twoScenesJSON = `[
		{"summary": "Ada looks.", "characters": [{"name": "Ada", "status": "alert"}], "location": "Hall", "story_beats": ["looks", "listens"]},
		{"summary": "Ada runs.", "characters": [{"name": "Ada", "status": "afraid"}], "location": "Stairs", "story_beats": ["runs", "falls"]}
	]`
)

func scripted(scenes string) TransportFactory {
	replies := map[string]string{
		"GeneralData":           generalJSON,
		"seven_point_structure": structureJSON,
		"WorldbuildingData":     worldJSON,
		"CharacterData":         castJSON,
		"ChapterData":           chaptersJSON,
		"SceneData":             scenes,
	}
	return func(*config.Config, *slog.Logger) agent.Transport {
		return &agent.ScriptedTransport{Func: func(_ context.Context, req agent.Request, _ int) (string, error) {
			reply, ok := replies[req.ResponseFormat.JSONSchema.Name]
			if !ok {
				return "", fmt.Errorf("unexpected schema %s", req.ResponseFormat.JSONSchema.Name)
			}
			return reply, nil
		}}
	}
}

type harness struct {
	t       *testing.T
	cfgPath string
	outDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("OUTLINER_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	h := &harness{
		t:       t,
		cfgPath: filepath.Join(dir, "outliner.yaml"),
		outDir:  filepath.Join(dir, "stories"),
	}
	cfg := fmt.Sprintf(`llm:
  model: test-model
output:
  dir: %s
story:
  chapter_minimum: 1
  scene_minimum: 2
  story_beat_minimum: 2
retries:
  scenes_per_chapter: 2
  invalid_output: 2
  empty_output: 2
log:
  level: error
`, h.outDir)
	require.NoError(t, os.WriteFile(h.cfgPath, []byte(cfg), 0o644))
	return h
}

func (h *harness) run(transport TransportFactory, args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	if transport != nil {
		app.NewTransport = transport
	}
	code := RunApp(context.Background(), app, append([]string{"--config", h.cfgPath}, args...))
	return code, out.String(), errOut.String()
}

func (h *harness) storyDirs() []string {
	entries, err := os.ReadDir(h.outDir)
	require.NoError(h.t, err)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(h.outDir, e.Name()))
		}
	}
	return dirs
}

func TestExitCode(t *testing.T) {
	stageErr := core.NewStageError("scenes", "m", core.KindSceneShortfall, 3, core.ErrTooFewScenes)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"stage error", stageErr, ExitStageFailure},
		{"wrapped stage error", fmt.Errorf("running: %w", stageErr), ExitStageFailure},
		{"explicit code", NewExitError(7, errors.New("x")), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestStructures(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run(nil, "structures")
	require.Equal(t, ExitOK, code)

	require.Len(t, story.Styles(), 11)
	for _, style := range story.Styles() {
		assert.Contains(t, out, string(style))
	}
	assert.Contains(t, out, "plot_turn_1")
	assert.Contains(t, out, "act_3_denouement")
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	code, out, _ := h.run(nil, "config", "init", "--config", path)
	require.Equal(t, ExitOK, code)
	assert.Equal(t, path, strings.TrimSpace(out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "${OPENAI_API_KEY}")
	assert.NotContains(t, string(data), "sk-test")

	code, _, errOut := h.run(nil, "config", "init", "--config", path)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = h.run(nil, "config", "init", "--config", path, "--force")
	assert.Equal(t, ExitOK, code)
}

func TestGenerateAndShow(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run(scripted(twoScenesJSON), "generate", "--structure", "seven point", "a guard hears footsteps")
	require.Equal(t, ExitOK, code, errOut)

	dir := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(dir, h.outDir))
	assert.True(t, strings.HasSuffix(dir, " - Night Shift"))
	assert.FileExists(t, filepath.Join(dir, "story_data.json"))
	assert.FileExists(t, filepath.Join(dir, "logs", "general.json"))

	code, out, errOut = h.run(nil, "show", dir)
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Night Shift")
	assert.Contains(t, out, "Seven Point Story Structure")
	assert.Contains(t, out, "Chapters: 2")
	assert.Contains(t, out, "Rounds")
	assert.Contains(t, out, "Noise")
}

func TestGenerateFlags(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run(scripted(twoScenesJSON), "generate", "--split", "--format", "yaml", "--no-revise", "a guard hears footsteps")
	require.Equal(t, ExitOK, code, errOut)

	dir := strings.TrimSpace(out)
	assert.NoFileExists(t, filepath.Join(dir, "story_data.yaml"))
	assert.FileExists(t, filepath.Join(dir, "general.yaml"))
	assert.FileExists(t, filepath.Join(dir, "characters", "character-1-Ada.yaml"))
	assert.FileExists(t, filepath.Join(dir, "chapters", "Chapter-2", "scene-2.yaml"))
	assert.NoFileExists(t, filepath.Join(dir, "logs", "revise_general.json"))
}

func TestGenerateUsageErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"missing premise", []string{"generate"}, "a premise is required"},
		{"unknown structure", []string{"generate", "--structure", "haiku", "premise"}, "unknown story structure"},
		{"unknown format", []string{"generate", "--format", "mp4", "premise"}, "mp4"},
		{"premise twice", []string{"generate", "--premise-file", "p.txt", "premise"}, "not both"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			code, _, errOut := h.run(scripted(twoScenesJSON), tt.args...)
			assert.Equal(t, ExitFailure, code)
			assert.Contains(t, errOut, tt.errMsg)
		})
	}
}

func TestGenerateStageFailure(t *testing.T) {
	h := newHarness(t)
	empty := func(*config.Config, *slog.Logger) agent.Transport {
		return &agent.ScriptedTransport{Func: func(context.Context, agent.Request, int) (string, error) {
			return "", nil
		}}
	}

	code, out, errOut := h.run(empty, "generate", "a guard hears footsteps")
	assert.Equal(t, ExitStageFailure, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "stage general failed")
	assert.Contains(t, errOut, "test-model")
}

func TestResumeAfterSceneShortfall(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run(scripted(oneSceneJSON), "generate", "a guard hears footsteps")
	require.Equal(t, ExitStageFailure, code)
	assert.Contains(t, errOut, "scene_shortfall")

	dirs := h.storyDirs()
	require.Len(t, dirs, 1)

	code, out, errOut := h.run(nil, "show", dirs[0])
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Chapters: 2")

	code, out, errOut = h.run(scripted(twoScenesJSON), "resume", dirs[0])
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, dirs[0], strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(dirs[0], "logs", "chapter_2_scenes.json"))
}

func TestResumeRejectsOutsidePath(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run(scripted(twoScenesJSON), "resume", filepath.Join(t.TempDir(), "elsewhere"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "not under the output directory")
}
