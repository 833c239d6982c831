package outline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/phase"
	"github.com/vampirenirmal/outliner/internal/phase/outline"
	"github.com/vampirenirmal/outliner/internal/storage"
)

const plotTurn1 = "Mittens is struck by lightning and can suddenly fly."

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func generalReply(title, synopsis string, themes ...string) string {
	return mustJSON(map[string]any{
		"title":    title,
		"themes":   themes,
		"genres":   []string{"fantasy"},
		"synopsis": synopsis,
	})
}

func structureReply() string {
	return mustJSON(map[string]string{
		"hook":          "An ordinary cat naps on a windowsill.",
		"plot_turn_1":   plotTurn1,
		"pinch_point_1": "The neighbourhood dog learns the secret.",
		"mid_point":     "Mittens chooses to protect the city.",
		"pinch_point_2": "The storm returns and takes the power away.",
		"plot_turn_2":   "Mittens finds the power was inside all along.",
		"resolution":    "The city sleeps safely under a watchful cat.",
	})
}

func charactersReply() string {
	return mustJSON([]map[string]string{
		{"name": "Mittens", "age": "3", "role": "protagonist", "description": "orange tabby", "personality": "bold"},
		{"name": "Rex", "age": "5", "role": "rival", "description": "scruffy terrier", "personality": "jealous"},
	})
}

func chaptersReply(points ...string) string {
	chapters := make([]map[string]any, len(points))
	for i, p := range points {
		chapters[i] = map[string]any{
			"title":                 fmt.Sprintf("Chapter title %d", i+1),
			"story_structure_point": p,
			"location":              "The rooftops",
			"characters":            []map[string]string{{"name": "Mittens", "status": "awake"}},
			"synopsis":              "Things happen on the rooftops.",
		}
	}
	return mustJSON(chapters)
}

func scenesReply(count, beats int) string {
	scenes := make([]map[string]any, count)
	for i := range scenes {
		bs := make([]string, beats)
		for j := range bs {
			bs[j] = fmt.Sprintf("beat %d", j+1)
		}
		scenes[i] = map[string]any{
			"summary":     fmt.Sprintf("Scene summary %d", i+1),
			"characters":  []map[string]string{{"name": "Mittens", "status": "curious"}},
			"location":    "A chimney",
			"story_beats": bs,
		}
	}
	return mustJSON(scenes)
}

// script answers each request by the name of its response schema. Calls
// are counted per schema name; n is 1 for the first call of a name.
type script struct {
	replies map[string]func(n int) string
	calls   map[string]int
	reqs    map[string][]agent.Request
}

func newScript() *script {
	return &script{
		replies: map[string]func(int) string{
			"GeneralData": func(n int) string {
				if n == 1 {
					return generalReply("The Cat: Returns", "A cat gets superpowers.", "courage | loyalty")
				}
				return generalReply("Ignored Title", "Revised synopsis.", "redemption")
			},
			"seven_point_structure": func(int) string { return structureReply() },
			"WorldbuildingData": func(int) string {
				return mustJSON(map[string]string{"geography": "A city of rooftops."})
			},
			"CharacterData": func(int) string { return charactersReply() },
			"ChapterData":   func(int) string { return chaptersReply("Plot Turn 1", "hook", "Resolution") },
			"SceneData":     func(int) string { return scenesReply(3, 2) },
		},
		calls: map[string]int{},
		reqs:  map[string][]agent.Request{},
	}
}

func (s *script) transport() *agent.ScriptedTransport {
	return &agent.ScriptedTransport{Func: func(_ context.Context, req agent.Request, _ int) (string, error) {
		name := req.ResponseFormat.JSONSchema.Name
		s.calls[name]++
		s.reqs[name] = append(s.reqs[name], req)
		reply, ok := s.replies[name]
		if !ok {
			return "", fmt.Errorf("no reply scripted for %s", name)
		}
		return reply(s.calls[name]), nil
	}}
}

func testSettings() outline.Settings {
	return outline.Settings{
		Style:            story.StyleSevenPoint,
		ChapterMinimum:   2,
		SceneMinimum:     2,
		StoryBeatMinimum: 2,
		SceneAttempts:    3,
		ReviseGeneral:    true,
	}
}

func newOutliner(tr agent.Transport, settings outline.Settings, opts ...phase.GeneratorOption) *outline.Outliner {
	genOpts := append([]phase.GeneratorOption{
		phase.WithRetryBudgets(3, 3),
		phase.WithLogger(quiet()),
	}, opts...)
	gen := phase.NewGenerator(tr, genOpts...)

	return outline.New(gen, agent.DefaultPrompts(), settings,
		outline.WithLogger(quiet()),
		outline.WithCallSettings(func(string) agent.CallSettings {
			return agent.CallSettings{Model: "test-model"}
		}))
}

type env struct {
	fs        *storage.FileSystem
	snapshots *storage.SnapshotStore
	calls     *storage.CallLog
}

func newEnv(t *testing.T) env {
	fs := storage.NewFileSystem(t.TempDir())
	return env{
		fs:        fs,
		snapshots: storage.NewSnapshotStore(fs, storage.FormatJSON, true),
		calls:     storage.NewCallLog(fs),
	}
}

func (e env) pipeline(o *outline.Outliner) *core.Pipeline {
	return core.NewPipeline(o.Seeder(), o.Stages(), e.snapshots, e.calls, core.WithLogger(quiet()))
}

func TestEndToEnd(t *testing.T) {
	s := newScript()
	e := newEnv(t)
	o := newOutliner(s.transport(), testSettings(), phase.WithRecorder(e.calls))

	run, err := e.pipeline(o).Start(context.Background(), "a cat gets superpowers")
	require.NoError(t, err)
	st := run.State

	t.Run("general is normalized and revised", func(t *testing.T) {
		assert.Equal(t, "The Cat - Returns", st.General.Title)
		assert.Equal(t, []string{"redemption"}, st.General.Themes)
		assert.Equal(t, "Revised synopsis.", st.General.Synopsis)
		assert.Contains(t, run.Dir, " - The Cat - Returns")
	})

	t.Run("every stage is populated", func(t *testing.T) {
		require.NotNil(t, st.Structure)
		assert.Equal(t, plotTurn1, st.Structure.BeatText("Plot Turn 1"))
		require.NotNil(t, st.Worldbuilding)
		assert.Equal(t, "A city of rooftops.", st.Worldbuilding.Geography)
		assert.Len(t, st.Characters, 2)
		assert.Len(t, st.Chapters, 3)
	})

	t.Run("chapters and scenes are numbered by position", func(t *testing.T) {
		for i, ch := range st.Chapters {
			assert.Equal(t, i+1, ch.Number)
			require.Len(t, ch.Scenes, 3)
			for j, sc := range ch.Scenes {
				assert.Equal(t, j+1, sc.Number)
			}
		}
	})

	t.Run("prompts carry the accumulated state", func(t *testing.T) {
		general := s.reqs["GeneralData"][0]
		require.Len(t, general.Messages, 2)
		assert.Equal(t, agent.RoleSystem, general.Messages[0].Role)
		assert.Contains(t, general.Messages[1].Content, "Premise: a cat gets superpowers")

		revise := s.reqs["GeneralData"][1]
		assert.Contains(t, revise.Messages[1].Content, "plot_turn_1: "+plotTurn1)

		chapters := s.reqs["ChapterData"][0]
		require.Len(t, chapters.Messages, 3)
		assert.True(t, strings.HasPrefix(chapters.Messages[1].Content, "Characters: \nname: Mittens"))
		assert.Contains(t, chapters.Messages[2].Content, "at least 3 chapters")
		assert.Contains(t, chapters.Messages[2].Content, "Title: The Cat - Returns")

		scenes := s.reqs["SceneData"][0]
		require.Len(t, scenes.Messages, 3)
		assert.Contains(t, scenes.Messages[1].Content, "Story Structure/Outline: Seven Point Story Structure")
		assert.True(t, strings.HasSuffix(scenes.Messages[1].Content, "Plot Turn 1 - "+plotTurn1))
		assert.Contains(t, scenes.Messages[2].Content, "Relevant Characters: Mittens: awake")
		assert.Equal(t, "test-model", scenes.Settings.Model)
	})

	t.Run("call logs are written", func(t *testing.T) {
		ctx := context.Background()
		for _, name := range []string{"general", "structure", "revise_general", "worldbuilding", "characters", "chapters", "chapter_1_scenes", "chapter_3_scenes"} {
			assert.True(t, e.fs.Exists(ctx, path.Join(run.Dir, "logs", name+".json")), name)
		}
	})

	t.Run("snapshot matches the final state", func(t *testing.T) {
		loaded, err := e.snapshots.Load(context.Background(), run.Dir)
		require.NoError(t, err)
		if diff := cmp.Diff(st, loaded, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStageOrder(t *testing.T) {
	tests := []struct {
		name   string
		revise bool
		want   []string
	}{
		{
			name:   "with revision",
			revise: true,
			want:   []string{"general", "structure", "revise_general", "worldbuilding", "characters", "chapters", "scenes"},
		},
		{
			name:   "without revision",
			revise: false,
			want:   []string{"general", "structure", "worldbuilding", "characters", "chapters", "scenes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			settings.ReviseGeneral = tt.revise
			o := newOutliner(agent.NewScriptedTransport(), settings)
			assert.Equal(t, tt.want, newEnv(t).pipeline(o).StageNames())
		})
	}
}

func TestChapterMinimumIsRetried(t *testing.T) {
	s := newScript()
	s.replies["ChapterData"] = func(n int) string {
		if n == 1 {
			return chaptersReply("hook")
		}
		return chaptersReply("hook", "resolution")
	}

	run, err := newEnv(t).pipeline(newOutliner(s.transport(), testSettings())).Start(context.Background(), "premise")
	require.NoError(t, err)
	assert.Equal(t, 2, s.calls["ChapterData"])
	assert.Len(t, run.State.Chapters, 2)
}

func TestChapterRepliesCannotCarryScenes(t *testing.T) {
	s := newScript()
	s.replies["ChapterData"] = func(n int) string {
		if n > 1 {
			return chaptersReply("hook", "resolution")
		}
		var chapters []map[string]any
		require.NoError(t, json.Unmarshal([]byte(chaptersReply("hook", "resolution")), &chapters))
		for _, ch := range chapters {
			ch["scenes"] = []map[string]string{{"summary": "junk"}}
		}
		return mustJSON(chapters)
	}

	run, err := newEnv(t).pipeline(newOutliner(s.transport(), testSettings())).Start(context.Background(), "premise")
	require.NoError(t, err)

	assert.Equal(t, 2, s.calls["ChapterData"])
	assert.Equal(t, 2, s.calls["SceneData"])
	for _, ch := range run.State.Chapters {
		require.Len(t, ch.Scenes, 3)
		for j, sc := range ch.Scenes {
			assert.Equal(t, j+1, sc.Number)
			assert.Equal(t, fmt.Sprintf("Scene summary %d", j+1), sc.Summary)
			assert.Equal(t, "A chimney", sc.Location)
		}
	}
}

func TestSceneShortfallIsFatal(t *testing.T) {
	s := newScript()
	s.replies["SceneData"] = func(int) string { return scenesReply(1, 2) }

	run, err := newEnv(t).pipeline(newOutliner(s.transport(), testSettings())).Start(context.Background(), "premise")
	require.Error(t, err)

	assert.True(t, core.IsFatal(err))
	assert.Equal(t, "scenes", core.StageOf(err))
	assert.Equal(t, core.KindSceneShortfall, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrTooFewScenes)
	assert.Contains(t, err.Error(), "chapter 1")
	assert.Contains(t, err.Error(), "test-model")

	assert.Equal(t, 3, s.calls["SceneData"])
	require.NotNil(t, run)
	assert.Empty(t, run.State.Chapters[0].Scenes)
}

func TestSceneBeatMinimumIsRetried(t *testing.T) {
	s := newScript()
	s.replies["SceneData"] = func(n int) string {
		if n == 1 {
			return scenesReply(3, 1)
		}
		return scenesReply(2, 2)
	}

	run, err := newEnv(t).pipeline(newOutliner(s.transport(), testSettings())).Start(context.Background(), "premise")
	require.NoError(t, err)
	assert.Equal(t, 4, s.calls["SceneData"])
	for _, ch := range run.State.Chapters {
		assert.Len(t, ch.Scenes, 2)
	}
}

func TestUnknownStructurePointUsesPlaceholder(t *testing.T) {
	s := newScript()
	s.replies["ChapterData"] = func(int) string { return chaptersReply("Act Nine", "hook") }

	_, err := newEnv(t).pipeline(newOutliner(s.transport(), testSettings())).Start(context.Background(), "premise")
	require.NoError(t, err)

	seed := s.reqs["SceneData"][0].Messages[1].Content
	assert.True(t, strings.HasSuffix(seed, "Act Nine - "+story.BeatNotFound))
}

func TestPreconditions(t *testing.T) {
	tr := agent.NewScriptedTransport()
	o := newOutliner(tr, testSettings())

	for _, stage := range o.Stages() {
		t.Run(stage.Name(), func(t *testing.T) {
			err := stage.Execute(context.Background(), &story.State{}, nopCheckpointer{})
			require.Error(t, err)
			assert.Equal(t, core.KindPrecondition, core.KindOf(err))
			assert.Equal(t, stage.Name(), core.StageOf(err))
			assert.ErrorIs(t, err, core.ErrMissingPrerequisite)
			assert.Contains(t, err.Error(), "with model test-model")
		})
	}

	t.Run("empty premise", func(t *testing.T) {
		_, err := o.Seeder().Seed(context.Background(), "   ")
		assert.Equal(t, core.KindPrecondition, core.KindOf(err))
		assert.Contains(t, err.Error(), "with model test-model")
	})

	assert.Equal(t, 0, tr.Calls())
}

type nopCheckpointer struct{}

func (nopCheckpointer) Checkpoint(context.Context, *story.State) error { return nil }

type countingCheckpointer struct{ n int }

func (c *countingCheckpointer) Checkpoint(context.Context, *story.State) error {
	c.n++
	return nil
}

func partialState(t *testing.T) *story.State {
	t.Helper()
	var v story.SevenPoint
	require.NoError(t, json.Unmarshal([]byte(structureReply()), &v))

	st := story.NewState(&story.General{Title: "T", Themes: []string{"a"}, Genres: []string{"b"}, Synopsis: "s"})
	st.Structure = story.NewStructure(&v)
	st.Characters = []story.Character{{Name: "Mittens", Age: "3", Role: "hero", Description: "d", Personality: "p"}}
	st.Chapters = []story.Chapter{
		{Title: "One", Number: 1, StoryStructurePoint: "hook", Location: "l", Synopsis: "s",
			Scenes: []story.Scene{{Summary: "kept", Number: 1, StoryBeats: []string{"x"}}}},
		{Title: "Two", Number: 2, StoryStructurePoint: "mid point", Location: "l", Synopsis: "s"},
	}
	return st
}

func TestScenesResumeSkipsChaptersWithScenes(t *testing.T) {
	s := newScript()
	o := newOutliner(s.transport(), testSettings())

	var scenes core.Stage
	for _, stage := range o.Stages() {
		if stage.Name() == outline.StageScenes {
			scenes = stage
		}
	}
	require.NotNil(t, scenes)

	st := partialState(t)
	assert.False(t, scenes.Complete(st))

	cp := &countingCheckpointer{}
	require.NoError(t, scenes.Execute(context.Background(), st, cp))

	assert.Equal(t, 1, s.calls["SceneData"])
	assert.Equal(t, 1, cp.n)
	assert.Equal(t, "kept", st.Chapters[0].Scenes[0].Summary)
	assert.Len(t, st.Chapters[1].Scenes, 3)
	assert.True(t, scenes.Complete(st))

	seed := s.reqs["SceneData"][0].Messages[1].Content
	assert.True(t, strings.HasSuffix(seed, "mid point - Mittens chooses to protect the city."))
}

func TestResumeRunsRemainingStages(t *testing.T) {
	s := newScript()
	e := newEnv(t)
	ctx := context.Background()

	st := partialState(t)
	st.Worldbuilding = &story.Worldbuilding{Culture: "Cats rule."}
	require.NoError(t, e.snapshots.Save(ctx, "story", st))

	run, err := e.pipeline(newOutliner(s.transport(), testSettings())).Resume(ctx, "story")
	require.NoError(t, err)

	assert.Equal(t, 1, s.calls["SceneData"])
	assert.Zero(t, s.calls["GeneralData"])
	assert.Zero(t, s.calls["ChapterData"])
	assert.Len(t, run.State.Chapters[1].Scenes, 3)
}
