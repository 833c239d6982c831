// Package outline implements the story outline stages: general premise,
// structure, premise revision, worldbuilding, characters, chapters and
// per-chapter scenes. Each stage renders its prompts from the state built
// so far and runs one or more validated generations.
package outline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/phase"
	"github.com/vampirenirmal/outliner/internal/schema"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

// Stage names. They double as call log names and config keys.
const (
	StageGeneral       = "general"
	StageStructure     = "structure"
	StageReviseGeneral = "revise_general"
	StageWorldbuilding = "worldbuilding"
	StageCharacters    = "characters"
	StageChapters      = "chapters"
	StageScenes        = "scenes"
)

// Settings are the story level knobs of a run.
type Settings struct {
	Style            story.Style
	ChapterMinimum   int
	SceneMinimum     int
	StoryBeatMinimum int
	// SceneAttempts bounds full generations per chapter in the scenes stage.
	SceneAttempts int
	ReviseGeneral bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Style:            story.StyleSevenPoint,
		ChapterMinimum:   5,
		SceneMinimum:     3,
		StoryBeatMinimum: 3,
		SceneAttempts:    30,
		ReviseGeneral:    true,
	}
}

// Outliner builds the stage list of a run.
type Outliner struct {
	gen          *phase.Generator
	prompts      *agent.PromptCache
	settings     Settings
	callSettings func(stage string) agent.CallSettings
	metrics      *telemetry.Metrics
	logger       *slog.Logger
}

type Option func(*Outliner)

// WithCallSettings sets the per-stage model settings lookup.
func WithCallSettings(fn func(stage string) agent.CallSettings) Option {
	return func(o *Outliner) {
		o.callSettings = fn
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Outliner) {
		o.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Outliner) {
		o.logger = logger
	}
}

func New(gen *phase.Generator, prompts *agent.PromptCache, settings Settings, opts ...Option) *Outliner {
	defaults := DefaultSettings()
	if settings.Style == "" {
		settings.Style = defaults.Style
	}
	if settings.ChapterMinimum < 1 {
		settings.ChapterMinimum = defaults.ChapterMinimum
	}
	if settings.SceneMinimum < 1 {
		settings.SceneMinimum = defaults.SceneMinimum
	}
	if settings.StoryBeatMinimum < 1 {
		settings.StoryBeatMinimum = defaults.StoryBeatMinimum
	}
	if settings.SceneAttempts < 1 {
		settings.SceneAttempts = defaults.SceneAttempts
	}

	o := &Outliner{
		gen:          gen,
		prompts:      prompts,
		settings:     settings,
		callSettings: func(string) agent.CallSettings { return agent.CallSettings{} },
		logger:       slog.Default().With("component", "outline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Seeder returns the general stage, which creates the state from a premise.
func (o *Outliner) Seeder() core.Seeder {
	return &generalStage{base: o.stage(StageGeneral)}
}

// Stages returns every stage after general, in execution order.
func (o *Outliner) Stages() []core.Stage {
	stages := []core.Stage{&structureStage{base: o.stage(StageStructure)}}
	if o.settings.ReviseGeneral {
		stages = append(stages, &reviseStage{base: o.stage(StageReviseGeneral)})
	}
	return append(stages,
		&worldbuildingStage{base: o.stage(StageWorldbuilding)},
		&charactersStage{base: o.stage(StageCharacters)},
		&chaptersStage{base: o.stage(StageChapters)},
		&scenesStage{base: o.stage(StageScenes)},
	)
}

// base carries what every stage shares.
type base struct {
	o    *Outliner
	name string
}

func (o *Outliner) stage(name string) base {
	return base{o: o, name: name}
}

func (b base) Name() string { return b.name }

// Model is the model this stage calls.
func (b base) Model() string { return b.o.callSettings(b.name).Model }

func (b base) precondition(missing string) error {
	return core.PreconditionError(b.name, b.Model(), missing)
}

func (b base) log(ctx context.Context) *slog.Logger {
	logger := b.o.logger.With("stage", b.name)
	if id := core.RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}

// call assembles a validated generation for this stage.
func (b base) call(messages []agent.Message, shape schema.Shape, logName string) phase.Call {
	return phase.Call{
		Stage:    b.name,
		Messages: messages,
		Settings: b.o.callSettings(b.name),
		Shape:    &shape,
		LogName:  logName,
	}
}

// messages renders the system prompt followed by one user message per
// named template.
func (b base) messages(data promptData, names ...string) ([]agent.Message, error) {
	system, err := b.o.prompts.Render(agent.PromptSystem, data)
	if err != nil {
		return nil, err
	}
	msgs := []agent.Message{agent.System(system)}
	for _, name := range names {
		text, err := b.o.prompts.Render(name, data)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, agent.User(text))
	}
	return msgs, nil
}

// require returns a precondition error naming the first missing part.
func (b base) require(st *story.State, parts ...string) error {
	for _, part := range parts {
		ok := true
		switch part {
		case StageGeneral:
			ok = st != nil && st.General != nil
		case StageStructure:
			ok = st != nil && st.Structure != nil
		case StageCharacters:
			ok = st != nil && len(st.Characters) > 0
		case StageChapters:
			ok = st != nil && len(st.Chapters) > 0
		}
		if !ok {
			return b.precondition(part)
		}
	}
	return nil
}

// promptData is the template context shared by every prompt.
type promptData struct {
	Premise string
	Story   string

	Style            story.Style
	StyleDescription string
	Beats            []story.BeatDef
	Structure        string

	Roster       string
	ChapterCount int
	SceneCount   int
	BeatCount    int

	Chapter           *story.Chapter
	ChapterCharacters string
	Beat              string
}

func (b base) data(st *story.State) promptData {
	d := promptData{
		Style:            b.o.settings.Style,
		StyleDescription: b.o.settings.Style.Description(),
		Beats:            b.o.settings.Style.BeatDefs(),
		ChapterCount:     b.o.settings.ChapterMinimum + 1,
		SceneCount:       b.o.settings.SceneMinimum + 1,
		BeatCount:        b.o.settings.StoryBeatMinimum,
	}
	if st == nil {
		return d
	}
	if st.General != nil {
		d.Story = trimBlock(st.General.KeyValues())
	}
	if st.Structure != nil {
		d.Style = st.Structure.Style
		d.StyleDescription = st.Structure.Style.Description()
		d.Beats = st.Structure.Style.BeatDefs()
		d.Structure = trimBlock(st.Structure.KeyValues())
	}
	d.Roster = trimBlock(story.Roster(st.Characters))
	return d
}

func trimBlock(s string) string {
	return strings.TrimRight(s, "\n")
}
