package outline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/phase"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

// scenesStage breaks every chapter into scenes, one chapter at a time.
// Chapters that already have scenes are skipped, so a resumed run picks up
// at the first chapter without them.
type scenesStage struct {
	base
}

func (s *scenesStage) Complete(st *story.State) bool {
	if len(st.Chapters) == 0 {
		return false
	}
	for _, ch := range st.Chapters {
		if len(ch.Scenes) == 0 {
			return false
		}
	}
	return true
}

func (s *scenesStage) Execute(ctx context.Context, st *story.State, cp core.Checkpointer) error {
	if err := s.require(st, StageGeneral, StageStructure, StageCharacters, StageChapters); err != nil {
		return err
	}

	for i := range st.Chapters {
		ch := &st.Chapters[i]
		if len(ch.Scenes) > 0 {
			s.log(ctx).Debug("chapter already has scenes", "chapter", ch.Number)
			continue
		}

		scenes, err := s.chapterScenes(ctx, st, ch)
		if err != nil {
			return err
		}

		ch.Scenes = scenes
		s.o.metrics.AddScenes(len(scenes))
		if err := cp.Checkpoint(ctx, st); err != nil {
			return fmt.Errorf("saving scenes of chapter %d: %w", ch.Number, err)
		}
	}
	return nil
}

// chapterScenes runs full validated generations until one meets the scene
// and story beat minimums, up to the configured number of attempts.
func (s *scenesStage) chapterScenes(ctx context.Context, st *story.State, ch *story.Chapter) ([]story.Scene, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "scenes.chapter", trace.WithAttributes(
		attribute.Int("chapter", ch.Number),
	))
	defer span.End()

	logger := s.log(ctx).With("chapter", ch.Number)

	beat := st.Structure.BeatText(ch.StoryStructurePoint)
	if beat == story.BeatNotFound {
		logger.Warn("structure point not found in outline", "point", ch.StoryStructurePoint)
	}

	data := s.data(st)
	data.Chapter = ch
	data.ChapterCharacters = story.CharacterStatuses(ch.Characters)
	data.Beat = beat

	msgs, err := s.messages(data, agent.PromptSceneSeed, agent.PromptScenes)
	if err != nil {
		return nil, err
	}

	attempts := s.o.settings.SceneAttempts
	var lastShortfall error
	for attempt := 1; attempt <= attempts; attempt++ {
		logName := fmt.Sprintf("chapter_%d_scenes", ch.Number)
		if attempt > 1 {
			logName = fmt.Sprintf("%s_attempt_%d", logName, attempt)
		}

		generated, err := phase.Generate(ctx, s.o.gen, s.call(msgs, story.ScenesShape(), logName),
			func() *story.Scene { return &story.Scene{} })
		if err != nil {
			return nil, err
		}

		if lastShortfall = s.shortfall(generated); lastShortfall != nil {
			s.o.metrics.FailedAttempt(s.name, string(core.KindSceneShortfall))
			logger.Warn("scene result below minimum, retrying",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", lastShortfall)
			continue
		}

		scenes := make([]story.Scene, len(generated))
		for i, sc := range generated {
			scenes[i] = *sc
		}
		story.NumberScenes(scenes)

		span.SetAttributes(attribute.Int("scenes", len(scenes)), attribute.Int("attempts", attempt))
		logger.Info("chapter scenes generated", "scenes", len(scenes), "attempt", attempt)
		return scenes, nil
	}

	err = core.NewStageError(s.name, s.Model(), core.KindSceneShortfall, attempts,
		fmt.Errorf("chapter %d %q: %w", ch.Number, ch.Title, lastShortfall))
	span.RecordError(err)
	return nil, err
}

func (s *scenesStage) shortfall(scenes []*story.Scene) error {
	if len(scenes) < s.o.settings.SceneMinimum {
		return fmt.Errorf("%w: got %d, need at least %d", core.ErrTooFewScenes, len(scenes), s.o.settings.SceneMinimum)
	}
	for i, sc := range scenes {
		if len(sc.StoryBeats) < s.o.settings.StoryBeatMinimum {
			return fmt.Errorf("%w: scene %d has %d story beats, need at least %d",
				core.ErrTooFewScenes, i+1, len(sc.StoryBeats), s.o.settings.StoryBeatMinimum)
		}
	}
	return nil
}
