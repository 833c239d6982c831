package outline

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/phase"
)

type structureStage struct {
	base
}

func (s *structureStage) Complete(st *story.State) bool {
	return st.Structure != nil
}

func (s *structureStage) Execute(ctx context.Context, st *story.State, _ core.Checkpointer) error {
	if err := s.require(st, StageGeneral); err != nil {
		return err
	}

	style := s.o.settings.Style
	if _, err := story.NewVariant(style); err != nil {
		return s.precondition(err.Error())
	}

	msgs, err := s.messages(s.data(st), agent.PromptStructure)
	if err != nil {
		return err
	}

	newVariant := func() story.Variant {
		v, _ := story.NewVariant(style)
		return v
	}
	variant, err := phase.GenerateOne(ctx, s.o.gen, s.call(msgs, story.StructureShape(style), s.name), newVariant)
	if err != nil {
		return err
	}

	st.Structure = story.NewStructure(variant)
	s.log(ctx).Info("structure outlined", "style", style, "beats", len(variant.Beats()))
	return nil
}

type worldbuildingStage struct {
	base
}

func (s *worldbuildingStage) Complete(st *story.State) bool {
	return st.Worldbuilding != nil
}

func (s *worldbuildingStage) Execute(ctx context.Context, st *story.State, _ core.Checkpointer) error {
	if err := s.require(st, StageGeneral, StageStructure); err != nil {
		return err
	}

	msgs, err := s.messages(s.data(st), agent.PromptWorldbuilding)
	if err != nil {
		return err
	}

	world, err := phase.GenerateOne(ctx, s.o.gen, s.call(msgs, story.WorldbuildingShape(), s.name),
		func() *story.Worldbuilding { return &story.Worldbuilding{} })
	if err != nil {
		return err
	}

	st.Worldbuilding = world
	s.log(ctx).Info("world built")
	return nil
}

type charactersStage struct {
	base
}

func (s *charactersStage) Complete(st *story.State) bool {
	return len(st.Characters) > 0
}

func (s *charactersStage) Execute(ctx context.Context, st *story.State, _ core.Checkpointer) error {
	if err := s.require(st, StageGeneral, StageStructure); err != nil {
		return err
	}

	msgs, err := s.messages(s.data(st), agent.PromptCharacters)
	if err != nil {
		return err
	}

	roster, err := phase.GenerateChecked(ctx, s.o.gen, s.call(msgs, story.CharactersShape(), s.name),
		func() *story.Character { return &story.Character{} },
		story.ValidateRoster)
	if err != nil {
		return err
	}

	st.Characters = make([]story.Character, len(roster))
	for i, c := range roster {
		st.Characters[i] = *c
	}
	s.log(ctx).Info("characters created", "count", len(st.Characters))
	return nil
}

type chaptersStage struct {
	base
}

func (s *chaptersStage) Complete(st *story.State) bool {
	return len(st.Chapters) > 0
}

func (s *chaptersStage) Execute(ctx context.Context, st *story.State, _ core.Checkpointer) error {
	if err := s.require(st, StageGeneral, StageStructure, StageCharacters); err != nil {
		return err
	}

	msgs, err := s.messages(s.data(st), agent.PromptChapterSeed, agent.PromptChapters)
	if err != nil {
		return err
	}

	minimum := s.o.settings.ChapterMinimum
	enough := func(chapters []*story.ChapterOutline) error {
		if len(chapters) < minimum {
			return fmt.Errorf("%w: got %d, need at least %d", core.ErrTooFewChapters, len(chapters), minimum)
		}
		return nil
	}

	chapters, err := phase.GenerateChecked(ctx, s.o.gen, s.call(msgs, story.ChaptersShape(), s.name),
		func() *story.ChapterOutline { return &story.ChapterOutline{} }, enough)
	if err != nil {
		return err
	}

	st.Chapters = make([]story.Chapter, len(chapters))
	for i, ch := range chapters {
		st.Chapters[i] = ch.Chapter()
	}
	story.NumberChapters(st.Chapters)

	for _, ch := range st.Chapters {
		if !st.Structure.HasBeat(ch.StoryStructurePoint) {
			s.log(ctx).Warn("chapter refers to an unknown structure point",
				"chapter", ch.Number,
				"point", ch.StoryStructurePoint)
		}
	}
	s.log(ctx).Info("chapters outlined", "count", len(st.Chapters))
	return nil
}
