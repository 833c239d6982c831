package outline

import (
	"context"
	"strings"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/phase"
)

func newGeneral() *story.General { return &story.General{} }

type generalStage struct {
	base
}

func (s *generalStage) Seed(ctx context.Context, premise string) (*story.State, error) {
	premise = strings.TrimSpace(premise)
	if premise == "" {
		return nil, s.precondition("premise")
	}

	data := s.data(nil)
	data.Premise = premise
	msgs, err := s.messages(data, agent.PromptGeneral)
	if err != nil {
		return nil, err
	}

	general, err := phase.GenerateOne(ctx, s.o.gen, s.call(msgs, story.GeneralShape(), s.name), newGeneral)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("premise expanded",
		"title", general.Title,
		"themes", len(general.Themes),
		"genres", len(general.Genres))
	return story.NewState(general), nil
}

// reviseStage rewrites themes, genres and synopsis to match the generated
// structure. The title is kept.
type reviseStage struct {
	base
}

// Complete reports true once the stages after revision have run; a
// revision that was persisted without worldbuilding is simply redone.
func (s *reviseStage) Complete(st *story.State) bool {
	return st.Worldbuilding != nil
}

func (s *reviseStage) Execute(ctx context.Context, st *story.State, _ core.Checkpointer) error {
	if err := s.require(st, StageGeneral, StageStructure); err != nil {
		return err
	}

	msgs, err := s.messages(s.data(st), agent.PromptReviseGeneral)
	if err != nil {
		return err
	}

	revised, err := phase.GenerateOne(ctx, s.o.gen, s.call(msgs, story.GeneralShape(), s.name), newGeneral)
	if err != nil {
		return err
	}

	st.General.Themes = revised.Themes
	st.General.Genres = revised.Genres
	st.General.Synopsis = revised.Synopsis

	s.log(ctx).Info("premise revised", "title", st.General.Title)
	return nil
}
