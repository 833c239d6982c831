package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/outliner/internal/core"
)

func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <story-dir>",
		Short: "Finish a partially generated story",
		Long: `Resume loads a saved story and runs only the stages it is missing.
Chapters that already have scenes are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.storyDir(args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), func(ctx context.Context, p *core.Pipeline) (*core.Run, error) {
				return p.Resume(ctx, dir)
			})
		},
	}
}
