package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/storage"
)

type generateOptions struct {
	premiseFile string
	structure   string
	format      string
	split       bool
	model       string
	noRevise    bool
}

func newGenerateCommand(app *App) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [premise...]",
		Short: "Generate a story outline from a premise",
		Long: `Generate runs every stage for a new story and prints the story directory.

The premise is taken from the arguments or from --premise-file.

Example:
  outliner generate a retired lighthouse keeper finds a message in a bottle
  outliner generate --structure "save the cat" --premise-file premise.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			premise, err := opts.premise(args)
			if err != nil {
				return err
			}
			if err := opts.apply(app); err != nil {
				return err
			}
			return app.run(cmd.Context(), func(ctx context.Context, p *core.Pipeline) (*core.Run, error) {
				return p.Start(ctx, premise)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.premiseFile, "premise-file", "", "read the premise from a file")
	flags.StringVar(&opts.structure, "structure", "", "story structure, e.g. \"three act\" (see outliner structures)")
	flags.StringVar(&opts.format, "format", "", "snapshot format: json or yaml")
	flags.BoolVar(&opts.split, "split", false, "write one file per part instead of a single snapshot")
	flags.StringVar(&opts.model, "model", "", "model for every stage without its own override")
	flags.BoolVar(&opts.noRevise, "no-revise", false, "skip rewriting the premise after the structure stage")
	return cmd
}

func (o *generateOptions) premise(args []string) (string, error) {
	premise := strings.Join(args, " ")
	if o.premiseFile != "" {
		if premise != "" {
			return "", errors.New("give the premise as arguments or with --premise-file, not both")
		}
		data, err := os.ReadFile(o.premiseFile)
		if err != nil {
			return "", fmt.Errorf("reading premise: %w", err)
		}
		premise = string(data)
	}
	premise = strings.TrimSpace(premise)
	if premise == "" {
		return "", errors.New("a premise is required")
	}
	return premise, nil
}

// apply overrides the loaded config with the command flags.
func (o *generateOptions) apply(app *App) error {
	cfg := app.cfg
	if o.structure != "" {
		style, err := story.ParseStyle(o.structure)
		if err != nil {
			return err
		}
		cfg.Story.Structure = string(style)
	}
	if o.format != "" {
		format, err := storage.ParseFormat(o.format)
		if err != nil {
			return err
		}
		cfg.Output.Format = string(format)
	}
	if o.split {
		cfg.Output.Consolidate = false
	}
	if o.model != "" {
		cfg.LLM.Model = o.model
	}
	if o.noRevise {
		cfg.Story.ReviseGeneral = false
	}
	return nil
}
