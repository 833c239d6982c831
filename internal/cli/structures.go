package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/outliner/internal/domain/story"
)

func newStructuresCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "structures",
		Short: "List the supported story structures and their beats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(app.Out, renderStructures(story.Styles()))
			return nil
		},
	}
}

func renderStructures(styles []story.Style) string {
	var sb strings.Builder
	for i, style := range styles {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(titleStyle.Render(string(style)))
		sb.WriteString(" ")
		sb.WriteString(labelStyle.Render("(" + style.Key() + ")"))
		sb.WriteString("\n")
		sb.WriteString(style.Description())
		sb.WriteString("\n")

		var rows [][]string
		for _, b := range style.BeatDefs() {
			rows = append(rows, []string{"  " + b.Key, labelStyle.Render(b.Description)})
		}
		sb.WriteString(table(rows))
	}
	return sb.String()
}
