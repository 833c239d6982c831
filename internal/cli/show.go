package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/storage"
)

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <story-dir>",
		Short: "Summarize a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.storyDir(args[0])
			if err != nil {
				return err
			}

			store, release, err := app.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			snapshots := storage.NewSnapshotStore(store, app.cfg.SnapshotFormat(), app.cfg.Output.Consolidate)
			st, err := snapshots.Load(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("loading story %s: %w", args[0], err)
			}

			fmt.Fprint(app.Out, renderStory(st))
			return nil
		},
	}
}

func renderStory(st *story.State) string {
	var sb strings.Builder

	if st.General == nil {
		sb.WriteString(missingStyle.Render("no general details yet"))
		sb.WriteString("\n")
		return sb.String()
	}

	header := []string{
		titleStyle.Render(st.General.Title),
		labelStyle.Render("Genres: ") + strings.Join(st.General.Genres, ", "),
		labelStyle.Render("Themes: ") + strings.Join(st.General.Themes, ", "),
	}
	if st.Structure != nil {
		header = append(header, labelStyle.Render("Structure: ")+string(st.Structure.Style))
	}
	header = append(header, fmt.Sprintf("%s%d  %s%d",
		labelStyle.Render("Characters: "), len(st.Characters),
		labelStyle.Render("Chapters: "), len(st.Chapters)))
	sb.WriteString(boxStyle.Render(strings.Join(header, "\n")))
	sb.WriteString("\n")

	if st.Structure == nil {
		sb.WriteString(missingStyle.Render("structure not generated yet"))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(headingStyle.Render("Structure"))
	sb.WriteString("\n")
	var beats [][]string
	for _, b := range st.Structure.Variant.Beats() {
		beats = append(beats, []string{labelStyle.Render(b.Key), b.Text})
	}
	sb.WriteString(table(beats))

	if len(st.Chapters) == 0 {
		return sb.String()
	}

	sb.WriteString(headingStyle.Render("Chapters"))
	sb.WriteString("\n")
	rows := [][]string{{labelStyle.Render("#"), labelStyle.Render("Scenes"), labelStyle.Render("Title")}}
	for _, ch := range st.Chapters {
		scenes := strconv.Itoa(len(ch.Scenes))
		if len(ch.Scenes) == 0 {
			scenes = missingStyle.Render("-")
		}
		rows = append(rows, []string{strconv.Itoa(ch.Number), scenes, ch.Title})
	}
	sb.WriteString(table(rows))
	return sb.String()
}
