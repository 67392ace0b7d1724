package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/domain"
)

var (
	tracksSearch string
	tracksJSON   bool
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the guided tracks",
	Long:  `List the tracks in the catalog, optionally fuzzy-filtered by id, title or subtitle.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracks := searchCatalog(tracksSearch)
		out := cmd.OutOrStdout()

		if tracksJSON {
			data := map[string]interface{}{
				"tracks": tracks,
				"count":  len(tracks),
			}
			jsonData, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal tracks: %w", err)
			}
			fmt.Fprintln(out, string(jsonData))
			return nil
		}

		if len(tracks) == 0 {
			fmt.Fprintln(out, "No tracks found.")
			return nil
		}
		printTracks(out, tracks, terminalWidth())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)
	tracksCmd.Flags().StringVarP(&tracksSearch, "search", "s", "", "Fuzzy filter")
	tracksCmd.Flags().BoolVar(&tracksJSON, "json", false, "Output results in JSON format")
}

// terminalWidth returns the stdout width, or 80 when it is not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// printTracks writes one line per track, truncating titles to fit width.
func printTracks(w io.Writer, tracks []domain.Track, width int) {
	idWidth := 2
	for _, t := range tracks {
		idWidth = max(idWidth, runewidth.StringWidth(t.ID))
	}
	// id, two gaps, and the mm:ss column
	titleWidth := max(width-idWidth-4-5, 10)

	fmt.Fprintf(w, "Tracks (%d):\n\n", len(tracks))
	for _, t := range tracks {
		length := "--:--"
		if t.DurationSeconds > 0 {
			length = domain.FormatClock(t.DurationSeconds)
		}
		title := t.Title
		if t.Subtitle != "" {
			title += " · " + t.Subtitle
		}
		title = runewidth.Truncate(title, titleWidth, "…")
		pad := strings.Repeat(" ", max(titleWidth-runewidth.StringWidth(title), 0))
		fmt.Fprintf(w, "%s%s  %s%s  %s\n",
			t.ID, strings.Repeat(" ", idWidth-runewidth.StringWidth(t.ID)),
			title, pad, length)
	}
}
