package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/adapters/tui"
)

var playCmd = &cobra.Command{
	Use:   "play [track-id]",
	Short: "Play a guided track",
	Long: `Open the player on a track and start playback. Without a track id a
picker lists the catalog. Unknown ids play the first track.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var trackID string
		if len(args) == 1 {
			trackID = args[0]
		} else {
			result := tui.RunPicker("Play:", app.catalog.Tracks(), &app.config.Theme)
			if result.Aborted {
				return nil
			}
			trackID = result.Track.ID
		}

		return runSession(func() error {
			playTrack(trackID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}

// playTrack opens the player on trackID and presses play.
func playTrack(trackID string) {
	app.machine.SelectTrack(trackID)
	app.machine.TogglePlay()
}
