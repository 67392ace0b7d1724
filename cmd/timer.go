package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/domain"
)

var (
	timerDuration time.Duration
	timerMode     string
	timerStart    bool
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Open the sharing timer",
	Long: `Open the sharing timer directly. The duration must be one of the presets
(1m, 3m, 5m, 20m); --mode main selects 5m and --mode supplement 3m.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if timerDuration != 0 && timerMode != "" {
			return fmt.Errorf("--duration and --mode cannot be combined")
		}
		seconds, err := timerSeconds()
		if err != nil {
			return err
		}

		return runSession(func() error {
			app.machine.OpenTimer()
			if seconds > 0 {
				if err := app.machine.SetDuration(seconds); err != nil {
					return err
				}
			}
			if timerStart {
				app.machine.TogglePlay()
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().DurationVarP(&timerDuration, "duration", "d", 0, "Timer preset, e.g. 3m")
	timerCmd.Flags().StringVarP(&timerMode, "mode", "m", "", "Sharing mode: main or supplement")
	timerCmd.Flags().BoolVar(&timerStart, "start", false, "Start the countdown immediately")
}

// timerSeconds resolves the flags to a preset, or 0 to keep the default.
func timerSeconds() (int, error) {
	if timerMode != "" {
		mode, err := domain.ParseSharingMode(timerMode)
		if err != nil {
			return 0, err
		}
		return mode.DurationSeconds(), nil
	}
	if timerDuration == 0 {
		return 0, nil
	}
	seconds := int(timerDuration / time.Second)
	if timerDuration%time.Second != 0 || !domain.IsPreset(seconds) {
		return 0, fmt.Errorf("%w: %s (presets: %s)", domain.ErrInvalidDuration, timerDuration, presetList())
	}
	return seconds, nil
}

func presetList() string {
	parts := make([]string, len(domain.TimerPresets))
	for i, p := range domain.TimerPresets {
		parts[i] = (time.Duration(p) * time.Second).String()
	}
	return strings.Join(parts, ", ")
}
