package media

import (
	"context"
	"os/exec"

	"github.com/xvierd/zenpath/internal/ports"
)

// FFPlayChime rings the bell by playing a short asset through ffplay.
type FFPlayChime struct {
	FFPlayPath string
	Asset      string
}

// Ring plays the bell asset to completion or until ctx is done.
func (c FFPlayChime) Ring(ctx context.Context) error {
	if err := checkAsset(c.Asset); err != nil {
		return err
	}
	name := c.FFPlayPath
	if name == "" {
		name = "ffplay"
	}
	bin, err := lookupBinary(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		c.Asset,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newProcessError(cmd, out, err)
	}
	return nil
}

var _ ports.Chime = FFPlayChime{}
