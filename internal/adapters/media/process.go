package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

var (
	ErrBinaryNotFound = errors.New("media binary not found")
	ErrNoAsset        = errors.New("no audio asset loaded")
	ErrAssetNotFound  = errors.New("audio asset not found")
)

// processError wraps a failed media process with its command line and output.
type processError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *processError) Error() string {
	if e.output == "" {
		return fmt.Sprintf("%s: %s", e.cmd, e.wrapped)
	}
	return fmt.Sprintf("%s: %s: %s", e.cmd, e.wrapped, e.output)
}

func (e *processError) Unwrap() error {
	return e.wrapped
}

func newProcessError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	out := string(bytes.TrimSpace(output))
	if len(out) > 500 {
		out = out[:500] + "..."
	}
	return &processError{cmd: cmdStr, output: out, wrapped: err}
}

// lookupBinary resolves a configured binary name or path.
func lookupBinary(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
	}
	return p, nil
}

// checkAsset verifies an audio file exists and is a regular file.
func checkAsset(path string) error {
	if path == "" {
		return ErrNoAsset
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrAssetNotFound, path)
	}
	return nil
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration uses ffprobe to get the duration of an audio file in seconds.
func ProbeDuration(ctx context.Context, ffprobePath, file string) (float64, error) {
	bin, err := lookupBinary(ffprobePath)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		file,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, newProcessError(cmd, stderr.Bytes(), err)
	}

	return parseProbeOutput(out.Bytes())
}

func parseProbeOutput(data []byte) (float64, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" || probe.Format.Duration == "N/A" {
		return 0, errors.New("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return d, nil
}

// Available reports whether a media binary can be found.
func Available(name string) bool {
	_, err := lookupBinary(name)
	return err == nil
}
