package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/ports"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("media backend closed")

const (
	defaultPositionInterval = 500 * time.Millisecond
	defaultStartupGrace     = 300 * time.Millisecond
	probeTimeout            = 10 * time.Second
)

// FFPlayOptions configures an FFPlayBackend.
type FFPlayOptions struct {
	FFPlayPath       string
	FFProbePath      string
	AssetDir         string
	PositionInterval time.Duration
	// StartupGrace is how long Play waits for an early process failure.
	StartupGrace time.Duration
	Scheduler    ports.Scheduler
	Logger       *zap.Logger
}

// FFPlayBackend plays assets by running one headless ffplay process at a
// time. Pausing kills the process and remembers the offset, and resuming
// starts a new process seeked to it.
type FFPlayBackend struct {
	opts   FFPlayOptions
	logger *zap.Logger
	hub    eventHub
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	path      string
	offset    float64
	duration  float64
	loadGen   uint64
	proc      *os.Process
	procGen   uint64
	startedAt time.Time
	stopTick  ports.Cancel
	closed    bool
}

// NewFFPlayBackend creates an ffplay backend. The scheduler drives position
// reports while a process is running.
func NewFFPlayBackend(opts FFPlayOptions) *FFPlayBackend {
	if opts.FFPlayPath == "" {
		opts.FFPlayPath = "ffplay"
	}
	if opts.FFProbePath == "" {
		opts.FFProbePath = "ffprobe"
	}
	if opts.PositionInterval <= 0 {
		opts.PositionInterval = defaultPositionInterval
	}
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = defaultStartupGrace
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FFPlayBackend{
		opts:   opts,
		logger: logger.Named("ffplay"),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ResolveAsset maps a catalog asset reference to a file path. Relative
// references are looked up in the asset directory.
func ResolveAsset(assetDir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) || assetDir == "" {
		return ref
	}
	return filepath.Join(assetDir, ref)
}

func (b *FFPlayBackend) Load(assetRef string) error {
	path := ResolveAsset(b.opts.AssetDir, assetRef)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.stopLocked()
	b.path = path
	b.offset = 0
	b.duration = 0
	b.loadGen++
	gen := b.loadGen
	b.mu.Unlock()

	if err := checkAsset(path); err != nil {
		return err
	}
	go b.probe(gen, path)
	return nil
}

func (b *FFPlayBackend) probe(gen uint64, path string) {
	ctx, cancel := context.WithTimeout(b.ctx, probeTimeout)
	defer cancel()

	d, err := ProbeDuration(ctx, b.opts.FFProbePath, path)
	if err != nil {
		b.logger.Debug("probe failed", zap.String("asset", path), zap.Error(err))
		return
	}

	b.mu.Lock()
	if gen != b.loadGen || b.closed {
		b.mu.Unlock()
		return
	}
	b.duration = d
	b.mu.Unlock()

	b.hub.metadata(d)
}

func (b *FFPlayBackend) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	playing := b.proc != nil
	b.stopLocked()
	b.offset = seconds
	b.mu.Unlock()

	if playing {
		return b.Play(b.ctx)
	}
	return nil
}

func (b *FFPlayBackend) Play(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.proc != nil {
		b.mu.Unlock()
		return nil
	}
	path := b.path
	offset := b.offset
	b.mu.Unlock()

	if err := checkAsset(path); err != nil {
		return err
	}
	bin, err := lookupBinary(b.opts.FFPlayPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(bin,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	started := b.now()
	if err := cmd.Start(); err != nil {
		return newProcessError(cmd, nil, err)
	}
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	grace := time.NewTimer(b.opts.StartupGrace)
	defer grace.Stop()

	select {
	case err := <-exited:
		if err != nil {
			return newProcessError(cmd, stderr.Bytes(), err)
		}
		// The remaining audio was shorter than the grace period.
		b.mu.Lock()
		b.offset = 0
		b.mu.Unlock()
		b.hub.ended()
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-exited
		return ctx.Err()
	case <-grace.C:
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = cmd.Process.Kill()
		return ErrClosed
	}
	b.procGen++
	gen := b.procGen
	b.proc = cmd.Process
	b.startedAt = started
	b.stopTick = b.opts.Scheduler.Every(b.opts.PositionInterval, func() {
		b.reportPosition(gen)
	})
	b.mu.Unlock()

	b.logger.Debug("playback started",
		zap.String("asset", path),
		zap.Float64("offset", offset),
	)

	go b.watch(gen, exited, &stderr)
	return nil
}

func (b *FFPlayBackend) watch(gen uint64, exited <-chan error, stderr *bytes.Buffer) {
	err := <-exited

	b.mu.Lock()
	if gen != b.procGen || b.proc == nil {
		b.mu.Unlock()
		return
	}
	duration := b.duration
	b.proc = nil
	b.offset = 0
	if b.stopTick != nil {
		b.stopTick()
		b.stopTick = nil
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("ffplay exited with error",
			zap.Error(err),
			zap.String("stderr", string(bytes.TrimSpace(stderr.Bytes()))),
		)
	} else if duration > 0 {
		b.hub.position(duration)
	}
	b.hub.ended()
}

func (b *FFPlayBackend) reportPosition(gen uint64) {
	b.mu.Lock()
	if gen != b.procGen || b.proc == nil {
		b.mu.Unlock()
		return
	}
	pos := b.positionLocked()
	b.mu.Unlock()

	b.hub.position(pos)
}

func (b *FFPlayBackend) positionLocked() float64 {
	pos := b.offset
	if b.proc != nil {
		pos += b.now().Sub(b.startedAt).Seconds()
	}
	if b.duration > 0 && pos > b.duration {
		pos = b.duration
	}
	return pos
}

func (b *FFPlayBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.stopLocked()
	return nil
}

// stopLocked kills the running process, keeping its position as the offset.
// The watcher goroutine reaps it.
func (b *FFPlayBackend) stopLocked() {
	if b.proc == nil {
		return
	}
	b.offset = b.positionLocked()
	b.procGen++
	if b.stopTick != nil {
		b.stopTick()
		b.stopTick = nil
	}
	if err := b.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		b.logger.Warn("failed to stop ffplay", zap.Error(err))
	}
	b.proc = nil
}

// Position returns the current playback position in seconds.
func (b *FFPlayBackend) Position() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positionLocked()
}

func (b *FFPlayBackend) Subscribe(events ports.MediaEvents) func() {
	return b.hub.subscribe(events)
}

func (b *FFPlayBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.stopLocked()
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	return nil
}

var _ ports.MediaBackend = (*FFPlayBackend)(nil)
