package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

var errPlayBlocked = errors.New("play blocked")

type fakeBackend struct {
	mu        sync.Mutex
	calls     []string
	playErrs  []error
	subs      map[int]ports.MediaEvents
	nextSub   int
	last      ports.MediaEvents
	gate      chan struct{}
	pauseGate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{subs: make(map[int]ports.MediaEvents)}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Load(assetRef string) error {
	f.record("load:" + assetRef)
	return nil
}

func (f *fakeBackend) Seek(seconds float64) error {
	f.record(fmt.Sprintf("seek:%g", seconds))
	return nil
}

// failNextPlays queues results for the following Play calls.
func (f *fakeBackend) failNextPlays(errs ...error) {
	f.mu.Lock()
	f.playErrs = append(f.playErrs, errs...)
	f.mu.Unlock()
}

// holdPlays makes Play block until the returned function is called.
func (f *fakeBackend) holdPlays() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeBackend) Play(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	f.calls = append(f.calls, "play")
	var err error
	if len(f.playErrs) > 0 {
		err = f.playErrs[0]
		f.playErrs = f.playErrs[1:]
	}
	f.mu.Unlock()
	return err
}

// holdPauses makes Pause block until the returned function is called.
func (f *fakeBackend) holdPauses() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.pauseGate = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeBackend) Pause() error {
	f.mu.Lock()
	gate := f.pauseGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.record("pause")
	return nil
}

func (f *fakeBackend) Subscribe(events ports.MediaEvents) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = events
	f.last = events
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) subscribers() []ports.MediaEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.MediaEvents, 0, len(f.subs))
	for _, s := range f.subs {
		out = append(out, s)
	}
	return out
}

func (f *fakeBackend) lastSubscriber() ports.MediaEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeBackend) position(seconds float64) {
	for _, s := range f.subscribers() {
		s.OnPositionUpdate(seconds)
	}
}

func (f *fakeBackend) metadata(seconds float64) {
	for _, s := range f.subscribers() {
		s.OnMetadataReady(seconds)
	}
}

func (f *fakeBackend) ended() {
	for _, s := range f.subscribers() {
		s.OnEnded()
	}
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeChime struct {
	mu    sync.Mutex
	rings int
	err   error
}

func (c *fakeChime) Ring(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rings++
	return c.err
}

func (c *fakeChime) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rings
}

type fakeTone struct {
	mu    sync.Mutex
	tones int
	err   error
}

func (t *fakeTone) Tone(frequency float64, d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tones++
	return t.err
}

func (t *fakeTone) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tones
}

type recordingRenderer struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (r *recordingRenderer) Render(s domain.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recordingRenderer) all() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func testCatalog() domain.Catalog {
	return domain.MustCatalog([]domain.Track{
		{ID: "one", Title: "One", DurationSeconds: 300, AudioAssetRef: "one.mp3"},
		{ID: "two", Title: "Two", DurationSeconds: 420, AudioAssetRef: "two.mp3", BackgroundRef: 2},
		{ID: "three", Title: "Three", AudioAssetRef: "three.mp3", BackgroundRef: 1},
	})
}

type machineFixture struct {
	machine *SessionMachine
	backend *fakeBackend
	clock   *ManualScheduler
	chime   *fakeChime
	tone    *fakeTone
}

func newFixture(opts MachineOptions) *machineFixture {
	f := &machineFixture{
		backend: newFakeBackend(),
		clock:   NewManualScheduler(),
		chime:   &fakeChime{},
		tone:    &fakeTone{},
	}
	bell := NewBellTrigger(f.chime, f.tone, nil, DefaultBellOptions(), nil)
	f.machine = NewSessionMachine(testCatalog(), f.backend, f.clock, bell, nil, opts)
	return f
}
