package services

import (
	"sort"
	"sync"
	"time"

	"github.com/xvierd/zenpath/internal/ports"
)

// SystemScheduler schedules work on the wall clock.
type SystemScheduler struct{}

// NewSystemScheduler creates a wall-clock scheduler.
func NewSystemScheduler() *SystemScheduler {
	return &SystemScheduler{}
}

// AfterFunc implements ports.Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) ports.Cancel {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Every implements ports.Scheduler.
func (SystemScheduler) Every(d time.Duration, f func()) ports.Cancel {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				f()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// ManualScheduler is a virtual clock that only moves when Advance is called.
// Tasks run on the goroutine calling Advance, in due order.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks map[uint64]*manualTask
}

type manualTask struct {
	id     uint64
	due    time.Duration
	period time.Duration
	f      func()
}

// NewManualScheduler creates a virtual clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[uint64]*manualTask)}
}

// AfterFunc implements ports.Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) ports.Cancel {
	return m.add(d, 0, f)
}

// Every implements ports.Scheduler.
func (m *ManualScheduler) Every(d time.Duration, f func()) ports.Cancel {
	return m.add(d, d, f)
}

func (m *ManualScheduler) add(d, period time.Duration, f func()) ports.Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	m.tasks[id] = &manualTask{id: id, due: m.now + d, period: period, f: f}
	return func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()
	}
}

// Advance moves the clock forward by d, running every task that falls due.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			delete(m.tasks, next.id)
		}
		f := next.f
		m.mu.Unlock()

		f()
	}
}

func (m *ManualScheduler) nextDue(target time.Duration) *manualTask {
	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	return due[0]
}

// Now returns the virtual time elapsed since creation.
func (m *ManualScheduler) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled tasks.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

var (
	_ ports.Scheduler = (*SystemScheduler)(nil)
	_ ports.Scheduler = (*ManualScheduler)(nil)
)
