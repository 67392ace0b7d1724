package domain

import "testing"

func TestBellEdge_NaturalRun(t *testing.T) {
	var b BellEdge
	b.Rebase(2)

	fired := 0
	for _, v := range []int{1, 0, -1, -2} {
		if b.Observe(v) {
			fired++
			if v != 0 {
				t.Errorf("fired at %d, want 0", v)
			}
		}
	}
	if fired != 1 {
		t.Errorf("fired %d times, want 1", fired)
	}
}

func TestBellEdge_ResetNeverFires(t *testing.T) {
	var b BellEdge
	b.Rebase(5)
	b.Rebase(300)
	if b.Observe(299) {
		t.Error("reset followed by a tick must not fire")
	}
}

func TestBellEdge_JumpToZeroFromOne(t *testing.T) {
	var b BellEdge
	b.Rebase(1)
	b.Rebase(0)
	if b.Observe(-1) {
		t.Error("jump must not count as a natural edge")
	}
}

func TestBellEdge_FirstObservationDoesNotFire(t *testing.T) {
	var b BellEdge
	if b.Observe(0) {
		t.Error("no previous value recorded, must not fire")
	}
}
