package domain

// BellEdge detects the natural 1 -> 0 transition of a countdown.
// It stores the previous value explicitly so resets and jumps never fire.
type BellEdge struct {
	prev  int
	known bool
}

// Rebase records a countdown value reached by a jump (timer entry, duration
// change, reset). The next Observe compares against it without firing for
// the jump itself.
func (b *BellEdge) Rebase(current int) {
	b.prev = current
	b.known = true
}

// Observe records a naturally decremented countdown value and reports
// whether it completed the 1 -> 0 edge.
func (b *BellEdge) Observe(current int) bool {
	fire := b.known && b.prev == 1 && current == 0
	b.prev = current
	b.known = true
	return fire
}
