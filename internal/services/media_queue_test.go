package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaQueue_RunsInOrder(t *testing.T) {
	q := newMediaQueue()
	defer q.close()

	var got []int
	for i := 0; i < 100; i++ {
		q.submit(func() { got = append(got, i) })
	}
	q.flush()

	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestMediaQueue_CloseDrainsAndRejects(t *testing.T) {
	q := newMediaQueue()

	ran := 0
	q.submit(func() { ran++ })
	q.close()
	assert.Equal(t, 1, ran)

	q.submit(func() { ran++ })
	q.flush()
	q.close()
	assert.Equal(t, 1, ran)
}
