package scheduler

import (
	"errors"

	"github.com/gammazero/deque"
	"lautenbacher.net/jigleds/animation"
)

// ErrQueueFull is returned when an animation is queued while the pending
// queue is at capacity. The animation is not queued.
var ErrQueueFull = errors.New("animation queue is full")

// Queue is the bounded FIFO of animations waiting for their turn. It is
// owned by the coordinator goroutine and not safe for concurrent use.
type Queue struct {
	items    deque.Deque[animation.Animation]
	capacity int
}

func NewQueue(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.items.Grow(capacity)
	return q
}

// Push appends a at the back or fails with ErrQueueFull.
func (q *Queue) Push(a animation.Animation) error {
	if q.items.Len() >= q.capacity {
		return ErrQueueFull
	}
	q.items.PushBack(a)
	return nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (animation.Animation, bool) {
	if q.items.Len() == 0 {
		return nil, false
	}
	return q.items.Front(), true
}

// Pop removes and returns the head.
func (q *Queue) Pop() (animation.Animation, bool) {
	if q.items.Len() == 0 {
		return nil, false
	}
	return q.items.PopFront(), true
}

func (q *Queue) Len() int {
	return q.items.Len()
}

func (q *Queue) Cap() int {
	return q.capacity
}
