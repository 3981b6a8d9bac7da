package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/jigleds/animation"
)

func TestQueue_FIFOAndCapacity(t *testing.T) {
	q := NewQueue(2)
	a := animation.NewBreathe(red, 1, 1, 0)
	b := animation.NewBreathe(blue, 1, 1, 0)

	_, ok := q.Peek()
	assert.False(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)

	require.NoError(t, q.Push(a))
	require.NoError(t, q.Push(b))
	assert.ErrorIs(t, q.Push(animation.NewBreathe(green, 1, 1, 0)), ErrQueueFull)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.Cap())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Same(t, a, head)
	assert.Equal(t, 2, q.Len(), "peek must not remove")

	head, _ = q.Pop()
	assert.Same(t, a, head)
	head, _ = q.Pop()
	assert.Same(t, b, head)
	assert.Equal(t, 0, q.Len())

	require.NoError(t, q.Push(a), "room again after pops")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(SetAddress{Position: 0x6f}))
	assert.ErrorIs(t, Validate(SetAddress{Position: 0x70}), ErrInvalidCommand)
	assert.ErrorIs(t, Validate(Play{}), ErrInvalidCommand)
	assert.ErrorIs(t, Validate(nil), ErrInvalidCommand)
	assert.NoError(t, Validate(Brightness{Level: 0}))
	assert.NoError(t, Validate(Torch{On: true}))
}

func TestAddressText(t *testing.T) {
	assert.Equal(t, "Position: 0\nAddress: 0x8", AddressText(0))
	assert.Equal(t, "Position: 7\nAddress: 0xf", AddressText(7))
	assert.Equal(t, uint8(0x0b), SetAddress{Position: 3}.Address())
}
