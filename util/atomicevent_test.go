package util

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[any]()
	assert.NotNil(t, ae, "NewAtomicEvent should not return nil")
	assert.NotNil(t, ae.notify, "notify channel should be initialized")
	assert.False(t, ae.HasPending(), "fresh event should have nothing pending")
}

func TestSendAndValue(t *testing.T) {
	aeInt := NewAtomicEvent[int]()
	aeInt.Send(123)
	assert.Equal(t, 123, aeInt.Value(), "Value should be 123")

	type testStruct struct {
		Field int
	}
	ts := testStruct{Field: 42}
	aeStruct := NewAtomicEvent[testStruct]()
	aeStruct.Send(ts)
	assert.Equal(t, ts, aeStruct.Value(), "Value should be the test struct")
}

func TestNotificationChannel(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("event1")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-ae.Channel():
		t.Fatal("channel should be empty")
	default:
	}

	// Several sends collapse into one notification
	ae.Send("event2")
	ae.Send("event3")
	assert.True(t, ae.HasPending())
	<-ae.Channel()
	assert.False(t, ae.HasPending())
	assert.Equal(t, "event3", ae.Value(), "Value should be the last event sent")
}

func TestWait_LastValueWins(t *testing.T) {
	ae := NewAtomicEvent[int]()
	ae.Send(1)
	ae.Send(2)
	ae.Send(3)

	v, err := ae.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v, "an absent consumer only sees the newest value")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = ae.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "no backlog should remain after one Wait")
}

func TestWait_BlocksUntilSend(t *testing.T) {
	ae := NewAtomicEvent[string]()
	got := make(chan string, 1)
	go func() {
		v, err := ae.Wait(context.Background())
		if err == nil {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-got:
		t.Fatal("Wait returned before anything was sent")
	default:
	}

	ae.Send("hello")
	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Send")
	}
}

func TestConcurrency(t *testing.T) {
	ae := NewAtomicEvent[int]()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			ae.Send(i)
		}
		close(done)
	}()

	lastRead := -1
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-ae.Channel():
				val := ae.Value()
				if val < lastRead {
					t.Errorf("read a stale value: got %d, last was %d", val, lastRead)
				}
				lastRead = val
			case <-done:
				return
			}
		}
	}()

	readerWg.Wait()
	assert.Equal(t, 999, ae.Value(), "Final value should be 999")
}
