package button

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/jigleds/animation"
	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/mode"
	"lautenbacher.net/jigleds/platform"
)

type fakeButton struct {
	edges chan platform.Edge
	mu    sync.Mutex
	led   []bool
}

func newFakeButton() *fakeButton {
	return &fakeButton{edges: make(chan platform.Edge, 8)}
}

func (b *fakeButton) Edges() <-chan platform.Edge { return b.edges }

func (b *fakeButton) SetIndicator(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.led = append(b.led, on)
}

func (b *fakeButton) indicator() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.led...)
}

func (b *fakeButton) press(at time.Time) {
	b.edges <- platform.NewEdge("button", platform.Low, at)
}

func (b *fakeButton) release(at time.Time) {
	b.edges <- platform.NewEdge("button", platform.High, at)
}

func startClassifier(t *testing.T, conf c.ButtonConfig, shared *mode.Shared) (*Classifier, *fakeButton, context.CancelFunc) {
	t.Helper()
	btn := newFakeButton()
	cl := NewClassifier(conf, btn, btn, shared)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, cl.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cl, btn, cancel
}

func waitEvent(t *testing.T, cl *Classifier) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := cl.Events().Wait(ctx)
	require.NoError(t, err)
	return ev
}

func TestClassify(t *testing.T) {
	th := Thresholds{Debounce: 25 * time.Millisecond, Half: 500 * time.Millisecond, Full: time.Second}
	tests := []struct {
		d     time.Duration
		want  Event
		valid bool
	}{
		{10 * time.Millisecond, 0, false},
		{25 * time.Millisecond, 0, false},
		{26 * time.Millisecond, Tap, true},
		{300 * time.Millisecond, Tap, true},
		{500 * time.Millisecond, Tap, true},
		{501 * time.Millisecond, HoldHalf, true},
		{999 * time.Millisecond, HoldHalf, true},
		{1000 * time.Millisecond, HoldHalf, true},
		{1500 * time.Millisecond, HoldFull, true},
	}
	for _, tt := range tests {
		ev, ok := Classify(tt.d, th)
		assert.Equal(t, tt.valid, ok, "duration %s", tt.d)
		if tt.valid {
			assert.Equal(t, tt.want, ev, "duration %s", tt.d)
		}
	}
}

func TestClassifier_EventsFromEdgeTimestamps(t *testing.T) {
	cl, btn, _ := startClassifier(t, c.Default().Button, nil)
	t0 := time.Now()

	btn.press(t0)
	btn.release(t0.Add(300 * time.Millisecond))
	assert.Equal(t, Tap, waitEvent(t, cl))

	btn.press(t0.Add(time.Second))
	btn.release(t0.Add(time.Second + 700*time.Millisecond))
	assert.Equal(t, HoldHalf, waitEvent(t, cl))

	btn.press(t0.Add(3 * time.Second))
	btn.release(t0.Add(4500 * time.Millisecond))
	assert.Equal(t, HoldFull, waitEvent(t, cl))
}

func TestClassifier_DebounceDropsPress(t *testing.T) {
	cl, btn, _ := startClassifier(t, c.Default().Button, nil)
	t0 := time.Now()

	btn.press(t0)
	btn.release(t0.Add(10 * time.Millisecond))
	assert.Never(t, cl.Events().HasPending, 100*time.Millisecond, 5*time.Millisecond, "bounce must not publish")
}

func TestClassifier_LastEventWins(t *testing.T) {
	cl, btn, _ := startClassifier(t, c.Default().Button, nil)
	t0 := time.Now()

	btn.press(t0)
	btn.release(t0.Add(100 * time.Millisecond))
	btn.press(t0.Add(time.Second))
	btn.release(t0.Add(3 * time.Second))

	require.Eventually(t, func() bool { return cl.Events().Value() == HoldFull }, time.Second, time.Millisecond)
	assert.Equal(t, HoldFull, waitEvent(t, cl), "only the newest event is seen")
	assert.False(t, cl.Events().HasPending())
}

func TestClassifier_IndicatorFollowsPress(t *testing.T) {
	cl, btn, _ := startClassifier(t, c.Default().Button, nil)
	t0 := time.Now()

	btn.press(t0)
	btn.release(t0.Add(200 * time.Millisecond))
	waitEvent(t, cl)
	assert.Equal(t, []bool{true, false}, btn.indicator())
}

func fastButton() c.ButtonConfig {
	conf := c.Default().Button
	conf.Debounce = time.Millisecond
	conf.HalfHold = 40 * time.Millisecond
	conf.FullHold = 80 * time.Millisecond
	return conf
}

func TestClassifier_HoldFeedbackAndRestore(t *testing.T) {
	shared := mode.NewShared(mode.Default())
	before := shared.Read().Mode
	cl, btn, _ := startClassifier(t, fastButton(), shared)

	half := mode.NewStatic(animation.Led{Red: 190, Green: 240, Blue: 255})
	full := mode.NewStatic(animation.Led{Red: 0, Green: 0, Blue: 255})

	t0 := time.Now()
	btn.press(t0)
	require.Eventually(t, func() bool { return shared.Read().Mode == half }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return shared.Read().Mode == full }, time.Second, time.Millisecond)

	btn.release(t0.Add(200 * time.Millisecond))
	assert.Equal(t, HoldFull, waitEvent(t, cl))
	assert.Equal(t, before, shared.Read().Mode, "previous mode restored on release")
}

func TestClassifier_ShortPressLeavesModeAlone(t *testing.T) {
	shared := mode.NewShared(mode.Default())
	cl, btn, _ := startClassifier(t, c.Default().Button, shared)

	t0 := time.Now()
	btn.press(t0)
	btn.release(t0.Add(100 * time.Millisecond))
	assert.Equal(t, Tap, waitEvent(t, cl))
	assert.Equal(t, mode.Default(), shared.Read())
}

func TestClassifier_RestoresOnCancel(t *testing.T) {
	shared := mode.NewShared(mode.Default())
	_, btn, cancel := startClassifier(t, fastButton(), shared)

	btn.press(time.Now())
	require.Eventually(t, func() bool { return shared.Read().Mode.Kind == mode.Static }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return shared.Read().Mode == mode.Default().Mode }, time.Second, time.Millisecond)
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "tap", Tap.String())
	assert.Equal(t, "hold-half", HoldHalf.String())
	assert.Equal(t, "hold-full", HoldFull.String())
}
