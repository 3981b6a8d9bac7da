// Package animation holds the closed set of strip animations the display
// coordinator can schedule.
//
// Every animation is a resumable frame generator. NextFrame is called at most
// once per scheduling tick and reports false once the animation has ended;
// that state is sticky. Interruptable tells the coordinator whether a queued
// animation may replace this one before it ends. New kinds are added by
// defining another type in this package; the unexported marker keeps the set
// closed.
package animation

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Animation is a strip animation the coordinator can run.
type Animation interface {
	// NextFrame returns the next frame, or false once the animation is over.
	NextFrame() (Frame, bool)
	// Interruptable must be free of side effects.
	Interruptable() bool
	String() string
	animation()
}

// SparkleOption customises a Sparkle at construction.
type SparkleOption func(*Sparkle)

// WithTTL gives the sparkle an expiry ttl after construction, which also
// makes it uninterruptable.
func WithTTL(ttl time.Duration) SparkleOption {
	return func(s *Sparkle) {
		s.ttl = ttl
		s.hasTTL = true
	}
}

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) SparkleOption {
	return func(s *Sparkle) {
		s.now = now
	}
}

// WithSeed fixes the random seed so frames are reproducible.
func WithSeed(seed uint64) SparkleOption {
	return func(s *Sparkle) {
		s.seed = seed
		s.hasSeed = true
	}
}

// Sparkle takes one colour and shows each pixel at a random brightness on
// every frame. Without a TTL it runs forever and is interruptable.
type Sparkle struct {
	colour  Led
	size    int
	ttl     time.Duration
	hasTTL  bool
	expires time.Time
	done    bool
	now     func() time.Time
	seed    uint64
	hasSeed bool
	rng     *rand.Rand
}

func NewSparkle(colour Led, size int, opts ...SparkleOption) *Sparkle {
	inst := &Sparkle{
		colour: colour,
		size:   size,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(inst)
	}
	start := inst.now()
	if !inst.hasSeed {
		// monotonic reading, taken once
		inst.seed = uint64(time.Since(processStart).Nanoseconds()) ^ uint64(start.UnixNano())
	}
	inst.rng = rand.New(rand.NewPCG(inst.seed, inst.seed>>1|1))
	if inst.hasTTL {
		inst.expires = start.Add(inst.ttl)
	}
	return inst
}

var processStart = time.Now()

func (s *Sparkle) NextFrame() (Frame, bool) {
	if s.done {
		return nil, false
	}
	if s.hasTTL && !s.now().Before(s.expires) {
		s.done = true
		return nil, false
	}
	frame := NewFrame(s.size)
	for i := range frame {
		frame[i] = s.colour.Scale(uint8(s.rng.IntN(255)))
	}
	return frame, true
}

func (s *Sparkle) Interruptable() bool {
	return !s.hasTTL
}

func (s *Sparkle) String() string {
	if s.hasTTL {
		return fmt.Sprintf("Sparkle(%d,%d,%d ttl=%s)", s.colour.Red, s.colour.Green, s.colour.Blue, s.ttl)
	}
	return fmt.Sprintf("Sparkle(%d,%d,%d)", s.colour.Red, s.colour.Green, s.colour.Blue)
}

func (s *Sparkle) animation() {}

// Breathe ramps the whole strip between a minimum brightness and full
// brightness and back again. It never ends and can always be interrupted.
type Breathe struct {
	colour     Led
	size       int
	brightness int
	step       int
	min        int
	rising     bool
}

func NewBreathe(colour Led, size int, step, min uint8) *Breathe {
	if step == 0 {
		step = 1
	}
	return &Breathe{
		colour:     colour,
		size:       size,
		brightness: int(min),
		step:       int(step),
		min:        int(min),
		rising:     true,
	}
}

func (b *Breathe) NextFrame() (Frame, bool) {
	if b.rising {
		b.brightness += b.step
		if b.brightness >= 255 {
			b.brightness = 255
			b.rising = false
		}
	} else {
		b.brightness -= b.step
		if b.brightness <= b.min {
			b.brightness = b.min
			b.rising = true
		}
	}
	return SolidFrame(b.size, b.colour.Scale(uint8(b.brightness))), true
}

func (b *Breathe) Interruptable() bool {
	return true
}

func (b *Breathe) String() string {
	return fmt.Sprintf("Breathe(%d,%d,%d)", b.colour.Red, b.colour.Green, b.colour.Blue)
}

func (b *Breathe) animation() {}
