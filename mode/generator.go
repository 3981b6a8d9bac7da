package mode

import (
	"math/rand/v2"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"lautenbacher.net/jigleds/animation"
	"lautenbacher.net/jigleds/util"
)

// discretePeriodBase is divided by rate*multiplier to get the interval
// between two draws of the random and sequence modes.
const discretePeriodBase = 5000 * time.Millisecond

// Generator turns a Config into a colour. It keeps the state of the
// stateful modes: the start time, the random source, the sequence and the
// last period a discrete mode was updated in.
type Generator struct {
	start      time.Time
	rng        *rand.Rand
	fib        *util.FibonacciWrapped
	lastPeriod int64
	lastKind   Kind
}

func NewGenerator(start time.Time, rng *rand.Rand) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{
		start:      start,
		rng:        rng,
		fib:        util.NewFibonacciWrapped(),
		lastPeriod: -1,
		lastKind:   -1,
	}
}

// Colour computes the target colour at now. The second result is false
// when a rate limited mode has nothing new in this period; the caller
// should yield and ask again later.
func (g *Generator) Colour(cfg Config, now time.Time) (animation.Led, bool) {
	elapsed := now.Sub(g.start)
	if elapsed < 0 {
		elapsed = 0
	}
	m := cfg.Mode
	speed := float64(m.Rate) * float64(cfg.RateMultiplier)

	if m.Kind != g.lastKind {
		g.lastKind = m.Kind
		g.lastPeriod = -1
	}

	switch m.Kind {
	case SineCycle:
		return HueToLed(SineHue(elapsed.Seconds() * speed)), true
	case LinearRamp:
		return HueToLed(uint8(uint64(elapsed.Seconds()*speed) % 255)), true
	case RandomHue, Sequence:
		period := DiscretePeriod(m.Rate, cfg.RateMultiplier)
		idx := int64(elapsed / period)
		if idx == g.lastPeriod {
			return animation.Led{}, false
		}
		g.lastPeriod = idx
		if m.Kind == RandomHue {
			return HueToLed(uint8(g.rng.IntN(256))), true
		}
		return HueToLed(g.fib.Next()), true
	default:
		return m.Colour, true
	}
}

// SineHue maps sin(x) onto a hue byte. The negative half wave clamps to 0.
func SineHue(x float64) uint8 {
	v := util.Sin(x) * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// DiscretePeriod is the interval between updates of the random and
// sequence modes. It never drops below a millisecond.
func DiscretePeriod(rate uint8, mult Rate) time.Duration {
	div := int64(rate) * int64(mult)
	if div < 1 {
		div = 1
	}
	period := discretePeriodBase / time.Duration(div)
	return max(period, time.Millisecond)
}

// HueToLed converts a hue byte (0..255 for the full circle) at full
// saturation and value.
func HueToLed(hue uint8) animation.Led {
	r, g, b := colorful.Hsv(float64(hue)*360/256, 1, 1).RGB255()
	return animation.Led{Red: r, Green: g, Blue: b}
}
