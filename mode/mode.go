// Package mode holds the shared configuration of the procedural colour
// modes and the waveforms that turn it into a colour.
package mode

import (
	"fmt"
	"sync"

	"lautenbacher.net/jigleds/animation"
	c "lautenbacher.net/jigleds/config"
)

type Kind int

const (
	SineCycle Kind = iota
	LinearRamp
	RandomHue
	Sequence
	Static
	kindCount
)

var kindNames = [...]string{"sine", "ramp", "random", "sequence", "static"}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Next returns the kind after k, wrapping around.
func (k Kind) Next() Kind {
	return (k + 1) % kindCount
}

func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode kind %q", name)
}

// Brightness is the global strip level of the procedural modes.
type Brightness uint8

const (
	Low    Brightness = 10
	Medium Brightness = 100
	High   Brightness = 200
	Max    Brightness = 255
)

// Rate scales the time based rate of a mode. The steps roughly follow an
// exponential curve.
type Rate uint8

const (
	VerySlow Rate = 1
	Slow     Rate = 3
	Moderate Rate = 7
	Fast     Rate = 20
	VeryFast Rate = 55
)

var (
	brightnessByName = map[string]Brightness{"low": Low, "medium": Medium, "high": High, "max": Max}
	rateByName       = map[string]Rate{"veryslow": VerySlow, "slow": Slow, "moderate": Moderate, "fast": Fast, "veryfast": VeryFast}
)

// Mode is one of the procedural modes. Rate is used by every kind but
// Static, Colour only by Static.
type Mode struct {
	Kind   Kind
	Rate   uint8
	Colour animation.Led
}

func NewSineCycle(rate uint8) Mode  { return Mode{Kind: SineCycle, Rate: rate} }
func NewLinearRamp(rate uint8) Mode { return Mode{Kind: LinearRamp, Rate: rate} }
func NewRandomHue(rate uint8) Mode  { return Mode{Kind: RandomHue, Rate: rate} }
func NewSequence(rate uint8) Mode   { return Mode{Kind: Sequence, Rate: rate} }
func NewStatic(colour animation.Led) Mode {
	return Mode{Kind: Static, Colour: colour}
}

func (m Mode) String() string {
	if m.Kind == Static {
		return fmt.Sprintf("static(%d,%d,%d)", m.Colour.Red, m.Colour.Green, m.Colour.Blue)
	}
	return fmt.Sprintf("%s(%d)", m.Kind, m.Rate)
}

// Config is the whole shared state of the procedural modes.
type Config struct {
	Mode           Mode
	Brightness     Brightness
	RateMultiplier Rate
}

// Default is the configuration the fixture powers up with.
func Default() Config {
	return Config{
		Mode:           NewSineCycle(1),
		Brightness:     Low,
		RateMultiplier: VerySlow,
	}
}

// FromConfig converts a validated Mode section of the config file.
func FromConfig(mc c.ModeConfig) (Config, error) {
	kind, err := ParseKind(mc.Kind)
	if err != nil {
		return Config{}, err
	}
	brightness, ok := brightnessByName[mc.Brightness]
	if !ok {
		return Config{}, fmt.Errorf("unknown brightness %q", mc.Brightness)
	}
	rate, ok := rateByName[mc.RateMultiplier]
	if !ok {
		return Config{}, fmt.Errorf("unknown rate multiplier %q", mc.RateMultiplier)
	}
	if mc.Rate < 1 || mc.Rate > 255 {
		return Config{}, fmt.Errorf("rate %d out of range", mc.Rate)
	}
	if len(mc.RGB) != 3 {
		return Config{}, fmt.Errorf("colour needs 3 values, got %d", len(mc.RGB))
	}
	return Config{
		Mode: Mode{
			Kind:   kind,
			Rate:   uint8(mc.Rate),
			Colour: animation.LedFromRGB(mc.RGB),
		},
		Brightness:     brightness,
		RateMultiplier: rate,
	}, nil
}

// Shared is the lock protected cell the mode producer reads and the button
// classifier and config reload write. The lock is never held across a
// blocking call.
type Shared struct {
	mu  sync.Mutex
	cfg Config
}

func NewShared(cfg Config) *Shared {
	return &Shared{cfg: cfg}
}

// Read returns a snapshot.
func (s *Shared) Read() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Write replaces the whole configuration.
func (s *Shared) Write(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// SetMode swaps the active mode and returns the one it replaced.
func (s *Shared) SetMode(m Mode) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cfg.Mode
	s.cfg.Mode = m
	return prev
}

// Update runs fn under the lock as one read-modify-write.
func (s *Shared) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
}
