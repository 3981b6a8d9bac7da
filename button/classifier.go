// Package button turns the edges of the push button into tap and hold
// events.
package button

import (
	"context"
	"log/slog"
	"time"

	"lautenbacher.net/jigleds/animation"
	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/mode"
	"lautenbacher.net/jigleds/platform"
	"lautenbacher.net/jigleds/util"
)

type Event int

const (
	Tap Event = iota
	HoldHalf
	HoldFull
)

func (e Event) String() string {
	switch e {
	case Tap:
		return "tap"
	case HoldHalf:
		return "hold-half"
	case HoldFull:
		return "hold-full"
	}
	return "unknown"
}

// Thresholds for classifying a press. A press not longer than Debounce is
// noise.
type Thresholds struct {
	Debounce time.Duration
	Half     time.Duration
	Full     time.Duration
}

// Classify maps a press duration to an event. It reports false for noise.
func Classify(d time.Duration, th Thresholds) (Event, bool) {
	switch {
	case d <= th.Debounce:
		return 0, false
	case d > th.Full:
		return HoldFull, true
	case d > th.Half:
		return HoldHalf, true
	default:
		return Tap, true
	}
}

// Classifier watches the button and publishes the latest event. While the
// button is held past a threshold it overrides the shared mode with a
// static feedback colour and restores the previous mode on release.
type Classifier struct {
	edges      platform.EdgeSource
	indicator  platform.Indicator
	shared     *mode.Shared
	th         Thresholds
	halfColour animation.Led
	fullColour animation.Led
	events     *util.AtomicEvent[Event]
}

func NewClassifier(conf c.ButtonConfig, edges platform.EdgeSource, indicator platform.Indicator, shared *mode.Shared) *Classifier {
	return &Classifier{
		edges:     edges,
		indicator: indicator,
		shared:    shared,
		th: Thresholds{
			Debounce: conf.Debounce,
			Half:     conf.HalfHold,
			Full:     conf.FullHold,
		},
		halfColour: animation.LedFromRGB(conf.HalfHoldRGB),
		fullColour: animation.LedFromRGB(conf.FullHoldRGB),
		events:     util.NewAtomicEvent[Event](),
	}
}

// Events is the single slot the classification ends up in.
func (s *Classifier) Events() *util.AtomicEvent[Event] {
	return s.events
}

// Run classifies presses until ctx is done or the edge source closes.
func (s *Classifier) Run(ctx context.Context) error {
	edges := s.edges.Edges()
	for {
		var press platform.Edge
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-edges:
			if !ok {
				slog.Warn("Button edge source closed")
				return nil
			}
			if e.Level != platform.Low {
				continue
			}
			press = e
		}

		release, ok := s.hold(ctx, edges, press)
		if !ok {
			return nil
		}
		d := release.Timestamp.Sub(press.Timestamp)
		event, ok := Classify(d, s.th)
		if !ok {
			slog.Debug("Ignoring button bounce", "duration", d)
			continue
		}
		slog.Info("Button event", "event", event, "duration", d)
		s.events.Send(event)
	}
}

// hold waits for the release of a press and shows the hold feedback on the
// way. It returns false if ctx ended or the edges closed first. The mode in
// place before the feedback is restored on every path.
func (s *Classifier) hold(ctx context.Context, edges <-chan platform.Edge, press platform.Edge) (platform.Edge, bool) {
	s.setIndicator(true)
	defer s.setIndicator(false)

	var previous mode.Mode
	overridden := false
	defer func() {
		if overridden {
			s.shared.SetMode(previous)
		}
	}()

	timer := time.NewTimer(s.th.Half)
	defer timer.Stop()
	crossedFull := false

	for {
		select {
		case <-ctx.Done():
			return platform.Edge{}, false
		case e, ok := <-edges:
			if !ok {
				return platform.Edge{}, false
			}
			if e.Level == platform.High {
				return e, true
			}
		case <-timer.C:
			if s.shared == nil {
				continue
			}
			if !overridden {
				previous = s.shared.SetMode(mode.NewStatic(s.halfColour))
				overridden = true
				timer.Reset(s.th.Full - s.th.Half)
			} else if !crossedFull {
				s.shared.SetMode(mode.NewStatic(s.fullColour))
				crossedFull = true
			}
		}
	}
}

func (s *Classifier) setIndicator(on bool) {
	if s.indicator != nil {
		s.indicator.SetIndicator(on)
	}
}
