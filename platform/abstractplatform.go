package platform

import (
	"log/slog"
	"math"
	"sync"

	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/animation"
)

// AbstractPlatform is the part shared by the TUI and the Raspberry Pi
// platform: colour correction, the button edge channel and the shutdown
// flag.
type AbstractPlatform struct {
	config         *c.Config
	edges          chan Edge
	gamma          [256]byte
	readyChan      chan bool
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
	indicatorMutex sync.Mutex
	indicator      bool
}

func newAbstractPlatform(conf *c.Config) *AbstractPlatform {
	return &AbstractPlatform{
		config:    conf,
		edges:     make(chan Edge, 16),
		gamma:     GammaTable(conf.Hardware.Display.Gamma),
		readyChan: make(chan bool),
	}
}

func (s *AbstractPlatform) Edges() <-chan Edge {
	return s.edges
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) GetLedsTotal() int {
	return s.config.Hardware.Display.LedsTotal
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

func (s *AbstractPlatform) inShutdown() bool {
	s.shutdownMutex.RLock()
	defer s.shutdownMutex.RUnlock()
	return s.isShuttingDown
}

func (s *AbstractPlatform) setIndicatorState(on bool) bool {
	s.indicatorMutex.Lock()
	defer s.indicatorMutex.Unlock()
	changed := s.indicator != on
	s.indicator = on
	return changed
}

func (s *AbstractPlatform) indicatorState() bool {
	s.indicatorMutex.Lock()
	defer s.indicatorMutex.Unlock()
	return s.indicator
}

// publishEdge hands an edge to the classifier without ever blocking the
// input driver. Edges that do not fit are lost, which the classifier treats
// like bounce.
func (s *AbstractPlatform) publishEdge(e Edge) {
	select {
	case s.edges <- e:
	default:
		slog.Warn("Dropping button edge, classifier is not keeping up", "level", e.Level)
	}
}

// correct applies gamma, per channel colour correction and the global
// brightness to a frame.
func (s *AbstractPlatform) correct(frame animation.Frame, brightness uint8) animation.Frame {
	return Correct(frame, brightness, &s.gamma, s.config.Hardware.Display.ColorCorrection)
}

// GammaTable precomputes the 8 bit gamma curve. A gamma of 1 is linear.
func GammaTable(gamma float64) [256]byte {
	var table [256]byte
	if gamma <= 0 {
		gamma = 1
	}
	for i := range table {
		table[i] = byte(math.Round(math.Pow(float64(i)/255, gamma) * 255))
	}
	return table
}

// Correct returns a corrected copy of frame. Brightness scales each channel
// by (brightness+1)/256, so 255 keeps the colour and 0 turns it all but off.
func Correct(frame animation.Frame, brightness uint8, gamma *[256]byte, colorCorr []float64) animation.Frame {
	out := make(animation.Frame, len(frame))
	for i, led := range frame {
		out[i] = animation.Led{
			Red:   scaleChannel(gamma[led.Red], brightness, corrFactor(colorCorr, 0)),
			Green: scaleChannel(gamma[led.Green], brightness, corrFactor(colorCorr, 1)),
			Blue:  scaleChannel(gamma[led.Blue], brightness, corrFactor(colorCorr, 2)),
		}
	}
	return out
}

func scaleChannel(v byte, brightness uint8, corr float64) byte {
	scaled := uint16(v) * (uint16(brightness) + 1) / 256
	return byte(math.Min(float64(scaled)*corr, 255))
}

func corrFactor(colorCorr []float64, idx int) float64 {
	if idx < len(colorCorr) {
		return colorCorr[idx]
	}
	return 1
}
