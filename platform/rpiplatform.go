package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/animation"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

const (
	buttonID        = "button"
	edgePollTimeout = 100 * time.Millisecond
)

type RaspberryPiPlatform struct {
	*AbstractPlatform
	spiPort    spi.PortCloser
	leds       *ledOutput
	ledMutex   sync.Mutex
	i2cBus     i2c.BusCloser
	oled       *ssd1306.Dev
	oledMutex  sync.Mutex
	gpio       gpioDriver
	buttonWg   sync.WaitGroup
	buttonStop chan struct{}
}

func NewRaspberryPiPlatform(conf *c.Config) *RaspberryPiPlatform {
	return &RaspberryPiPlatform{
		AbstractPlatform: newAbstractPlatform(conf),
		buttonStop:       make(chan struct{}),
	}
}

func (s *RaspberryPiPlatform) Start() error {
	hw := s.config.Hardware

	slog.Info("Initialise GPIO, SPI and I2C...")
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to init periph: %w", err)
	}

	var err error
	s.spiPort, err = spireg.Open(hw.SPIDevice)
	if err != nil {
		return fmt.Errorf("failed to open spi %s: %w", hw.SPIDevice, err)
	}
	s.leds, err = newLedOutput(s.spiPort, hw)
	if err != nil {
		return err
	}

	if hw.OLED.Enabled {
		s.i2cBus, err = i2creg.Open(hw.I2CBus)
		if err != nil {
			return fmt.Errorf("failed to open i2c bus %q: %w", hw.I2CBus, err)
		}
		s.oled, err = ssd1306.NewI2C(s.i2cBus, &ssd1306.Opts{W: hw.OLED.Width, H: hw.OLED.Height})
		if err != nil {
			return fmt.Errorf("failed to connect to oled display: %w", err)
		}
	}

	switch hw.GPIOLibrary {
	case "rpio":
		s.gpio, err = newRpioGPIO(s.config.Button.Pin, s.config.Button.IndicatorPin)
	default:
		s.gpio, err = newPeriphGPIO(s.config.Button.Pin, s.config.Button.IndicatorPin)
	}
	if err != nil {
		return err
	}

	s.buttonWg.Add(1)
	go s.buttonWatcher()

	close(s.readyChan) // For RPi, we are ready immediately.
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()

	close(s.buttonStop)
	s.buttonWg.Wait()

	s.ledMutex.Lock()
	if s.leds != nil {
		if err := s.leds.write(animation.NewFrame(s.GetLedsTotal())); err != nil {
			slog.Error("Error darkening strip", "error", err)
		}
		s.leds.halt()
		s.leds = nil
	}
	s.ledMutex.Unlock()

	if s.spiPort != nil {
		if err := s.spiPort.Close(); err != nil {
			slog.Error("Error closing spi port", "error", err)
		}
		s.spiPort = nil
	}

	s.oledMutex.Lock()
	if s.oled != nil {
		if err := s.oled.Halt(); err != nil {
			slog.Error("Error halting oled display", "error", err)
		}
		s.oled = nil
	}
	s.oledMutex.Unlock()
	if s.i2cBus != nil {
		if err := s.i2cBus.Close(); err != nil {
			slog.Error("Error closing i2c bus", "error", err)
		}
		s.i2cBus = nil
	}

	if s.gpio != nil {
		if err := s.gpio.halt(); err != nil {
			slog.Error("Error releasing gpio", "error", err)
		}
		s.gpio = nil
	}
}

func (s *RaspberryPiPlatform) WriteFrame(_ context.Context, frame animation.Frame, brightness uint8) error {
	if s.inShutdown() {
		return nil
	}
	s.ledMutex.Lock()
	defer s.ledMutex.Unlock()
	if s.leds == nil {
		return fmt.Errorf("%w: strip not initialised", ErrHardwareFault)
	}
	if err := s.leds.write(s.correct(frame, brightness)); err != nil {
		return fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	return nil
}

func (s *RaspberryPiPlatform) ShowText(text string) error {
	slog.Info("Display", "text", strings.ReplaceAll(text, "\n", " | "))
	s.oledMutex.Lock()
	defer s.oledMutex.Unlock()
	if s.oled == nil {
		return nil
	}
	img := RenderText(text, s.config.Hardware.OLED.Width, s.config.Hardware.OLED.Height)
	if err := s.oled.Draw(s.oled.Bounds(), img, img.Bounds().Min); err != nil {
		return fmt.Errorf("failed to draw on oled display: %w", err)
	}
	return nil
}

func (s *RaspberryPiPlatform) SetIndicator(on bool) {
	if !s.setIndicatorState(on) || s.gpio == nil {
		return
	}
	if err := s.gpio.setIndicator(on); err != nil {
		slog.Warn("Can't switch indicator LED", "on", on, "error", err)
	}
}

// buttonWatcher turns button level changes into edges. Repeated reports of
// the same level are dropped.
func (s *RaspberryPiPlatform) buttonWatcher() {
	defer s.buttonWg.Done()
	last := s.gpio.readButton()
	for {
		select {
		case <-s.buttonStop:
			slog.Info("Ending button watcher go-routine (RPi)")
			return
		default:
		}
		if !s.gpio.waitForEdge(edgePollTimeout) {
			continue
		}
		now := time.Now()
		level := s.gpio.readButton()
		if level == last {
			continue
		}
		last = level
		slog.Debug("Button edge", "level", level)
		s.publishEdge(NewEdge(buttonID, level, now))
	}
}

// ledOutput pairs the wire encoding of the configured LED type with the
// transport that carries it.
type ledOutput struct {
	encoder ledEncoder
	send    func([]byte) error
	halt    func()
}

func newLedOutput(port spi.Port, hw c.HardwareConfig) (*ledOutput, error) {
	ledsTotal := hw.Display.LedsTotal
	encoder, err := newLedEncoder(hw.LEDType, ledsTotal)
	if err != nil {
		return nil, err
	}

	if strings.ToUpper(hw.LEDType) == "WS2812" {
		dev, err := nrzled.NewSPI(port, &nrzled.Opts{
			NumPixels: ledsTotal,
			Channels:  3,
			Freq:      2500 * physic.KiloHertz,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to WS2812 strip: %w", err)
		}
		return &ledOutput{
			encoder: encoder,
			send: func(data []byte) error {
				_, err := dev.Write(data)
				return err
			},
			halt: func() {
				if err := dev.Halt(); err != nil {
					slog.Error("Error halting WS2812 strip", "error", err)
				}
			},
		}, nil
	}

	conn, err := port.Connect(physic.Frequency(hw.SPIFrequency)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to spi device: %w", err)
	}
	return &ledOutput{
		encoder: encoder,
		send: func(data []byte) error {
			return conn.Tx(data, nil)
		},
		halt: func() {},
	}, nil
}

func (o *ledOutput) write(frame animation.Frame) error {
	return o.send(o.encoder.encode(frame))
}
