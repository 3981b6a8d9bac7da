package platform

import (
	"errors"
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// gpioDriver is the button input and the indicator output. Both periph.io
// and go-rpio can drive them.
type gpioDriver interface {
	readButton() Level
	// waitForEdge reports whether the button changed within timeout.
	waitForEdge(timeout time.Duration) bool
	setIndicator(on bool) error
	halt() error
}

type periphGPIO struct {
	button    gpio.PinIO
	indicator gpio.PinIO
}

func newPeriphGPIO(buttonPin, indicatorPin int) (*periphGPIO, error) {
	button := gpioreg.ByName(fmt.Sprintf("GPIO%d", buttonPin))
	if button == nil {
		return nil, fmt.Errorf("failed to find pin %d", buttonPin)
	}
	if err := button.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to set pin %d to input: %w", buttonPin, err)
	}
	indicator := gpioreg.ByName(fmt.Sprintf("GPIO%d", indicatorPin))
	if indicator == nil {
		return nil, fmt.Errorf("failed to find pin %d", indicatorPin)
	}
	if err := indicator.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to set pin %d to output: %w", indicatorPin, err)
	}
	return &periphGPIO{button: button, indicator: indicator}, nil
}

func (g *periphGPIO) readButton() Level {
	return Level(g.button.Read())
}

func (g *periphGPIO) waitForEdge(timeout time.Duration) bool {
	return g.button.WaitForEdge(timeout)
}

func (g *periphGPIO) setIndicator(on bool) error {
	return g.indicator.Out(gpio.Level(on))
}

// halt releases both pins even if one of the steps fails.
func (g *periphGPIO) halt() error {
	var errs []error
	if err := g.indicator.Out(gpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("failed to switch indicator off: %w", err))
	}
	if err := g.button.Halt(); err != nil {
		errs = append(errs, err)
	}
	if err := g.indicator.Halt(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// rpioGPIO uses the edge detect registers through /dev/gpiomem. There is no
// blocking wait, so waitForEdge polls.
type rpioGPIO struct {
	button    rpio.Pin
	indicator rpio.Pin
}

const rpioPollInterval = 5 * time.Millisecond

func newRpioGPIO(buttonPin, indicatorPin int) (*rpioGPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	button := rpio.Pin(buttonPin)
	button.Input()
	button.PullUp()
	button.Detect(rpio.AnyEdge)

	indicator := rpio.Pin(indicatorPin)
	indicator.Output()
	indicator.Low()
	return &rpioGPIO{button: button, indicator: indicator}, nil
}

func (g *rpioGPIO) readButton() Level {
	return Level(g.button.Read() == rpio.High)
}

func (g *rpioGPIO) waitForEdge(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if g.button.EdgeDetected() {
			return true
		}
		time.Sleep(rpioPollInterval)
	}
	return false
}

func (g *rpioGPIO) setIndicator(on bool) error {
	if on {
		g.indicator.High()
	} else {
		g.indicator.Low()
	}
	return nil
}

func (g *rpioGPIO) halt() error {
	g.button.Detect(rpio.NoEdge)
	g.indicator.Low()
	return rpio.Close()
}
