package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

// Names accepted in the Mode section.
var (
	ModeKinds       = []string{"sine", "ramp", "random", "sequence", "static"}
	BrightnessNames = []string{"low", "medium", "high", "max"}
	RateNames       = []string{"veryslow", "slow", "moderate", "fast", "veryfast"}
	GPIOLibraries   = []string{"periph.io", "rpio"}
	LEDTypes        = []string{"WS2812", "APA102", "WS2801"}
)

type Config struct {
	RealHW      bool              `yaml:"-"`
	ConfigFile  string            `yaml:"-"`
	Animation   AnimationConfig   `yaml:"Animation"`
	Mode        ModeConfig        `yaml:"Mode"`
	Button      ButtonConfig      `yaml:"Button"`
	Programming ProgrammingConfig `yaml:"Programming"`
	Hardware    HardwareConfig    `yaml:"Hardware"`
	Logging     LoggingConfig     `yaml:"Logging"`
}

type AnimationConfig struct {
	UpdateInterval   time.Duration `yaml:"UpdateInterval"`
	QueueSize        int           `yaml:"QueueSize"`
	CommandQueueSize int           `yaml:"CommandQueueSize"`
	DefaultRGB       []float64     `yaml:"DefaultRGB"`
	DefaultTTL       time.Duration `yaml:"DefaultTTL"`
	Brightness       int           `yaml:"Brightness"`
}

// ModeConfig is the part of the configuration that may change while the
// fixture is running.
type ModeConfig struct {
	Kind           string        `yaml:"Kind"`
	Rate           int           `yaml:"Rate"`
	RGB            []float64     `yaml:"RGB"`
	Brightness     string        `yaml:"Brightness"`
	RateMultiplier string        `yaml:"RateMultiplier"`
	PollInterval   time.Duration `yaml:"PollInterval"`
}

type ButtonConfig struct {
	Debounce     time.Duration `yaml:"Debounce"`
	HalfHold     time.Duration `yaml:"HalfHold"`
	FullHold     time.Duration `yaml:"FullHold"`
	HalfHoldRGB  []float64     `yaml:"HalfHoldRGB"`
	FullHoldRGB  []float64     `yaml:"FullHoldRGB"`
	Pin          int           `yaml:"Pin"`
	IndicatorPin int           `yaml:"IndicatorPin"`
}

type ProgrammingConfig struct {
	Positions int           `yaml:"Positions"`
	StepDelay time.Duration `yaml:"StepDelay"`
	BusyRGB   []float64     `yaml:"BusyRGB"`
	DoneRGB   []float64     `yaml:"DoneRGB"`

	// IdleBreathe keeps the strip breathing in DoneRGB after a run
	IdleBreathe bool `yaml:"IdleBreathe"`
}

type DisplayConfig struct {
	LedsTotal       int       `yaml:"LedsTotal"`
	ColorCorrection []float64 `yaml:"ColorCorrection"`
	Gamma           float64   `yaml:"Gamma"`
}

type OLEDConfig struct {
	Enabled bool `yaml:"Enabled"`
	Width   int  `yaml:"Width"`
	Height  int  `yaml:"Height"`
}

type HardwareConfig struct {
	GPIOLibrary  string        `yaml:"GPIOLibrary"`
	LEDType      string        `yaml:"LEDType"`
	SPIDevice    string        `yaml:"SPIDevice"`
	SPIFrequency int64         `yaml:"SPIFrequency"`
	I2CBus       string        `yaml:"I2CBus"`
	Display      DisplayConfig `yaml:"Display"`
	OLED         OLEDConfig    `yaml:"OLED"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		Animation: AnimationConfig{
			UpdateInterval:   250 * time.Millisecond,
			QueueSize:        20,
			CommandQueueSize: 10,
			DefaultRGB:       []float64{0, 255, 0},
			DefaultTTL:       2 * time.Second,
			Brightness:       10,
		},
		Mode: ModeConfig{
			Kind:           "sine",
			Rate:           1,
			RGB:            []float64{255, 255, 255},
			Brightness:     "low",
			RateMultiplier: "veryslow",
			PollInterval:   time.Millisecond,
		},
		Button: ButtonConfig{
			Debounce:     25 * time.Millisecond,
			HalfHold:     500 * time.Millisecond,
			FullHold:     1000 * time.Millisecond,
			HalfHoldRGB:  []float64{190, 240, 255},
			FullHoldRGB:  []float64{0, 0, 255},
			Pin:          17,
			IndicatorPin: 27,
		},
		Programming: ProgrammingConfig{
			Positions: 8,
			StepDelay: time.Second,
			BusyRGB:   []float64{255, 128, 0},
			DoneRGB:   []float64{0, 255, 0},
		},
		Hardware: HardwareConfig{
			GPIOLibrary:  "periph.io",
			LEDType:      "WS2812",
			SPIDevice:    "/dev/spidev0.0",
			SPIFrequency: 2_500_000,
			I2CBus:       "",
			Display: DisplayConfig{
				LedsTotal:       1,
				ColorCorrection: []float64{1, 1, 1},
				Gamma:           2.8,
			},
			OLED: OLEDConfig{
				Enabled: true,
				Width:   128,
				Height:  64,
			},
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig decodes cfile over the defaults and validates the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.ConfigFile = cfile

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate reports every problem found, not just the first one.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, validateRGB("Animation.DefaultRGB", c.Animation.DefaultRGB))
	if c.Animation.UpdateInterval <= 0 {
		errs = append(errs, errors.New("Animation.UpdateInterval must be positive"))
	}
	if c.Animation.QueueSize < 1 {
		errs = append(errs, errors.New("Animation.QueueSize must be at least 1"))
	}
	if c.Animation.CommandQueueSize < 1 {
		errs = append(errs, errors.New("Animation.CommandQueueSize must be at least 1"))
	}
	errs = append(errs, validateByte("Animation.Brightness", c.Animation.Brightness))

	errs = append(errs, c.Mode.Validate())

	errs = append(errs, validateRGB("Button.HalfHoldRGB", c.Button.HalfHoldRGB))
	errs = append(errs, validateRGB("Button.FullHoldRGB", c.Button.FullHoldRGB))
	if c.Button.HalfHold <= c.Button.Debounce {
		errs = append(errs, fmt.Errorf("Button.HalfHold (%s) must be longer than Button.Debounce (%s)", c.Button.HalfHold, c.Button.Debounce))
	}
	if c.Button.FullHold <= c.Button.HalfHold {
		errs = append(errs, fmt.Errorf("Button.FullHold (%s) must be longer than Button.HalfHold (%s)", c.Button.FullHold, c.Button.HalfHold))
	}

	// The display address of a position is 0x08+position and must stay a
	// valid 7 bit address
	if c.Programming.Positions < 1 || c.Programming.Positions > 0x70 {
		errs = append(errs, fmt.Errorf("Programming.Positions must be between 1 and %d", 0x70))
	}
	if c.Programming.StepDelay <= 0 {
		errs = append(errs, errors.New("Programming.StepDelay must be positive"))
	}
	errs = append(errs, validateRGB("Programming.BusyRGB", c.Programming.BusyRGB))
	errs = append(errs, validateRGB("Programming.DoneRGB", c.Programming.DoneRGB))

	errs = append(errs, validateName("Hardware.GPIOLibrary", c.Hardware.GPIOLibrary, GPIOLibraries))
	errs = append(errs, validateName("Hardware.LEDType", c.Hardware.LEDType, LEDTypes))
	if c.Hardware.Display.LedsTotal < 1 {
		errs = append(errs, errors.New("Hardware.Display.LedsTotal must be at least 1"))
	}
	if n := len(c.Hardware.Display.ColorCorrection); n != 0 && n != 3 {
		errs = append(errs, fmt.Errorf("Hardware.Display.ColorCorrection needs 3 values, got %d", n))
	}
	for _, v := range c.Hardware.Display.ColorCorrection {
		if v < 0 {
			errs = append(errs, fmt.Errorf("Hardware.Display.ColorCorrection value %v must not be negative", v))
		}
	}
	if c.Hardware.OLED.Enabled && (c.Hardware.OLED.Width < 1 || c.Hardware.OLED.Height < 1) {
		errs = append(errs, errors.New("Hardware.OLED needs a positive Width and Height"))
	}
	if c.Hardware.Display.Gamma <= 0 {
		errs = append(errs, errors.New("Hardware.Display.Gamma must be positive"))
	}

	return errors.Join(errs...)
}

// Validate checks the Mode section on its own, so a reload can be vetted
// before it reaches the running fixture.
func (m ModeConfig) Validate() error {
	var errs []error
	errs = append(errs, validateName("Mode.Kind", m.Kind, ModeKinds))
	errs = append(errs, validateName("Mode.Brightness", m.Brightness, BrightnessNames))
	errs = append(errs, validateName("Mode.RateMultiplier", m.RateMultiplier, RateNames))
	errs = append(errs, validateRGB("Mode.RGB", m.RGB))
	if m.Rate < 1 || m.Rate > 255 {
		errs = append(errs, fmt.Errorf("Mode.Rate %d must be between 1 and 255", m.Rate))
	}
	if m.PollInterval <= 0 {
		errs = append(errs, errors.New("Mode.PollInterval must be positive"))
	}
	return errors.Join(errs...)
}

func validateRGB(name string, rgb []float64) error {
	if len(rgb) != 3 {
		return fmt.Errorf("%s needs 3 values, got %d", name, len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s value %v must be between 0 and 255", name, v)
		}
	}
	return nil
}

func validateByte(name string, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%s value %d must be between 0 and 255", name, v)
	}
	return nil
}

func validateName(field, name string, allowed []string) error {
	if !slices.Contains(allowed, name) {
		return fmt.Errorf("%s: unknown value %q, expected one of %v", field, name, allowed)
	}
	return nil
}
