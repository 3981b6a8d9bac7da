package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
Animation:
  UpdateInterval: 250ms
  QueueSize: 20
  DefaultRGB: [0, 255, 0]
  DefaultTTL: 2s
Mode:
  Kind: "random"
  Rate: 7
  RGB: [255, 0, 0]
  Brightness: "medium"
  RateMultiplier: "fast"
Button:
  Debounce: 25ms
  HalfHold: 500ms
  FullHold: 1s
Programming:
  Positions: 8
  StepDelay: 1s
Hardware:
  GPIOLibrary: "rpio"
  LEDType: "APA102"
  Display:
    LedsTotal: 10
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/jigleds-tui.log"
  HW:
    Level: "WARN"
    Format: "json"
    File: "/var/log/jigleds-hw.log"
`

func createConfigFile(t *testing.T, configData string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(configFile, []byte(configData), 0o644)
	require.NoError(t, err, "Failed to write config file")
	return configFile
}

func TestReadConfig(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)

	conf, err := ReadConfig(configFile)
	require.NoError(t, err, "ReadConfig should not return an error")

	assert.Equal(t, configFile, conf.ConfigFile)
	assert.Equal(t, 250*time.Millisecond, conf.Animation.UpdateInterval)
	assert.Equal(t, []float64{0, 255, 0}, conf.Animation.DefaultRGB)
	assert.Equal(t, "random", conf.Mode.Kind)
	assert.Equal(t, 7, conf.Mode.Rate)
	assert.Equal(t, []float64{255, 0, 0}, conf.Mode.RGB)
	assert.Equal(t, "medium", conf.Mode.Brightness)
	assert.Equal(t, "fast", conf.Mode.RateMultiplier)
	assert.Equal(t, time.Second, conf.Button.FullHold)
	assert.Equal(t, "rpio", conf.Hardware.GPIOLibrary)
	assert.Equal(t, "APA102", conf.Hardware.LEDType)
	assert.Equal(t, 10, conf.Hardware.Display.LedsTotal)

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level)
	assert.Equal(t, "text", conf.Logging.TUI.Format)
	assert.Equal(t, "/tmp/jigleds-tui.log", conf.Logging.TUI.File)
	assert.Equal(t, "WARN", conf.Logging.HW.Level)
	assert.Equal(t, "json", conf.Logging.HW.Format)
	assert.Equal(t, "/var/log/jigleds-hw.log", conf.Logging.HW.File)
}

func TestReadConfig_Defaults(t *testing.T) {
	configFile := createConfigFile(t, "Mode:\n  Kind: \"static\"\n")

	conf, err := ReadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "static", conf.Mode.Kind)
	assert.Equal(t, 10, conf.Animation.CommandQueueSize, "missing keys fall back to defaults")
	assert.Equal(t, 20, conf.Animation.QueueSize)
	assert.Equal(t, 10, conf.Animation.Brightness)
	assert.Equal(t, 1, conf.Hardware.Display.LedsTotal)
	assert.Equal(t, []float64{190, 240, 255}, conf.Button.HalfHoldRGB)
	assert.Equal(t, []float64{0, 0, 255}, conf.Button.FullHoldRGB)
	assert.Equal(t, "periph.io", conf.Hardware.GPIOLibrary)
	assert.Equal(t, "WS2812", conf.Hardware.LEDType)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't open config file")
}

func TestReadConfig_UnknownKey(t *testing.T) {
	configFile := createConfigFile(t, baseConfig+"\nSensorLED:\n  Enabled: true\n")
	_, err := ReadConfig(configFile)
	assert.Error(t, err, "unknown top level keys are rejected")
	assert.Contains(t, err.Error(), "can't decode config file")
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		message string
	}{
		{"rgb out of range", "RGB: [255, 0, 0]", "RGB: [256, 0, 0]", "must be between 0 and 255"},
		{"rgb too short", "DefaultRGB: [0, 255, 0]", "DefaultRGB: [0, 255]", "needs 3 values"},
		{"zero rate", "Rate: 7", "Rate: 0", "Mode.Rate 0 must be between 1 and 255"},
		{"unknown kind", `Kind: "random"`, `Kind: "disco"`, "Mode.Kind: unknown value \"disco\""},
		{"unknown brightness", `Brightness: "medium"`, `Brightness: "blinding"`, "Mode.Brightness"},
		{"unknown multiplier", `RateMultiplier: "fast"`, `RateMultiplier: "ludicrous"`, "Mode.RateMultiplier"},
		{"hold thresholds", "FullHold: 1s", "FullHold: 400ms", "Button.FullHold (400ms) must be longer than Button.HalfHold (500ms)"},
		{"empty strip", "LedsTotal: 10", "LedsTotal: 0", "Hardware.Display.LedsTotal must be at least 1"},
		{"too many positions", "Positions: 8", "Positions: 200", "Programming.Positions"},
		{"unknown led type", `LEDType: "APA102"`, `LEDType: "NEOPIXEL"`, "Hardware.LEDType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configData := strings.Replace(baseConfig, tt.from, tt.to, 1)
			require.NotEqual(t, baseConfig, configData, "replacement must hit")
			_, err := ReadConfig(createConfigFile(t, configData))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	conf := Default()
	conf.Mode.Rate = 0
	conf.Hardware.Display.LedsTotal = 0

	err := conf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mode.Rate")
	assert.Contains(t, err.Error(), "LedsTotal")
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestWatch_ReloadsModeSection(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	conf, err := ReadConfig(configFile)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan ModeConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, configFile, conf.Mode, func(m ModeConfig) { changes <- m })
	}()

	// Give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)

	// An invalid edit must not be delivered
	require.NoError(t, os.WriteFile(configFile, []byte(strings.Replace(baseConfig, "Rate: 7", "Rate: 0", 1)), 0o644))
	select {
	case m := <-changes:
		t.Fatalf("invalid config must be ignored, got %+v", m)
	case <-time.After(3 * settle):
	}

	require.NoError(t, os.WriteFile(configFile, []byte(strings.Replace(baseConfig, `Kind: "random"`, `Kind: "static"`, 1)), 0o644))
	select {
	case m := <-changes:
		assert.Equal(t, "static", m.Kind)
		assert.Equal(t, 7, m.Rate)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_UnwatchableFileDisablesReload(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "config.yml")
	done := make(chan error, 1)
	go func() {
		done <- Watch(context.Background(), missing, Default().Mode, func(ModeConfig) {
			t.Error("no reload expected")
		})
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch must return when the directory can't be watched")
	}
}
