package platform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	c "lautenbacher.net/jigleds/config"
	"lautenbacher.net/jigleds/animation"
	"lautenbacher.net/jigleds/logging"
)

// TUIPlatform simulates the fixture in the terminal. The space bar stands in
// for the button: the first hit presses it, the next one releases it.
type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	oledDisplay  *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	logFlushOnce sync.Once
	ledsMutex    sync.Mutex
	leds         animation.Frame
	pressed      bool
}

func NewTUIPlatform(conf *c.Config, ossignalchan chan os.Signal) *TUIPlatform {
	return &TUIPlatform{
		AbstractPlatform: newAbstractPlatform(conf),
		ossignalChan:     ossignalchan,
		leds:             animation.NewFrame(conf.Hardware.Display.LedsTotal),
	}
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()
	return nil
}

func (s *TUIPlatform) Stop() {
	s.setInShutdown()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) WriteFrame(_ context.Context, frame animation.Frame, brightness uint8) error {
	if s.inShutdown() {
		return nil
	}
	corrected := s.correct(frame, brightness)
	s.ledsMutex.Lock()
	s.leds = corrected
	s.ledsMutex.Unlock()
	s.tviewapp.QueueUpdateDraw(s.simulateLedDisplay)
	return nil
}

func (s *TUIPlatform) ShowText(text string) error {
	if s.inShutdown() {
		return nil
	}
	s.tviewapp.QueueUpdateDraw(func() {
		s.oledDisplay.SetText(tview.Escape(text))
	})
	return nil
}

func (s *TUIPlatform) SetIndicator(on bool) {
	if !s.setIndicatorState(on) || s.inShutdown() {
		return
	}
	s.tviewapp.QueueUpdateDraw(func() {
		s.intro.SetText(s.getIntroText())
	})
}

// getIntroText generates the dynamic text for the top info pane.
func (s *TUIPlatform) getIntroText() string {
	indicator := "[#404040]○[white]"
	if s.indicatorState() {
		indicator = "[#ff0000]●[white]"
	}
	line1 := fmt.Sprintf("Button indicator: %s", indicator)
	line2 := "Hit [#ff0000]space[-] to press/release the button"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) toggleButton() {
	s.pressed = !s.pressed
	level := High
	if s.pressed {
		level = Low
	}
	slog.Debug("Simulated button edge", "level", level)
	s.publishEdge(NewEdge(buttonID, level, time.Now()))
}

// requestExit never blocks the TUI event loop; one pending request is enough.
func (s *TUIPlatform) requestExit() {
	select {
	case s.ossignalChan <- os.Interrupt:
	default:
	}
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" JIGLEDS Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- LED Display Pane ---
	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.ledDisplay.SetBorder(true).SetTitle(" Strip ").SetTitleColor(tcell.ColorLightBlue)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- OLED Pane ---
	s.oledDisplay = tview.NewTextView().
		SetTextAlign(tview.AlignCenter)
	s.oledDisplay.SetBorder(true).SetTitle(" Display ").SetTitleColor(tcell.ColorLightBlue)
	s.oledDisplay.SetTextColor(tcell.ColorLightCyan)
	s.oledDisplay.SetBackgroundColor(tcell.ColorBlack)

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	hardware := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.ledDisplay, 0, 2, false).
		AddItem(s.oledDisplay, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(hardware, 6, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			if err := logging.SetOutput(logWriter); err != nil {
				slog.Error("Can't redirect logs to TUI", "error", err)
			}
			close(s.readyChan) // Signal that the TUI is ready
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.requestExit()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				s.toggleButton()
				return nil
			case 'q', 'Q':
				s.requestExit()
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.requestExit()
		}
	}()
}

// simulateLedDisplay redraws the LED display pane.
// This function must be called on the main TUI thread via app.QueueUpdateDraw().
func (s *TUIPlatform) simulateLedDisplay() {
	s.ledsMutex.Lock()
	top, bottom := renderLeds(s.leds)
	s.ledsMutex.Unlock()
	s.ledDisplay.SetText(" " + top + "\n " + bottom)
}

// barChars are the two character rows used for one pixel, from dim to
// bright. They cover values up to 45, brighter pixels get a full bar.
var barChars = [][2]string{
	{" ", "▁"}, {" ", "▂"}, {" ", "▃"}, {" ", "▄"}, {" ", "▅"}, {" ", "▆"}, {" ", "▇"}, {" ", "█"},
	{"▁", "█"}, {"▂", "█"}, {"▃", "█"}, {"▄", "█"}, {"▅", "█"}, {"▆", "█"}, {"▇", "█"},
}

// renderLeds returns the two line bar representation of a frame.
func renderLeds(leds animation.Frame) (string, string) {
	var buf1, buf2 strings.Builder
	buf1.Grow(len(leds) * (len("[-][#000000]") + 1))
	buf2.Grow(len(leds) * (len("[-][#000000]") + 1))

	for _, v := range leds {
		if v.IsEmpty() {
			buf1.WriteString(" ")
			buf2.WriteString(" ")
			continue
		}
		value := int(math.Round(float64(int(v.Red)+int(v.Green)+int(v.Blue)) / 3.0))
		colorStr := scaledColor(v)
		buf1.WriteString(colorStr)
		buf2.WriteString(colorStr)

		var topChar, bottomChar string
		switch {
		case value <= 45:
			step := max((value-1)/3, 0)
			topChar, bottomChar = barChars[step][0], barChars[step][1]
		case value <= 80:
			topChar, bottomChar = "█", "█"
		default:
			topChar, bottomChar = "▒", "█"
		}
		buf1.WriteString(topChar)
		buf2.WriteString(bottomChar)
		buf1.WriteString("[-]")
		buf2.WriteString("[-]")
	}
	return buf1.String(), buf2.String()
}

// scaledColor stretches the colour to full intensity so dim pixels keep
// their hue on screen. The bar height shows the intensity instead.
func scaledColor(led animation.Led) string {
	maxColor := max(led.Red, led.Green, led.Blue)
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / float64(maxColor)
	red := math.Min(float64(led.Red)*factor, 255)
	green := math.Min(float64(led.Green)*factor, 255)
	blue := math.Min(float64(led.Blue)*factor, 255)

	const epsilon = 1e-9

	return fmt.Sprintf("[#%02x%02x%02x]", byte(math.Round(red+epsilon)), byte(math.Round(green+epsilon)), byte(math.Round(blue+epsilon)))
}
