package animation

// Led is the colour of a single pixel on the strip
type Led struct {
	Red   byte
	Green byte
	Blue  byte
}

// White is full-on white, used by torch mode
var White = Led{Red: 255, Green: 255, Blue: 255}

// True if all components are zero, false otherwise
func (s Led) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

// Scale returns the colour dimmed to brightness/255. Zero yields black and
// 255 the unchanged colour; otherwise each channel is channel*brightness/255
// truncated.
func (s Led) Scale(brightness uint8) Led {
	switch brightness {
	case 0:
		return Led{}
	case 255:
		return s
	}
	b := uint16(brightness)
	return Led{
		Red:   byte(uint16(s.Red) * b / 255),
		Green: byte(uint16(s.Green) * b / 255),
		Blue:  byte(uint16(s.Blue) * b / 255),
	}
}

// LedFromRGB converts a config triple. Values are expected to be validated.
func LedFromRGB(rgb []float64) Led {
	return Led{Red: byte(rgb[0]), Green: byte(rgb[1]), Blue: byte(rgb[2])}
}

// Frame is one full set of pixel colours for the strip. It is treated as a
// value: once handed to the sink nobody mutates it.
type Frame []Led

// NewFrame returns a dark frame of the given size.
func NewFrame(size int) Frame {
	return make(Frame, size)
}

// SolidFrame returns a frame with every pixel set to led.
func SolidFrame(size int, led Led) Frame {
	f := NewFrame(size)
	for i := range f {
		f[i] = led
	}
	return f
}

// IsDark is true when every pixel is off.
func (f Frame) IsDark() bool {
	for _, led := range f {
		if !led.IsEmpty() {
			return false
		}
	}
	return true
}
