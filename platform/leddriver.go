package platform

import (
	"fmt"
	"strings"

	"lautenbacher.net/jigleds/animation"
)

// ledEncoder turns an already corrected frame into the bytes the strip
// expects. The returned slice is reused by the next call.
type ledEncoder interface {
	encode(leds animation.Frame) []byte
}

func newLedEncoder(ledType string, ledsTotal int) (ledEncoder, error) {
	switch strings.ToUpper(ledType) {
	case "APA102":
		return newApa102Encoder(ledsTotal), nil
	case "WS2801", "WS2812":
		return newRGBEncoder(ledsTotal), nil
	default:
		return nil, fmt.Errorf("unknown LED type: %s", ledType)
	}
}

// rgbEncoder writes plain R,G,B triples. The WS2801 takes them over SPI as
// they are; for the WS2812 the nrzled driver adds the pulse encoding.
type rgbEncoder struct {
	buffer []byte
}

func newRGBEncoder(ledsTotal int) *rgbEncoder {
	return &rgbEncoder{buffer: make([]byte, 3*ledsTotal)}
}

func (d *rgbEncoder) encode(leds animation.Frame) []byte {
	if cap(d.buffer) < 3*len(leds) {
		d.buffer = make([]byte, 3*len(leds))
	}
	out := d.buffer[:3*len(leds)]
	for idx, led := range leds {
		out[3*idx] = led.Red
		out[3*idx+1] = led.Green
		out[3*idx+2] = led.Blue
	}
	return out
}

// apa102Encoder frames the pixels with the APA102 start and end frames.
// The per pixel global brightness stays at maximum; brightness has already
// been applied to the colour values.
type apa102Encoder struct {
	buffer []byte
}

const apa102FullBrightness = 0xE0 | 31

func newApa102Encoder(ledsTotal int) *apa102Encoder {
	return &apa102Encoder{buffer: make([]byte, apa102Size(ledsTotal))}
}

func apa102Size(n int) int {
	// end frame: at least n/2 bits of 1s
	return 4 + 4*n + n/16 + 1
}

func (d *apa102Encoder) encode(leds animation.Frame) []byte {
	size := apa102Size(len(leds))
	if cap(d.buffer) < size {
		d.buffer = make([]byte, size)
	}
	out := d.buffer[:size]

	copy(out[0:4], []byte{0x00, 0x00, 0x00, 0x00})
	offset := 4
	for _, led := range leds {
		// protocol: brightness byte, blue, green, red
		out[offset] = apa102FullBrightness
		out[offset+1] = led.Blue
		out[offset+2] = led.Green
		out[offset+3] = led.Red
		offset += 4
	}
	for i := offset; i < size; i++ {
		out[i] = 0xFF
	}
	return out
}
