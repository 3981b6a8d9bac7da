package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"lautenbacher.net/jigleds/animation"
)

func TestGammaTable(t *testing.T) {
	linear := GammaTable(1)
	for i := range linear {
		assert.Equal(t, byte(i), linear[i])
	}

	curved := GammaTable(2.8)
	assert.Equal(t, byte(0), curved[0])
	assert.Equal(t, byte(255), curved[255])
	assert.Less(t, curved[128], byte(64), "mid grey must be darker on a 2.8 curve")
	for i := 1; i < 256; i++ {
		assert.GreaterOrEqual(t, curved[i], curved[i-1], "gamma curve must be monotonic")
	}
}

func TestCorrect(t *testing.T) {
	linear := GammaTable(1)
	frame := animation.Frame{{Red: 255, Green: 128, Blue: 0}}

	full := Correct(frame, 255, &linear, []float64{1, 1, 1})
	assert.Equal(t, animation.Led{Red: 255, Green: 128, Blue: 0}, full[0])

	half := Correct(frame, 127, &linear, nil)
	assert.Equal(t, animation.Led{Red: 127, Green: 64, Blue: 0}, half[0])

	off := Correct(frame, 0, &linear, nil)
	assert.Equal(t, animation.Led{Red: 0, Green: 0, Blue: 0}, off[0])

	corrected := Correct(frame, 255, &linear, []float64{0.5, 2, 1})
	assert.Equal(t, animation.Led{Red: 127, Green: 255, Blue: 0}, corrected[0])

	assert.Equal(t, animation.Led{Red: 255, Green: 128, Blue: 0}, frame[0], "input frame must stay untouched")
}
