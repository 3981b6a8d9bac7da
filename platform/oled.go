package platform

import (
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// RenderText draws text line by line into a 1 bit image of the display size.
// Lines that do not fit are cut off.
func RenderText(text string, width, height int) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	face := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil()
	y := face.Metrics().Ascent.Ceil()
	for _, line := range strings.Split(text, "\n") {
		if y > height {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawString(line)
		y += lineHeight
	}
	return img
}
