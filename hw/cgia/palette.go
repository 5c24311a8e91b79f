package cgia

import "math"

// hwcolors holds the 256 palette entries as 0xFFBBGGRR.
var hwcolors [256]uint32

func init() {
	for i := range hwcolors {
		r, g, b := rawColor(uint8(i))
		hwcolors[i] = rgba(r, g, b)
	}
}

func clamp255(x int) uint32 {
	if x > 255 {
		return 255
	}
	return uint32(x)
}

// rgba packs a raw color, applying the 4/3 channel gain.
func rgba(r, g, b int) uint32 {
	return 0xFF000000 | clamp255(r*4/3) | clamp255(g*4/3)<<8 | clamp255(b*4/3)<<16
}

// rawColor returns the color of a palette index. Bits 7-3 select the hue, 0
// being the grey ramp, bits 2-0 the luminance.
func rawColor(idx uint8) (r, g, b int) {
	hue, lum := int(idx>>3), int(idx&7)
	y := float64(lum) * 191 / 7
	if hue == 0 {
		return int(y), int(y), int(y)
	}

	const chroma = 48
	a := 2 * math.Pi * float64(hue-1) / 31
	r = channel(y + chroma*math.Cos(a))
	g = channel(y + chroma*math.Cos(a-2*math.Pi/3))
	b = channel(y + chroma*math.Cos(a+2*math.Pi/3))
	return r, g, b
}

func channel(x float64) int {
	return int(math.Round(min(max(x, 0), 255)))
}
