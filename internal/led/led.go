package led

import "math"

// RGB is one pixel's color.
type RGB struct {
	R, G, B uint8
}

// Frame is one complete set of per-pixel colors pushed to the strip in a
// single render tick.
type Frame []RGB

// Scale returns the color dimmed to the given brightness (0=off, 255=full).
// The multiplication is widened to uint16 so it cannot overflow before the
// division.
func Scale(c RGB, brightness uint8) RGB {
	if brightness == 0 {
		return RGB{}
	}
	if brightness == 255 {
		return c
	}
	return RGB{
		R: uint8((uint16(c.R) * uint16(brightness)) / 255),
		G: uint8((uint16(c.G) * uint16(brightness)) / 255),
		B: uint8((uint16(c.B) * uint16(brightness)) / 255),
	}
}

// Add blends two colors additively, saturating each channel at 255.
func Add(a, b RGB) RGB {
	return RGB{
		R: satAdd(a.R, b.R),
		G: satAdd(a.G, b.G),
		B: satAdd(a.B, b.B),
	}
}

func satAdd(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// Clip clamps a signed value to the 0-255 channel range.
func Clip(v int16) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ClipMin clamps a signed value to the min-255 range.
func ClipMin(v int16, min uint8) uint8 {
	if v < int16(min) {
		return min
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// gamma8 maps linear channel values to perceptually even ones (gamma 2.2,
// the curve WS2812-style strips are usually corrected with).
var gamma8 [256]uint8

func init() {
	for i := range gamma8 {
		gamma8[i] = uint8(math.Round(math.Pow(float64(i)/255.0, 2.2) * 255.0))
	}
}

// Gamma returns the gamma-corrected color.
func Gamma(c RGB) RGB {
	return RGB{R: gamma8[c.R], G: gamma8[c.G], B: gamma8[c.B]}
}

// Finalize applies gamma correction and the global brightness to every pixel
// of a frame, in place, and returns the frame. Called once per tick right
// before the frame is handed to the sink.
func Finalize(f Frame, brightness uint8) Frame {
	for i, px := range f {
		f[i] = Scale(Gamma(px), brightness)
	}
	return f
}

// FloorChannels raises every channel that is active in ref to at least min,
// in place, preserving the frame's hue. Gamma maps low channel values to
// zero, so the bottom of the idle breathing wave would otherwise blank the
// strip entirely.
func FloorChannels(f Frame, ref RGB, min uint8) Frame {
	for i := range f {
		if ref.R > 0 {
			f[i].R = ClipMin(int16(f[i].R), min)
		}
		if ref.G > 0 {
			f[i].G = ClipMin(int16(f[i].G), min)
		}
		if ref.B > 0 {
			f[i].B = ClipMin(int16(f[i].B), min)
		}
	}
	return f
}
