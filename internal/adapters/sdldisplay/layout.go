package sdldisplay

import "image/color"

type Rect struct {
	X, Y, W, H int32
}

// CrossRects returns the horizontal and vertical bars of a cross centred in
// a width x height surface.
func CrossRects(width, height, size, thickness int32) [2]Rect {
	cx, cy := width/2, height/2
	return [2]Rect{
		{X: cx - size/2, Y: cy - thickness/2, W: size, H: thickness},
		{X: cx - thickness/2, Y: cy - size/2, W: thickness, H: size},
	}
}

// SlotRect splits the surface into n equal columns and returns a centred
// box of the given height inside column i.
func SlotRect(width, height int32, n, i int, boxHeight int32) Rect {
	if n <= 0 {
		n = 1
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	column := width / int32(n)
	margin := column / 6
	return Rect{
		X: column*int32(i) + margin,
		Y: height/2 - boxHeight/2,
		W: column - 2*margin,
		H: boxHeight,
	}
}

func toNRGBA(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
