package model

// FaceRect is an axis-aligned rectangle in normalized image coordinates,
// origin top-left: 0 <= X1 < X2 <= 1 and 0 <= Y1 < Y2 <= 1.
type FaceRect struct {
	X1, Y1, X2, Y2 float64
}

// Valid reports whether the rectangle satisfies spec's normalization
// invariant. Degenerate (zero-area) or out-of-range rectangles are invalid.
func (r FaceRect) Valid() bool {
	return r.X1 >= 0 && r.X1 < r.X2 && r.X2 <= 1 &&
		r.Y1 >= 0 && r.Y1 < r.Y2 && r.Y2 <= 1
}

// NormalizeFromPixels converts a pixel-space rectangle to normalized
// coordinates given the image's pixel dimensions.
func NormalizeFromPixels(x1, y1, x2, y2 float64, width, height int) FaceRect {
	if width <= 0 || height <= 0 {
		return FaceRect{}
	}
	return FaceRect{
		X1: x1 / float64(width),
		Y1: y1 / float64(height),
		X2: x2 / float64(width),
		Y2: y2 / float64(height),
	}
}
