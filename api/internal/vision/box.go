package vision

import "math"

// Box is an axis-aligned rectangle in image pixel space, (X1,Y1) top-left, (X2,Y2) bottom-right.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area. Degenerate boxes have zero area.
func (b Box) Area() float64 {
	return math.Max(0, b.X2-b.X1) * math.Max(0, b.Y2-b.Y1)
}

// Scale multiplies x coordinates by fx and y coordinates by fy.
func (b Box) Scale(fx, fy float64) Box {
	return Box{X1: b.X1 * fx, Y1: b.Y1 * fy, X2: b.X2 * fx, Y2: b.Y2 * fy}
}

// IoU returns the Intersection-over-Union of a and b in [0,1].
// Two zero-area boxes give 0.
func IoU(a, b Box) float64 {
	ix1 := math.Max(a.X1, b.X1)
	iy1 := math.Max(a.Y1, b.Y1)
	ix2 := math.Min(a.X2, b.X2)
	iy2 := math.Min(a.Y2, b.Y2)

	inter := math.Max(0, ix2-ix1) * math.Max(0, iy2-iy1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
