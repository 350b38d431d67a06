package domain

// Region is a rectangle in the coordinate space of a background image,
// as returned by face detection.
type Region struct {
	X int
	Y int
	W int
	H int
}

// Scale returns the region with origin and size multiplied by f.
func (r Region) Scale(f float64) Region {
	return Region{
		X: int(float64(r.X) * f),
		Y: int(float64(r.Y) * f),
		W: int(float64(r.W) * f),
		H: int(float64(r.H) * f),
	}
}
