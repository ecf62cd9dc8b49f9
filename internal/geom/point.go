package geom

// Point is a 2D or 3D coordinate tuple with an optional opaque payload.
// Points are value types: a tree never mutates a stored point in place,
// updates are delete+insert.
type Point struct {
	Coords []float64   `json:"coords"`
	Data   interface{} `json:"data,omitempty"`
}

func NewPoint(coords []float64, data interface{}) Point {
	return Point{Coords: coords, Data: data}
}

func (p Point) Dimensions() int {
	return len(p.Coords)
}

func (p Point) Dim(idx int) float64 {
	return p.Coords[idx]
}

func (p Point) Points() []float64 {
	return p.Coords
}

func (p Point) Copy() Point {
	coords := make([]float64, len(p.Coords))
	copy(coords, p.Coords)
	return Point{Coords: coords, Data: p.Data}
}

// Equal compares coordinates only. Payloads are opaque and do not
// participate in point identity.
func (p Point) Equal(other Point) bool {
	if len(p.Coords) != len(other.Coords) {
		return false
	}
	for i, v := range p.Coords {
		if other.Coords[i] != v {
			return false
		}
	}
	return true
}
