package geom

import (
	"fmt"
	"math"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

// DistanceFn computes the distance between two coordinate vectors. A metric
// must stay consistent with itself across a single query; search pruning
// assumes it is bounded below by the Euclidean distance to a region.
type DistanceFn func(vec, vec1 []float64) (float64, error)

const (
	MetricTypeEuclidean = "EUCLIDEAN"
	MetricTypeManhattan = "MANHATTAN"
	MetricTypeChebyshev = "CHEBYSHEV"
)

// DistanceFnFor resolves a metric by name, defaulting to Euclidean for the
// empty string.
func DistanceFnFor(metricType string) (DistanceFn, error) {
	switch metricType {
	case "", MetricTypeEuclidean:
		return EuclideanDistance, nil
	case MetricTypeManhattan:
		return ManhattanDistance, nil
	case MetricTypeChebyshev:
		return ChebyshevDistance, nil
	default:
		return nil, fmt.Errorf("unknown metric type: %s", metricType)
	}
}

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	var d float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		d += (vec[i] - vec1[i]) * (vec[i] - vec1[i])
	}
	return math.Sqrt(d), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	var absDistance, distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec1); i++ {
		absDistance = math.Abs(vec[i] - vec1[i])
		if distance < absDistance {
			distance = absDistance
		}
	}
	return distance, nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	var distance float64
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	for i := 0; i < len(vec); i++ {
		distance += math.Abs(vec[i] - vec1[i])
	}
	return distance, nil
}
