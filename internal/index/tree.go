package index

import (
	"fmt"

	"spindex/internal/geom"
	"spindex/pkg/container/kdtree"
	"spindex/pkg/container/linear"
	"spindex/pkg/container/quadtree"
	"spindex/pkg/container/rtree"
)

const (
	VariantRTree    = "RTREE"
	VariantRStar    = "RSTAR"
	VariantKDTree   = "KDTREE"
	VariantQuadtree = "QUADTREE"
	VariantLinear   = "LINEAR"
)

// Tree is the capability set the manager requires from a spatial index
// variant. All pkg/container variants satisfy it.
type Tree interface {
	Insert(p geom.Point)
	InsertBulk(points ...geom.Point)
	Delete(p geom.Point) int
	KNN(q geom.Point, k int) ([]geom.Point, error)
	KNNFunc(q geom.Point, k int, distFn geom.DistanceFn) ([]geom.Point, error)
	RangeSearch(q geom.Point, radius float64) ([]geom.Point, error)
	RangeSearchFunc(q geom.Point, radius float64, distFn geom.DistanceFn) ([]geom.Point, error)
	RangeSearchBBox(region geom.Region) []geom.Point
	Len() int
	Dimensions() int
	Points() []geom.Point
}

// ProvideTreeFn returns a fresh, empty tree for one index.
type ProvideTreeFn func() (Tree, error)

// ProvideTreeFor builds the tree factory for the configured variant.
func ProvideTreeFor(cfg *Config) (ProvideTreeFn, error) {
	distFn, err := geom.DistanceFnFor(cfg.MetricFuncType)
	if err != nil {
		return nil, fmt.Errorf("unable provide distance function: %w", err)
	}

	switch cfg.Variant {
	case VariantRTree:
		return func() (Tree, error) {
			return rtree.New(cfg.Dimensions, cfg.Capacity, rtree.WithDistanceFn(distFn))
		}, nil
	case "", VariantRStar:
		return func() (Tree, error) {
			return rtree.NewRStar(cfg.Dimensions, cfg.Capacity, rtree.WithDistanceFn(distFn))
		}, nil
	case VariantKDTree:
		return func() (Tree, error) {
			return kdtree.New(cfg.Dimensions, kdtree.WithDistanceFn(distFn))
		}, nil
	case VariantQuadtree:
		bounds := geom.NewRegion(cfg.BoundsOrigin, cfg.BoundsExtents)
		return func() (Tree, error) {
			return quadtree.New(bounds, cfg.Capacity, quadtree.WithDistanceFn(distFn))
		}, nil
	case VariantLinear:
		return func() (Tree, error) {
			return linear.New(cfg.Dimensions, linear.WithDistanceFn(distFn))
		}, nil
	default:
		return nil, fmt.Errorf("unknown index variant: %s", cfg.Variant)
	}
}
