package index

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyIndex, _ = tag.NewKey("index")

	mCollected    = stats.Int64("spindex/index/collected", "points accepted by the collect pipeline", stats.UnitDimensionless)
	mEvicted      = stats.Int64("spindex/index/evicted", "records removed by the eviction scheduler", stats.UnitDimensionless)
	mQueries      = stats.Int64("spindex/index/queries", "search operations executed", stats.UnitDimensionless)
	mQueryLatency = stats.Float64("spindex/index/query_latency", "search latency", stats.UnitMilliseconds)
	mTreeSize     = stats.Int64("spindex/index/tree_size", "points held by an in-memory tree", stats.UnitDimensionless)
)

// Views exports the package's opencensus views for registration at
// startup.
var Views = []*view.View{
	{
		Name:        "spindex/index/collected",
		Measure:     mCollected,
		Description: "points accepted by the collect pipeline",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.Count(),
	},
	{
		Name:        "spindex/index/evicted",
		Measure:     mEvicted,
		Description: "records removed by the eviction scheduler",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.Sum(),
	},
	{
		Name:        "spindex/index/queries",
		Measure:     mQueries,
		Description: "search operations executed",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.Count(),
	},
	{
		Name:        "spindex/index/query_latency",
		Measure:     mQueryLatency,
		Description: "search latency distribution",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.Distribution(1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
	},
	{
		Name:        "spindex/index/tree_size",
		Measure:     mTreeSize,
		Description: "points held by an in-memory tree",
		TagKeys:     []tag.Key{KeyIndex},
		Aggregation: view.LastValue(),
	},
}
