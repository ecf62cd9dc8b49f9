package index

import "time"

type Config struct {
	Variant        string        `envconfig:"SPINDEX_INDEX_VARIANT" toml:"variant" default:"RSTAR"`
	Dimensions     int           `envconfig:"SPINDEX_INDEX_DIMENSIONS" toml:"dimensions" default:"2"`
	Capacity       int           `envconfig:"SPINDEX_INDEX_CAPACITY" toml:"capacity" default:"64"`
	MetricFuncType string        `envconfig:"SPINDEX_INDEX_METRIC" toml:"metric" default:"EUCLIDEAN"`
	BoundsOrigin   []float64     `envconfig:"SPINDEX_INDEX_BOUNDS_ORIGIN" toml:"bounds_origin" default:"0,0"`
	BoundsExtents  []float64     `envconfig:"SPINDEX_INDEX_BOUNDS_EXTENTS" toml:"bounds_extents" default:"1000,1000"`
	MaxItemsStored int           `envconfig:"SPINDEX_INDEX_MAX_ITEMS" toml:"max_items" default:"0"`
	MaxStorageTime time.Duration `envconfig:"SPINDEX_INDEX_MAX_STORAGE_TIME" toml:"max_storage_time" default:"0"`
	RebuildDBTime  time.Duration `envconfig:"SPINDEX_INDEX_REBUILD_DB_TIME" toml:"rebuild_db_time" default:"60s"`
	DBFlushTime    time.Duration `envconfig:"SPINDEX_INDEX_DB_FLUSH_TIME" toml:"db_flush_time" default:"5s"`
	DBFlushSize    int           `envconfig:"SPINDEX_INDEX_DB_FLUSH_SIZE" toml:"db_flush_size" default:"128"`
}
