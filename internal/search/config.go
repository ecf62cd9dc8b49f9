package search

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"SPINDEX_SEARCH_REQUEST_TIMEOUT" toml:"request_timeout" default:"30s"`
	MaxDataItemsLen int           `envconfig:"SPINDEX_SEARCH_MAX_DATA_ITEMS_LEN" toml:"max_data_items_len" default:"32"`
}
