package ingest

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"SPINDEX_INGEST_REQUEST_TIMEOUT" toml:"request_timeout" default:"60s"`
}
