package spindex

import (
	"spindex/internal/database"
	"spindex/internal/index"
	"spindex/internal/ingest"
	"spindex/internal/search"
	"spindex/internal/setup"
)

var (
	_ setup.IndexConfigProvider    = (*Config)(nil)
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.ConfigFileProvider     = (*Config)(nil)
)

type Config struct {
	SrvAddr    string `envconfig:"SPINDEX_ADDR" default:":8787"`
	ConfigFile string `envconfig:"SPINDEX_CONFIG_FILE"`
	Index      index.Config    `toml:"index"`
	Ingest     ingest.Config   `toml:"ingest"`
	Search     search.Config   `toml:"search"`
	Database   database.Config `toml:"database"`
}

func (c Config) ConfigFilePath() string {
	return c.ConfigFile
}

func (c Config) IndexConfig() *index.Config {
	return &c.Index
}

func (c Config) IngestConfig() *ingest.Config {
	return &c.Ingest
}

func (c Config) SearchConfig() *search.Config {
	return &c.Search
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}
