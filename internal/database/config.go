package database

type Config struct {
	FileName string `envconfig:"SPINDEX_DB_FILE" toml:"file" default:"spindex.db"`
}
