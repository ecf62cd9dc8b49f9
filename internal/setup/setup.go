package setup

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"spindex/internal/database"
	"spindex/internal/index"
	"spindex/internal/logging"
	"spindex/internal/srvenv"
)

type ConfigFileProvider interface {
	ConfigFilePath() string
}

type IndexConfigProvider interface {
	IndexConfig() *index.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Values from the optional TOML file win over environment defaults.
	if fileConfigProvider, ok := config.(ConfigFileProvider); ok {
		if path := fileConfigProvider.ConfigFilePath(); path != "" {
			logger.Infof("Loading config file %s", path)
			if _, err := toml.DecodeFile(path, config); err != nil {
				return nil, fmt.Errorf("error loading config file %s: %w", path, err)
			}
		}
	}

	var db *database.DB
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if indexConfigProvider, ok := config.(IndexConfigProvider); ok {
		logger.Info("Configuring index manager")
		provideFn, err := ProvideIndexManagerFor(indexConfigProvider, db)
		if err != nil {
			return nil, fmt.Errorf("unable create index manager provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithIndexManager(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideIndexManagerFor(provider IndexConfigProvider, db *database.DB) (index.ProvideFn, error) {
	cfg := provider.IndexConfig()
	treeProvideFn, err := index.ProvideTreeFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable create tree provide function: %v", err)
	}
	return func(shutdownCh chan<- error) (index.Manager, error) {
		return index.New(
			db,
			treeProvideFn,
			shutdownCh,
			index.WithRebuildDBTime(cfg.RebuildDBTime),
			index.WithMaxItemsStored(cfg.MaxItemsStored),
			index.WithMaxStorageTime(cfg.MaxStorageTime),
			index.WithDBFlushSize(cfg.DBFlushSize),
			index.WithDBFlushTime(cfg.DBFlushTime),
		)
	}, nil
}
