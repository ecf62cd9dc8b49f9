package srvenv

import (
	"context"

	"spindex/internal/database"
	"spindex/internal/index"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	index    index.ProvideFn
}

func (s *SrvEnv) ProvideIndexManager() index.ProvideFn {
	return s.index
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithIndexManager(fn index.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.index = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
