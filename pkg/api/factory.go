// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ssargent/rsv/pkg/storage"
)

// DefaultStoreFactory opens pebble-backed row stores
type DefaultStoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() StoreFactory {
	return &DefaultStoreFactory{}
}

// OpenStore opens the row store under dataDir/rows
func (f *DefaultStoreFactory) OpenStore(dataDir string, logger zerolog.Logger) (IRowStore, error) {
	return storage.Open(filepath.Join(dataDir, "rows"), storage.Options{
		Logger: logger.With().Str("component", "storage").Logger(),
	})
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer serves the API until ctx is cancelled
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	store IRowStore,
	config ServerConfig,
	logger zerolog.Logger,
	reg prometheus.Registerer,
) error {
	return StartServer(ctx, store, config, logger, reg)
}
