// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/rsv/pkg/rsv"
)

// IRowStore defines the row store operations the gateway needs
type IRowStore interface {
	Append(row []byte) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	Scan(fn func(id ksuid.KSUID, row []byte) error) error
	Count() (int64, error)
	Import(r *rsv.Reader) (int64, error)
	Export(w *rsv.Writer) (int64, error)
	Close() error
}

// StoreFactory opens row stores
type StoreFactory interface {
	// OpenStore opens the row store kept in dataDir
	OpenStore(dataDir string, logger zerolog.Logger) (IRowStore, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, store IRowStore, config ServerConfig, logger zerolog.Logger, reg prometheus.Registerer) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
