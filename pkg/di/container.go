// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ssargent/rsv/pkg/api" //nolint:depguard
	"github.com/ssargent/rsv/pkg/config"
)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        zerolog.Logger
	registry      *prometheus.Registry
	storeFactory  api.StoreFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		config:        config.DefaultConfig(),
		logger:        zerolog.Nop(),
		registry:      prometheus.NewRegistry(),
		storeFactory:  api.NewStoreFactory(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetConfig returns the loaded configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// SetConfig replaces the configuration
func (c *Container) SetConfig(cfg *config.Config) {
	c.config = cfg
}

// GetLogger returns the application logger
func (c *Container) GetLogger() zerolog.Logger {
	return c.logger
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// GetRegistry returns the prometheus registry shared by the server
func (c *Container) GetRegistry() *prometheus.Registry {
	return c.registry
}

// GetStoreFactory returns the row store factory
func (c *Container) GetStoreFactory() api.StoreFactory {
	return c.storeFactory
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory api.StoreFactory) {
	c.storeFactory = factory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
