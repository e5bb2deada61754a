// Package di wires the oracled services from configuration.
package di

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Container holds lazily built services and closes them in reverse build order.
type Container struct {
	mu       sync.Mutex
	services map[string]interface{}
	builders map[string]Builder
	building map[string]bool
	closers  []io.Closer
}

// Builder is a function that creates a service instance.
type Builder func(c *Container) (interface{}, error)

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
		building: make(map[string]bool),
	}
}

// Register registers a service instance.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use. A builder may
// resolve its own dependencies through c.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.Lock()
	if service, ok := c.services[name]; ok {
		c.mu.Unlock()
		return service, nil
	}
	builder, ok := c.builders[name]
	if !ok {
		c.mu.Unlock()
		return nil, errors.New("service not found: " + name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("dependency cycle while building %s", name)
	}
	c.building[name] = true
	c.mu.Unlock()

	service, err := builder(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	c.services[name] = service
	if closer, ok := service.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	return service, nil
}

// MustGet retrieves a service or panics if not found.
func (c *Container) MustGet(name string) interface{} {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// Has checks if a service is registered.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.services[name]; ok {
		return true
	}
	_, ok := c.builders[name]
	return ok
}

// ServiceNames returns all registered service names, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// OnClose registers an extra closer run by Close.
func (c *Container) OnClose(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer)
}

// Close closes every built service that implements io.Closer, newest first.
func (c *Container) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Service names constants for type-safe access.
const (
	ServiceConfig  = "config"
	ServiceLogger  = "logger"
	ServiceClock   = "clock"
	ServiceDB      = "db"
	ServiceJournal = "burn.journal"
	ServiceHub     = "events.hub"
	ServiceSinks   = "events.sinks"
	ServiceOracle  = "oracle"
	ServiceRPC     = "rpc.server"
)
