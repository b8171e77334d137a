// Package di provides a small lazy-singleton service container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
	Has(name string) bool
}

// Container registers services and factories.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	once     sync.Once
	factory  func(ServiceRegistry) any
	instance any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]*entry)}
}

func (c *container) Register(name string, service any) {
	e := &entry{instance: service}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[name] = e
	c.mu.Unlock()
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[name] = &entry{factory: factory}
	c.mu.Unlock()
}

func (c *container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Get resolves a service, building it on first use. It panics on unknown names
// since a missing registration is a wiring bug.
func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.services[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}

	e.once.Do(func() {
		e.instance = e.factory(c)
	})
	return e.instance
}

// Token is a typed service key.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registration key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed lazy factory.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v := sr.Get(token.name)
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T", token.name, v))
	}
	return typed
}
