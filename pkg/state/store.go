// Package state holds the bot's shared runtime state: the current API
// configuration, the client derived from it, a handled-command counter and
// token usage totals. A single Store is created at startup and shared by
// every concurrently running command.
//
// Reads take a shared lock, every write takes the exclusive lock, and no
// lock is ever held across network I/O. The configuration and its client are
// always swapped together so a reader never sees a client paired with a
// configuration other than the one that produced it.
package state

import (
	"sync"

	"github.com/germanamz/chatrelay/pkg/config"
	"github.com/germanamz/chatrelay/pkg/modeladapter"
	"github.com/germanamz/chatrelay/pkg/modeladapter/usage"
)

// Factory derives a ready-to-use client from a configuration. It must be
// pure and must not fail; it runs under the Store's exclusive lock.
type Factory func(config.Config) modeladapter.Completer

// Snapshot is a consistent configuration/client pair.
type Snapshot struct {
	Config config.Config
	Client modeladapter.Completer
}

// Store is the shared state container. Use New; the zero value has no
// client.
type Store struct {
	mu      sync.RWMutex
	factory Factory
	counter uint64
	cfg     config.Config
	client  modeladapter.Completer

	usage usage.Tracker
}

// New creates a Store holding cfg and a client derived from it by factory.
func New(cfg config.Config, factory Factory) *Store {
	return &Store{
		factory: factory,
		cfg:     cfg,
		client:  factory(cfg),
	}
}

// IncrementCounter records one handled command and returns the new total.
func (s *Store) IncrementCounter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++

	return s.counter
}

// Counter returns the number of commands handled so far.
func (s *Store) Counter() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counter
}

// Snapshot returns the current configuration and client as one pair.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{Config: s.cfg, Client: s.client}
}

// ReplaceConfig applies mutate to the current configuration, derives a new
// client from the result and installs both. Concurrent readers and writers
// are excluded for the whole computation, so two replacements never lose
// each other's changes. It returns the installed configuration.
func (s *Store) ReplaceConfig(mutate func(config.Config) config.Config) config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mutate(s.cfg)
	s.cfg, s.client = next, s.factory(next)

	return next
}

// Usage returns the token usage tracker. It synchronizes itself and is not
// covered by the Store's lock.
func (s *Store) Usage() *usage.Tracker { return &s.usage }
