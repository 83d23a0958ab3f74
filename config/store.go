package config

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"lautenbacher.net/ledsentry/util"
)

// Snapshot is one loaded configuration together with its identity.
type Snapshot struct {
	Config   *Config
	Revision uuid.UUID
	LoadedAt time.Time
}

// Store is the process-wide holder of the active configuration. Collaborators
// get a *Store at startup and call Current whenever they need the record; a
// reload swaps the whole Snapshot.
type Store struct {
	latest *util.Latest[Snapshot]
}

// NewStore creates a Store holding initial, which must already be validated.
func NewStore(initial *Config) *Store {
	return &Store{latest: util.NewLatest(newSnapshot(initial))}
}

func newSnapshot(c *Config) *Snapshot {
	return &Snapshot{
		Config:   c,
		Revision: uuid.New(),
		LoadedAt: time.Now(),
	}
}

// Current returns the active snapshot. It never blocks.
func (s *Store) Current() *Snapshot {
	return s.latest.Load()
}

// Config is shorthand for Current().Config.
func (s *Store) Config() *Config {
	return s.latest.Load().Config
}

// Replace installs c as the active configuration and returns the new
// snapshot. c must come from Load or ReadConfig.
func (s *Store) Replace(c *Config) *Snapshot {
	snap := newSnapshot(c)
	s.latest.Publish(snap)
	slog.Info("Configuration replaced", "revision", snap.Revision)
	return snap
}

// Changed signals after one or more Replace calls.
func (s *Store) Changed() <-chan struct{} {
	return s.latest.Changed()
}
