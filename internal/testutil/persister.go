// Package testutil provides shared test doubles.
package testutil

import (
	"context"

	"github.com/nmolargik/setdeck/internal/core"
)

// MemPersister is an in-memory core.Persister for tests. It keeps the last
// flushed snapshot and can fail the next flush on demand.
type MemPersister struct {
	Snap    *core.Snapshot
	Flags   map[string]bool
	Flushes int

	// FailNext makes the next Flush return this error once.
	FailNext error
}

// NewMemPersister creates an empty persister.
func NewMemPersister() *MemPersister {
	return &MemPersister{Snap: &core.Snapshot{}, Flags: make(map[string]bool)}
}

func (p *MemPersister) Load(_ context.Context) (*core.Snapshot, error) {
	return p.Snap, nil
}

func (p *MemPersister) Flush(_ context.Context, snap *core.Snapshot) error {
	if p.FailNext != nil {
		err := p.FailNext
		p.FailNext = nil
		return err
	}
	p.Snap = snap
	p.Flushes++
	return nil
}

func (p *MemPersister) SetFlag(_ context.Context, key string, value bool) error {
	p.Flags[key] = value
	return nil
}

func (p *MemPersister) Flag(_ context.Context, key string) (bool, error) {
	return p.Flags[key], nil
}

func (p *MemPersister) Close() error { return nil }

var _ core.Persister = (*MemPersister)(nil)
