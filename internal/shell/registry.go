package shell

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory builds a shell for a new browser session id.
type Factory func(sid string) (*Shell, error)

// Registry maps browser session ids to their shell instances. Shells are
// created lazily and restored from their durable store on first sight.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	factory Factory
	logger  *zap.Logger
	now     func() time.Time
}

type registryEntry struct {
	shell    *Shell
	lastSeen time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the shell for sid, creating and restoring one on first use.
func (r *Registry) Get(ctx context.Context, sid string) (*Shell, error) {
	r.mu.Lock()
	if entry, ok := r.entries[sid]; ok {
		entry.lastSeen = r.now()
		r.mu.Unlock()
		return entry.shell, nil
	}
	r.mu.Unlock()

	sh, err := r.factory(sid)
	if err != nil {
		return nil, err
	}
	sh.Restore(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[sid]; ok {
		// Lost the race; keep the first shell.
		sh.Close()
		entry.lastSeen = r.now()
		return entry.shell, nil
	}
	r.entries[sid] = &registryEntry{shell: sh, lastSeen: r.now()}
	return sh, nil
}

// Sweep closes and drops shells idle for longer than maxIdle, returning how
// many were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sid, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			entry.shell.Close()
			delete(r.entries, sid)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("swept idle shells", zap.Int("removed", removed))
	}
	return removed
}

// Len reports the number of live shells.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
