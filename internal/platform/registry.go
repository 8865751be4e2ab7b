package platform

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonesrussell/social-swarm/internal/logger"
	"github.com/jonesrussell/social-swarm/internal/models"
)

// Registry holds the configured platform adapters, keyed by platform id.
type Registry struct {
	adapters map[string]Adapter
	logger   logger.Logger
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(log logger.Logger, adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		logger:   log,
	}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter for a platform id, or ErrUnknownPlatform.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownPlatform, name)
	}
	return a, nil
}

// Names returns the registered platform ids in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitializeAll initializes every adapter. Individual failures are logged
// and do not abort the others; the adapter simply stays disconnected and
// its publish calls will fail inline.
func (r *Registry) InitializeAll(ctx context.Context) {
	for _, name := range r.Names() {
		if err := r.adapters[name].Initialize(ctx); err != nil {
			r.logger.Warn("Platform adapter initialization failed",
				logger.String("platform", name),
				logger.Error(err),
			)
			continue
		}
		r.logger.Info("Platform adapter initialized",
			logger.String("platform", name),
		)
	}
}

// ShutdownAll shuts down every adapter.
func (r *Registry) ShutdownAll() {
	for _, name := range r.Names() {
		if err := r.adapters[name].Shutdown(); err != nil {
			r.logger.Warn("Platform adapter shutdown failed",
				logger.String("platform", name),
				logger.Error(err),
			)
		}
	}
}

// Status returns the connection state of every registered adapter.
func (r *Registry) Status() map[string]models.PlatformStatus {
	out := make(map[string]models.PlatformStatus, len(r.adapters))
	for name, a := range r.adapters {
		out[name] = a.Status()
	}
	return out
}
