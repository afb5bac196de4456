package zone

import "github.com/labelops/engine/internal/domain/shared"

// Provider hands out the active Config snapshot. Implementations replace the
// snapshot atomically on reload; callers must treat a returned Config as
// immutable and must not cache it across operations that should observe
// layout changes.
type Provider interface {
	// Snapshot returns the current configuration, or CONFIG_INVALID when no
	// valid configuration has been loaded. The engine fails closed: it never
	// fabricates a layout.
	Snapshot() (*Config, error)
}

// StaticProvider serves a fixed Config. Used by tests and by callers that
// load a layout once without watching for changes.
type StaticProvider struct {
	cfg *Config
}

// NewStaticProvider wraps an already-validated Config.
func NewStaticProvider(cfg *Config) *StaticProvider {
	return &StaticProvider{cfg: cfg}
}

// Snapshot implements Provider.
func (p *StaticProvider) Snapshot() (*Config, error) {
	if p.cfg == nil {
		return nil, shared.ErrConfigInvalid.WithMessage("no zone configuration loaded")
	}
	return p.cfg, nil
}
