package codefix

import (
	"context"
	"fmt"
)

// Registry maps descriptor ids to providers, in registration order.
type Registry struct {
	providers []Provider
	byID      map[string][]Provider
}

// NewRegistry returns a registry of providers. Nil providers are ignored.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byID: make(map[string][]Provider)}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.providers = append(r.providers, p)
		for _, id := range p.FixableIDs() {
			r.byID[id] = append(r.byID[id], p)
		}
	}
	return r
}

// Providers returns every registered provider.
func (r *Registry) Providers() []Provider { return r.providers }

// For returns the first provider that handles id.
func (r *Registry) For(id string) (Provider, bool) {
	ps := r.byID[id]
	if len(ps) == 0 {
		return nil, false
	}
	return ps[0], true
}

// Fixable reports whether any provider handles id.
func (r *Registry) Fixable(id string) bool {
	return len(r.byID[id]) > 0
}

// Fixes collects the actions of every provider that handles the request's
// diagnostic. Providers that find the site not applicable are skipped.
func (r *Registry) Fixes(ctx context.Context, req Request) ([]Action, error) {
	ps := r.byID[req.Diagnostic.ID]
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, req.Diagnostic.ID)
	}

	var out []Action
	for _, p := range ps {
		actions, err := p.ComputeFixes(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isNotApplicable(err) {
				continue
			}
			return nil, err
		}
		out = append(out, actions...)
	}
	if len(out) == 0 {
		return nil, ErrNotApplicable
	}
	return out, nil
}
