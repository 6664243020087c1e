// internal/ats/adapter.go
package ats

import (
	"context"

	"applyflow/internal/models"
)

// Adapter is the automation contract for one ATS. Detect must be a cheap
// static check with no navigation side effects; FillForm and Submit drive
// the attempt through the shared BaseAdapter primitives.
type Adapter interface {
	Name() string
	Detect(url string) bool
	FillForm(ctx context.Context, base *BaseAdapter, data *models.ApplicationData) error
	Submit(ctx context.Context, base *BaseAdapter) (*models.SubmissionResult, error)
}

// Registry holds adapters in registration order. Selection is a linear scan;
// first Detect match wins, so selection is deterministic for a fixed order.
type Registry struct {
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Select returns the first adapter whose Detect matches. No match is not an
// error: it signals an unsupported site, which the orchestrator turns into a
// manual-submission outcome instead of blind automation.
func (r *Registry) Select(url string) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Detect(url) {
			return a, true
		}
	}
	return nil, false
}

// Names lists registered adapters in scan order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}
