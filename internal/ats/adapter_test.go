// internal/ats/adapter_test.go
package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(
		NewGreenhouseAdapter(),
		NewLeverAdapter(),
		NewWorkableAdapter(),
	)
}

func TestRegistry_Select(t *testing.T) {
	registry := newTestRegistry()

	tests := []struct {
		name      string
		url       string
		wantName  string
		wantFound bool
	}{
		{"greenhouse board", "https://boards.greenhouse.io/acme/jobs/4567", "greenhouse", true},
		{"greenhouse job boards host", "https://job-boards.greenhouse.io/acme/jobs/4567", "greenhouse", true},
		{"greenhouse embedded app", "https://acme.greenhouse.io/embed/job_app?token=99", "greenhouse", true},
		{"lever posting", "https://jobs.lever.co/acme/0f1e2d3c", "lever", true},
		{"lever eu posting", "https://jobs.eu.lever.co/acme/0f1e2d3c", "lever", true},
		{"workable posting", "https://apply.workable.com/acme/j/ABCDEF/", "workable", true},
		{"uppercase host still matches", "https://BOARDS.GREENHOUSE.IO/acme/jobs/1", "greenhouse", true},
		{"company careers page", "https://acme.com/careers/backend-engineer", "", false},
		{"empty url", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, found := registry.Select(tt.url)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				require.NotNil(t, adapter)
				assert.Equal(t, tt.wantName, adapter.Name())
			} else {
				assert.Nil(t, adapter)
			}
		})
	}
}

func TestRegistry_SelectIsDeterministic(t *testing.T) {
	registry := newTestRegistry()
	url := "https://boards.greenhouse.io/acme/jobs/4567"

	first, ok := registry.Select(url)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		adapter, ok := registry.Select(url)
		require.True(t, ok)
		assert.Equal(t, first.Name(), adapter.Name())
	}
}

func TestRegistry_RegistrationOrderWins(t *testing.T) {
	// Two adapters matching the same URL: the first registered is selected.
	registry := NewRegistry(NewLeverAdapter())
	registry.Register(NewGreenhouseAdapter())

	adapter, ok := registry.Select("https://jobs.lever.co/acme/1")
	require.True(t, ok)
	assert.Equal(t, "lever", adapter.Name())
}

func TestRegistry_Names(t *testing.T) {
	registry := newTestRegistry()

	assert.Equal(t, []string{"greenhouse", "lever", "workable"}, registry.Names())
}
