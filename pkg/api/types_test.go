package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

var central = repository.Remote{ID: "central", URL: "https://repo.example.org/central"}

func TestCollectRequest_ToRequest(t *testing.T) {
	defaults := []repository.Remote{central}

	t.Run("rooted", func(t *testing.T) {
		req, err := CollectRequest{
			Root:                &repository.DependencyEntry{Coords: "g:app:1"},
			Dependencies:        []repository.DependencyEntry{{Coords: "g:extra:1", Scope: "test"}},
			ManagedDependencies: []repository.DependencyEntry{{Coords: "g:lib:2"}},
			Context:             "build",
		}.ToRequest(defaults)
		require.NoError(t, err)

		require.NotNil(t, req.Root)
		assert.Equal(t, "g:app:jar:1", req.Root.Artifact.Key())
		require.Len(t, req.Dependencies, 1)
		assert.Equal(t, "test", req.Dependencies[0].Scope)
		assert.Len(t, req.ManagedDependencies, 1)
		assert.Equal(t, defaults, req.Repositories)
		assert.Equal(t, "build", req.RequestContext)
	})

	t.Run("rootless", func(t *testing.T) {
		own := []repository.Remote{{ID: "own", URL: "file:///repo"}}
		req, err := CollectRequest{
			RootArtifact: "g:app:1",
			Dependencies: []repository.DependencyEntry{{Coords: "g:lib:1"}},
			Repositories: own,
		}.ToRequest(defaults)
		require.NoError(t, err)
		assert.True(t, req.IsRootless())
		assert.Equal(t, own, req.Repositories)
	})

	t.Run("multi-root", func(t *testing.T) {
		req, err := CollectRequest{
			Dependencies: []repository.DependencyEntry{{Coords: "g:a:1"}, {Coords: "g:b:1"}},
		}.ToRequest(defaults)
		require.NoError(t, err)
		assert.True(t, req.IsMultiRoot())
		assert.Len(t, req.Dependencies, 2)
	})

	invalid := map[string]CollectRequest{
		"empty":             {},
		"both roots":        {Root: &repository.DependencyEntry{Coords: "g:a:1"}, RootArtifact: "g:b:1"},
		"bad root":          {Root: &repository.DependencyEntry{Coords: "nope"}},
		"bad root artifact": {RootArtifact: "nope"},
		"bad dependency":    {Dependencies: []repository.DependencyEntry{{Coords: "g"}}},
		"bad managed":       {RootArtifact: "g:a:1", ManagedDependencies: []repository.DependencyEntry{{Coords: "g"}}},
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := body.ToRequest(defaults)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestSessionOptions_Overlay(t *testing.T) {
	base := config.CollectorConfig{Parallelism: 4, Manager: "classic", Selector: "default", CyclePolicy: "coordinate"}

	var none *SessionOptions
	assert.Equal(t, base, none.Overlay(base))

	verbose := true
	got := (&SessionOptions{Manager: "transitive", CyclePolicy: "versionless", Verbose: &verbose}).Overlay(base)
	assert.Equal(t, "transitive", got.Manager)
	assert.Equal(t, "default", got.Selector)
	assert.Equal(t, "versionless", got.CyclePolicy)
	assert.True(t, got.Verbose)
	assert.Equal(t, 4, got.Parallelism)
}

func TestValidFormat(t *testing.T) {
	for _, f := range Formats {
		assert.True(t, ValidFormat(f))
	}
	assert.False(t, ValidFormat("xml"))
}
