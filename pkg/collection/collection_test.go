package collection

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/graph"
	"github.com/platinummonkey/depcollect/pkg/repository"
	"github.com/platinummonkey/depcollect/pkg/version"
)

func TestManagement_Apply(t *testing.T) {
	dep := artifact.MustParseDependency("g:a:1.0", artifact.ScopeCompile).
		WithExclusions([]artifact.Exclusion{artifact.NewExclusion("x", "y", "", "")})

	m := NewManagement().
		SetVersion("2.0").
		SetScope(artifact.ScopeRuntime).
		SetOptional(true).
		SetProperties(map[string]string{artifact.PropertyLocalPath: "/tmp/a.jar"}).
		SetExclusions(nil)

	got, bits, pre := m.Apply(dep)
	assert.Equal(t, "2.0", got.Artifact.Version())
	assert.Equal(t, artifact.ScopeRuntime, got.Scope)
	assert.True(t, got.Optional)
	assert.Equal(t, "/tmp/a.jar", got.Artifact.Property(artifact.PropertyLocalPath, ""))
	assert.Empty(t, got.Exclusions)

	assert.Equal(t, graph.ManagedVersion|graph.ManagedScope|graph.ManagedOptional|graph.ManagedProperties|graph.ManagedExclusions, bits)
	require.NotNil(t, pre)
	assert.Equal(t, "1.0", pre.Version)
	assert.Equal(t, artifact.ScopeCompile, pre.Scope)
	assert.False(t, pre.Optional)
	assert.Len(t, pre.Exclusions, 1)

	// the input is untouched
	assert.Equal(t, "1.0", dep.Artifact.Version())
	assert.Len(t, dep.Exclusions, 1)
}

func TestManagement_PartialAndEmpty(t *testing.T) {
	dep := artifact.MustParseDependency("g:a:1.0", artifact.ScopeCompile)

	got, bits, pre := NewManagement().SetScope(artifact.ScopeTest).Apply(dep)
	assert.Equal(t, graph.ManagedScope, bits)
	assert.Equal(t, "1.0", got.Artifact.Version())
	assert.Equal(t, artifact.ScopeTest, got.Scope)
	assert.NotNil(t, pre)

	_, ok := NewManagement().SetScope("x").Version()
	assert.False(t, ok)

	var nilMgmt *Management
	got, bits, pre = nilMgmt.Apply(dep)
	assert.True(t, got.Equal(dep))
	assert.Zero(t, bits)
	assert.Nil(t, pre)
}

func TestResult_ConcurrentAppend(t *testing.T) {
	r := NewResult(&Request{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.AddException(fmt.Errorf("failure %d", i))
			r.AddCycle(graph.Cycle{})
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Exceptions(), 50)
	assert.Len(t, r.Cycles(), 50)

	r.AddException(nil)
	assert.Len(t, r.Exceptions(), 50)
}

func TestCollectionError_Unwrap(t *testing.T) {
	r := NewResult(&Request{})
	a := artifact.MustParse("g:a:1")
	r.AddException(&DescriptorError{
		Artifact:     a,
		Repositories: []repository.Remote{{ID: "central"}},
		Err:          fmt.Errorf("read: %w", repository.ErrNotFound),
	})
	r.AddException(&VersionResolutionError{
		Dependency: artifact.NewDependency(artifact.MustParse("g:b:[1,2)"), artifact.ScopeCompile),
		Constraint: "[1,2)",
		Err:        ErrNoVersions,
	})

	var err error = &CollectionError{Result: r}
	assert.True(t, errors.Is(err, ErrDescriptorNotFound))
	assert.True(t, errors.Is(err, ErrNoVersions))

	var derr *DescriptorError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "g:a:jar:1", derr.Artifact.Key())
	assert.Contains(t, derr.Error(), "central")

	var cerr *CollectionError
	require.True(t, errors.As(err, &cerr))
	assert.Same(t, r, cerr.Result)
	assert.Contains(t, err.Error(), "2 errors")
}

func TestCyclePolicy(t *testing.T) {
	a := artifact.MustParse("g:a:1")
	assert.Equal(t, "g:a:jar:1", CycleByCoordinate.Key(a))
	assert.Equal(t, "g:a:jar", CycleByVersionless.Key(a))

	tests := []struct {
		in      string
		want    CyclePolicy
		wantErr bool
	}{
		{"", CycleByCoordinate, false},
		{"coordinate", CycleByCoordinate, false},
		{"Versionless", CycleByVersionless, false},
		{"strict", CycleByCoordinate, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCyclePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) CyclePolicy {
	t.Helper()
	p, err := ParseCyclePolicy(s)
	require.NoError(t, err)
	return p
}

func TestVersionFilterContext_Filter(t *testing.T) {
	shared := []version.Version{version.Parse("1"), version.Parse("2"), version.Parse("3")}
	fc := &VersionFilterContext{Versions: shared}

	fc.Filter(func(v version.Version) bool { return v.String() != "2" })
	assert.Equal(t, 2, fc.Len())
	assert.Equal(t, "3", fc.Versions[1].String())
	assert.Equal(t, "2", shared[1].String(), "filtering must not modify the caller's slice")
}

func TestFingerprintStrings(t *testing.T) {
	assert.Equal(t, FingerprintStrings("a", "b"), FingerprintStrings("a", "b"))
	assert.NotEqual(t, FingerprintStrings("ab"), FingerprintStrings("a", "b"))
}

func TestRequestShapes(t *testing.T) {
	root := artifact.MustParseDependency("g:root:1", artifact.ScopeCompile)
	req := NewRequest(root, nil)
	assert.False(t, req.IsRootless())
	assert.False(t, req.IsMultiRoot())
	entry, ok := req.RootPathEntry()
	require.True(t, ok)
	assert.True(t, entry.Equal(root))

	rootless := NewRootlessRequest(artifact.MustParse("g:app:1"), nil, nil)
	assert.True(t, rootless.IsRootless())
	entry, ok = rootless.RootPathEntry()
	require.True(t, ok)
	assert.Equal(t, "g:app:jar:1", entry.Artifact.Key())

	multi := NewMultiRootRequest([]artifact.Dependency{root}, nil).
		WithManaged(artifact.MustParseDependency("g:m:2", ""))
	assert.True(t, multi.IsMultiRoot())
	assert.Len(t, multi.ManagedDependencies, 1)
	_, ok = multi.RootPathEntry()
	assert.False(t, ok)
}
