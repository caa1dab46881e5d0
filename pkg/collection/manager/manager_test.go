package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

func ctxWith(managed ...artifact.Dependency) *collection.Context {
	return &collection.Context{ManagedDependencies: managed}
}

// derive walks a manager down n levels, using managed at the first level only
func derive(m collection.DependencyManager, n int, managed ...artifact.Dependency) collection.DependencyManager {
	for i := 0; i < n; i++ {
		if i == 0 {
			m = m.DeriveChildManager(ctxWith(managed...))
		} else {
			m = m.DeriveChildManager(ctxWith())
		}
	}
	return m
}

func TestClassic_AppliesToTransitiveOnly(t *testing.T) {
	managed := artifact.MustParseDependency("g:b:2.0", artifact.ScopeRuntime)
	dep := artifact.MustParseDependency("g:b:1.0", artifact.ScopeCompile)

	direct := derive(NewClassic(), 1, managed)
	assert.Nil(t, direct.ManageDependency(dep), "direct dependencies keep their declaration")

	transitive := derive(NewClassic(), 2, managed)
	mgmt := transitive.ManageDependency(dep)
	require.NotNil(t, mgmt)
	v, ok := mgmt.Version()
	assert.True(t, ok)
	assert.Equal(t, "2.0", v)
	s, ok := mgmt.Scope()
	assert.True(t, ok)
	assert.Equal(t, artifact.ScopeRuntime, s)
	_, ok = mgmt.Optional()
	assert.False(t, ok)

	assert.Nil(t, transitive.ManageDependency(artifact.MustParseDependency("g:other:1", "")))
}

func TestClassic_IgnoresManagementBelowRoot(t *testing.T) {
	m := NewClassic().DeriveChildManager(ctxWith())
	m = m.DeriveChildManager(ctxWith(artifact.MustParseDependency("g:b:9", "")))

	assert.Nil(t, m.ManageDependency(artifact.MustParseDependency("g:b:1", "")))
}

func TestClassic_SettlesAfterDepthTwo(t *testing.T) {
	m2 := derive(NewClassic(), 2, artifact.MustParseDependency("g:b:2", ""))
	m3 := m2.DeriveChildManager(ctxWith(artifact.MustParseDependency("g:c:2", "")))
	assert.Same(t, m2, m3)
}

func TestClassic_ExclusionsAtAnyDepth(t *testing.T) {
	ex := artifact.NewExclusion("x", "y", "", "")
	managed := artifact.MustParseDependency("g:b:2", "").WithExclusions([]artifact.Exclusion{ex})
	declared := artifact.NewExclusion("p", "q", "", "")
	dep := artifact.MustParseDependency("g:b:1", "").WithExclusions([]artifact.Exclusion{declared, ex})

	mgmt := derive(NewClassic(), 1, managed).ManageDependency(dep)
	require.NotNil(t, mgmt)
	_, ok := mgmt.Version()
	assert.False(t, ok)
	got, ok := mgmt.Exclusions()
	require.True(t, ok)
	assert.Equal(t, []artifact.Exclusion{declared, ex}, got)
}

func TestClassic_LocalPath(t *testing.T) {
	path := "/opt/lib/b.jar"
	systemManaged := artifact.NewDependency(artifact.MustParse("g:b:2").WithProperty(artifact.PropertyLocalPath, path), artifact.ScopeSystem)

	t.Run("managed system scope adds path", func(t *testing.T) {
		mgmt := derive(NewClassic(), 2, systemManaged).ManageDependency(artifact.MustParseDependency("g:b:1", artifact.ScopeCompile))
		require.NotNil(t, mgmt)
		props, ok := mgmt.Properties()
		require.True(t, ok)
		assert.Equal(t, path, props[artifact.PropertyLocalPath])
	})

	t.Run("declared system scope adds path", func(t *testing.T) {
		pathOnly := artifact.NewDependency(artifact.New("g", "b", "", artifact.DefaultExtension, "").WithProperty(artifact.PropertyLocalPath, path), "")
		mgmt := derive(NewClassic(), 2, pathOnly).ManageDependency(artifact.MustParseDependency("g:b:1", artifact.ScopeSystem))
		require.NotNil(t, mgmt)
		props, ok := mgmt.Properties()
		require.True(t, ok)
		assert.Equal(t, path, props[artifact.PropertyLocalPath])
	})

	t.Run("managed non-system scope drops path", func(t *testing.T) {
		managed := artifact.MustParseDependency("g:b:2", artifact.ScopeCompile)
		dep := artifact.NewDependency(artifact.MustParse("g:b:1").WithProperty(artifact.PropertyLocalPath, path), artifact.ScopeSystem)
		mgmt := derive(NewClassic(), 2, managed).ManageDependency(dep)
		require.NotNil(t, mgmt)
		props, ok := mgmt.Properties()
		require.True(t, ok)
		assert.NotContains(t, props, artifact.PropertyLocalPath)
	})
}

func TestTransitive_NearestRootWins(t *testing.T) {
	m := NewTransitive().DeriveChildManager(ctxWith(artifact.MustParseDependency("g:b:root", "")))
	m = m.DeriveChildManager(ctxWith(
		artifact.MustParseDependency("g:b:deep", ""),
		artifact.MustParseDependency("g:c:deep", ""),
	))

	b, _ := m.ManageDependency(artifact.MustParseDependency("g:b:1", "")).Version()
	c, _ := m.ManageDependency(artifact.MustParseDependency("g:c:1", "")).Version()
	assert.Equal(t, "root", b)
	assert.Equal(t, "deep", c)
}

func TestTransitive_NotAppliedToDirect(t *testing.T) {
	m := derive(NewTransitive(), 1, artifact.MustParseDependency("g:b:2", ""))
	assert.Nil(t, m.ManageDependency(artifact.MustParseDependency("g:b:1", "")))
}

func TestDefault_AppliesToDirect(t *testing.T) {
	m := derive(NewDefault(), 1, artifact.MustParseDependency("g:b:2", "").WithOptional(true))
	mgmt := m.ManageDependency(artifact.MustParseDependency("g:b:1", ""))
	require.NotNil(t, mgmt)
	v, _ := mgmt.Version()
	assert.Equal(t, "2", v)
	o, ok := mgmt.Optional()
	assert.True(t, ok)
	assert.True(t, o)
}

func TestFingerprint(t *testing.T) {
	managed := artifact.MustParseDependency("g:b:2", "")
	a := derive(NewClassic(), 2, managed).(*Manager)
	b := derive(NewClassic(), 2, managed).(*Manager)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	other := derive(NewClassic(), 2, artifact.MustParseDependency("g:b:3", "")).(*Manager)
	assert.NotEqual(t, a.Fingerprint(), other.Fingerprint())

	direct := derive(NewClassic(), 1, managed).(*Manager)
	assert.NotEqual(t, a.Fingerprint(), direct.Fingerprint(), "depth changes behaviour")

	assert.NotEqual(t, NewClassic().Fingerprint(), NewDefault().Fingerprint())
}

func TestNoopAndByName(t *testing.T) {
	var n Noop
	assert.Nil(t, n.ManageDependency(artifact.MustParseDependency("g:a:1", "")))
	assert.Equal(t, n, n.DeriveChildManager(ctxWith()))

	for _, name := range []string{"", "classic", "transitive", "default", "none"} {
		m, ok := ByName(name)
		assert.True(t, ok, name)
		assert.NotNil(t, m, name)
	}
	_, ok := ByName("bogus")
	assert.False(t, ok)
}
