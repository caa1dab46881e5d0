package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
)

func depth(s collection.DependencySelector, n int) collection.DependencySelector {
	for i := 0; i < n; i++ {
		s = s.DeriveChildSelector(&collection.Context{})
	}
	return s
}

func TestScope(t *testing.T) {
	testDep := artifact.MustParseDependency("g:t:1", artifact.ScopeTest)
	compileDep := artifact.MustParseDependency("g:c:1", artifact.ScopeCompile)

	tests := []struct {
		name  string
		depth int
		dep   artifact.Dependency
		want  bool
	}{
		{"direct test", 1, testDep, true},
		{"transitive test", 2, testDep, false},
		{"deep test", 5, testDep, false},
		{"transitive compile", 2, compileDep, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := depth(NewScope(artifact.ScopeTest), tt.depth)
			assert.Equal(t, tt.want, s.SelectDependency(tt.dep))
		})
	}
}

func TestScope_Fingerprint(t *testing.T) {
	a := depth(NewScope("test", "provided"), 2).(*Scope)
	b := depth(NewScope("provided", "test"), 2).(*Scope)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Same(t, a, a.DeriveChildSelector(&collection.Context{}))

	c := depth(NewScope("test"), 2).(*Scope)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestOptional(t *testing.T) {
	opt := artifact.MustParseDependency("g:o:1", "").WithOptional(true)

	assert.True(t, depth(NewOptional(), 1).SelectDependency(opt))
	assert.False(t, depth(NewOptional(), 2).SelectDependency(opt))
	assert.True(t, depth(NewOptional(), 2).SelectDependency(opt.WithOptional(false)))
	assert.Equal(t, depth(NewOptional(), 2), depth(NewOptional(), 7))
}

func TestExclusion_Accumulates(t *testing.T) {
	parent := artifact.MustParseDependency("g:p:1", "").
		WithExclusions([]artifact.Exclusion{artifact.NewExclusion("g", "x", "", "")})
	grandparent := artifact.MustParseDependency("g:gp:1", "").
		WithExclusions([]artifact.Exclusion{artifact.NewExclusion("other", "*", "", "")})

	s := NewExclusion().DeriveChildSelector(&collection.Context{Dependency: &grandparent})
	s = s.DeriveChildSelector(&collection.Context{Dependency: &parent})

	assert.False(t, s.SelectDependency(artifact.MustParseDependency("g:x:1", "")))
	assert.False(t, s.SelectDependency(artifact.MustParseDependency("other:anything:1", "")))
	assert.True(t, s.SelectDependency(artifact.MustParseDependency("g:y:1", "")))

	// nothing new to add
	same := s.DeriveChildSelector(&collection.Context{Dependency: &parent})
	assert.Same(t, s, same)
}

func TestAnd(t *testing.T) {
	s := Default()
	transitive := depth(s, 2)

	assert.False(t, transitive.SelectDependency(artifact.MustParseDependency("g:t:1", artifact.ScopeTest)))
	assert.False(t, transitive.SelectDependency(artifact.MustParseDependency("g:o:1", "").WithOptional(true)))
	assert.True(t, transitive.SelectDependency(artifact.MustParseDependency("g:c:1", artifact.ScopeCompile)))

	direct := depth(s, 1)
	assert.True(t, direct.SelectDependency(artifact.MustParseDependency("g:t:1", artifact.ScopeTest)))

	assert.True(t, NewAnd().SelectDependency(artifact.MustParseDependency("g:c:1", "")))
	assert.False(t, NewAnd(Static(true), Static(false)).SelectDependency(artifact.MustParseDependency("g:c:1", "")))
}

func TestAnd_Identity(t *testing.T) {
	a := depth(Default(), 2)
	b := depth(Default(), 2)
	idA, ok := collection.Identity(a)
	require.True(t, ok)
	idB, ok := collection.Identity(b)
	require.True(t, ok)
	assert.Equal(t, idA, idB)

	assert.Same(t, a, a.DeriveChildSelector(&collection.Context{}), "settled selectors are reused")

	uncacheable := NewAnd(funcSelector(func(artifact.Dependency) bool { return true }))
	_, ok = collection.Identity(uncacheable)
	assert.False(t, ok)
}

type funcSelector func(artifact.Dependency) bool

func (f funcSelector) SelectDependency(d artifact.Dependency) bool { return f(d) }

func (f funcSelector) DeriveChildSelector(*collection.Context) collection.DependencySelector { return f }

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"default", false},
		{"all", false},
		{"optional", false},
		{"scope:test, provided", false},
		{"scope:test+optional+exclusion", false},
		{"bogus", true},
		{"optional+bogus", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}

	s, err := ByName("scope:runtime")
	require.NoError(t, err)
	assert.False(t, depth(s, 2).SelectDependency(artifact.MustParseDependency("g:r:1", artifact.ScopeRuntime)))
}
