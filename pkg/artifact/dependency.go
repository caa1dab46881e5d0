package artifact

import (
	"fmt"
	"strings"
)

// Common scopes
const (
	ScopeCompile  = "compile"
	ScopeProvided = "provided"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
	ScopeSystem   = "system"
)

// Wildcard matches any value in an exclusion field
const Wildcard = "*"

// Exclusion suppresses matching transitive artifacts
type Exclusion struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Classifier string `json:"classifier,omitempty" yaml:"classifier,omitempty"`
	Extension  string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// NewExclusion creates an exclusion; empty fields act as wildcards
func NewExclusion(group, id, classifier, extension string) Exclusion {
	return Exclusion{GroupID: group, ArtifactID: id, Classifier: classifier, Extension: extension}
}

// Matches reports whether the exclusion applies to the artifact
func (e Exclusion) Matches(a Artifact) bool {
	return matchField(e.GroupID, a.GroupID()) &&
		matchField(e.ArtifactID, a.ArtifactID()) &&
		matchField(e.Classifier, a.Classifier()) &&
		matchField(e.Extension, a.Extension())
}

func (e Exclusion) String() string {
	return strings.Join([]string{e.GroupID, e.ArtifactID, e.Classifier, e.Extension}, ":")
}

func matchField(pattern, value string) bool {
	return pattern == "" || pattern == Wildcard || pattern == value
}

// Dependency is an artifact plus the attributes of the edge pointing at it.
// Values are immutable; the With* methods return modified copies.
type Dependency struct {
	Artifact   Artifact
	Scope      string
	Optional   bool
	Exclusions []Exclusion
}

// NewDependency creates a dependency
func NewDependency(a Artifact, scope string) Dependency {
	return Dependency{Artifact: a, Scope: scope}
}

// ParseDependency parses coordinates and attaches a scope
func ParseDependency(coords, scope string) (Dependency, error) {
	a, err := Parse(coords)
	if err != nil {
		return Dependency{}, err
	}
	return NewDependency(a, scope), nil
}

// MustParseDependency is like ParseDependency but panics on error
func MustParseDependency(coords, scope string) Dependency {
	d, err := ParseDependency(coords, scope)
	if err != nil {
		panic(err)
	}
	return d
}

// WithArtifact returns a copy pointing at a
func (d Dependency) WithArtifact(a Artifact) Dependency {
	d.Artifact = a
	return d
}

// WithScope returns a copy with the scope replaced
func (d Dependency) WithScope(scope string) Dependency {
	d.Scope = scope
	return d
}

// WithOptional returns a copy with the optional flag replaced
func (d Dependency) WithOptional(optional bool) Dependency {
	d.Optional = optional
	return d
}

// WithExclusions returns a copy whose exclusions are replaced
func (d Dependency) WithExclusions(exclusions []Exclusion) Dependency {
	d.Exclusions = append([]Exclusion(nil), exclusions...)
	return d
}

// Equal compares artifact, scope, optional flag and exclusions (order-insensitive)
func (d Dependency) Equal(other Dependency) bool {
	if !d.Artifact.Equal(other.Artifact) || d.Scope != other.Scope || d.Optional != other.Optional {
		return false
	}
	if len(d.Exclusions) != len(other.Exclusions) {
		return false
	}
	seen := make(map[Exclusion]int, len(d.Exclusions))
	for _, e := range d.Exclusions {
		seen[e]++
	}
	for _, e := range other.Exclusions {
		if seen[e] == 0 {
			return false
		}
		seen[e]--
	}
	return true
}

func (d Dependency) String() string {
	s := fmt.Sprintf("%s (%s", d.Artifact, d.Scope)
	if d.Optional {
		s += "?"
	}
	return s + ")"
}

// MergeDependencies appends recessive entries whose versionless key is not
// already present in dominant.
func MergeDependencies(dominant, recessive []Dependency) []Dependency {
	if len(recessive) == 0 {
		return dominant
	}
	if len(dominant) == 0 {
		return recessive
	}

	seen := make(map[string]struct{}, len(dominant))
	out := make([]Dependency, 0, len(dominant)+len(recessive))
	for _, d := range dominant {
		seen[d.Artifact.VersionlessKey()] = struct{}{}
		out = append(out, d)
	}
	for _, d := range recessive {
		if _, ok := seen[d.Artifact.VersionlessKey()]; ok {
			continue
		}
		seen[d.Artifact.VersionlessKey()] = struct{}{}
		out = append(out, d)
	}
	return out
}
