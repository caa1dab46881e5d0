package artifact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Well-known artifact properties
const (
	// PropertyLocalPath points at a file outside of any repository. Artifacts
	// carrying it have no descriptor and are never traversed.
	PropertyLocalPath = "localPath"

	// PropertyIncludesDependencies marks a "fat" artifact that already bundles
	// its dependencies.
	PropertyIncludesDependencies = "includesDependencies"
)

// DefaultExtension is used when coordinates omit the extension
const DefaultExtension = "jar"

// ErrInvalidCoordinates is returned when coordinates cannot be parsed
var ErrInvalidCoordinates = errors.New("invalid artifact coordinates")

// Artifact is an immutable artifact coordinate plus its properties.
type Artifact struct {
	group      string
	id         string
	classifier string
	extension  string
	version    string
	properties map[string]string
}

// New creates an artifact without properties
func New(group, id, classifier, extension, version string) Artifact {
	return Artifact{
		group:      group,
		id:         id,
		classifier: classifier,
		extension:  extension,
		version:    version,
	}
}

// Parse parses coordinates of the form
// <group>:<artifact>[:<extension>[:<classifier>]]:<version>.
func Parse(coords string) (Artifact, error) {
	parts := strings.Split(coords, ":")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Artifact{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, coords)
		}
	}

	switch len(parts) {
	case 3:
		return New(parts[0], parts[1], "", DefaultExtension, parts[2]), nil
	case 4:
		return New(parts[0], parts[1], "", parts[2], parts[3]), nil
	case 5:
		return New(parts[0], parts[1], parts[3], parts[2], parts[4]), nil
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, coords)
	}
}

// MustParse is like Parse but panics on malformed coordinates.
func MustParse(coords string) Artifact {
	a, err := Parse(coords)
	if err != nil {
		panic(err)
	}
	return a
}

// GroupID returns the group
func (a Artifact) GroupID() string { return a.group }

// ArtifactID returns the artifact id
func (a Artifact) ArtifactID() string { return a.id }

// Classifier returns the classifier, possibly empty
func (a Artifact) Classifier() string { return a.classifier }

// Extension returns the extension
func (a Artifact) Extension() string { return a.extension }

// Version returns the version or version constraint
func (a Artifact) Version() string { return a.version }

// IsZero reports whether the artifact has no coordinates at all
func (a Artifact) IsZero() bool {
	return a.group == "" && a.id == "" && a.version == ""
}

// IsSnapshot reports whether the version is a snapshot
func (a Artifact) IsSnapshot() bool {
	return strings.HasSuffix(a.version, "-SNAPSHOT")
}

// Property returns the property value or def when absent
func (a Artifact) Property(key, def string) string {
	if v, ok := a.properties[key]; ok {
		return v
	}
	return def
}

// Properties returns a copy of the artifact properties
func (a Artifact) Properties() map[string]string {
	return copyProperties(a.properties)
}

// WithVersion returns a copy with the version replaced
func (a Artifact) WithVersion(version string) Artifact {
	a.version = version
	return a
}

// WithProperties returns a copy whose properties are replaced by props
func (a Artifact) WithProperties(props map[string]string) Artifact {
	a.properties = copyProperties(props)
	return a
}

// WithProperty returns a copy with a single property set
func (a Artifact) WithProperty(key, value string) Artifact {
	props := copyProperties(a.properties)
	if props == nil {
		props = make(map[string]string, 1)
	}
	props[key] = value
	a.properties = props
	return a
}

// Key is the full coordinate g:a:ext[:cls]:version
func (a Artifact) Key() string {
	return a.VersionlessKey() + ":" + a.version
}

// VersionlessKey is the coordinate without the version, g:a:ext[:cls]
func (a Artifact) VersionlessKey() string {
	var b strings.Builder
	b.Grow(len(a.group) + len(a.id) + len(a.extension) + len(a.classifier) + 3)
	b.WriteString(a.group)
	b.WriteByte(':')
	b.WriteString(a.id)
	b.WriteByte(':')
	b.WriteString(a.extension)
	if a.classifier != "" {
		b.WriteByte(':')
		b.WriteString(a.classifier)
	}
	return b.String()
}

// SameVersionless reports whether both artifacts share group, id, classifier
// and extension.
func (a Artifact) SameVersionless(other Artifact) bool {
	return a.group == other.group &&
		a.id == other.id &&
		a.classifier == other.classifier &&
		a.extension == other.extension
}

// Equal compares all coordinates and properties
func (a Artifact) Equal(other Artifact) bool {
	if !a.SameVersionless(other) || a.version != other.version {
		return false
	}
	if len(a.properties) != len(other.properties) {
		return false
	}
	for k, v := range a.properties {
		if ov, ok := other.properties[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders g:a:ext[:cls]:version
func (a Artifact) String() string {
	return a.Key()
}

// SortedPropertyKeys returns the property names in lexical order
func (a Artifact) SortedPropertyKeys() []string {
	keys := make([]string, 0, len(a.properties))
	for k := range a.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyProperties(props map[string]string) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
