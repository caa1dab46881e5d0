package repository

import (
	"github.com/cespare/xxhash/v2"
)

// Remote describes a remote artifact repository
type Remote struct {
	ID     string `json:"id" yaml:"id"`
	URL    string `json:"url" yaml:"url"`
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

func (r Remote) String() string {
	return r.ID + " (" + r.URL + ")"
}

// Mirror redirects requests for the repositories it mirrors
type Mirror struct {
	Remote
	// MirrorOf lists repository ids, or "*" for all
	MirrorOf []string `json:"mirrorOf" yaml:"mirrorOf"`
}

func (m Mirror) matches(r Remote) bool {
	for _, id := range m.MirrorOf {
		if id == "*" || id == r.ID {
			return true
		}
	}
	return false
}

// Manager decides which repositories downstream reads use
type Manager interface {
	// Aggregate merges recessive into dominant. When recessiveIsRaw is set the
	// recessive repositories come straight from a descriptor and still need
	// mirror selection.
	Aggregate(dominant, recessive []Remote, recessiveIsRaw bool) []Remote
}

// DefaultManager de-duplicates repositories by id, keeping dominant entries
// first, and applies mirrors to raw repositories.
type DefaultManager struct {
	Mirrors []Mirror
}

// NewDefaultManager creates a manager with optional mirrors
func NewDefaultManager(mirrors ...Mirror) *DefaultManager {
	return &DefaultManager{Mirrors: mirrors}
}

// Aggregate implements Manager
func (m *DefaultManager) Aggregate(dominant, recessive []Remote, recessiveIsRaw bool) []Remote {
	if len(recessive) == 0 {
		return dominant
	}

	out := make([]Remote, 0, len(dominant)+len(recessive))
	seen := make(map[string]struct{}, len(dominant)+len(recessive))
	for _, r := range dominant {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for _, r := range recessive {
		if recessiveIsRaw {
			r = m.mirrorFor(r)
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (m *DefaultManager) mirrorFor(r Remote) Remote {
	for _, mirror := range m.Mirrors {
		if mirror.matches(r) {
			return mirror.Remote
		}
	}
	return r
}

// Fingerprint hashes an ordered repository list
func Fingerprint(repos []Remote) uint64 {
	d := xxhash.New()
	for _, r := range repos {
		_, _ = d.WriteString(r.ID)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(r.URL)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(r.Layout)
		_, _ = d.WriteString("\x01")
	}
	return d.Sum64()
}
