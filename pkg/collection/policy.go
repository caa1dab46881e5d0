package collection

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/artifact"
)

// CyclePolicy decides which identity the ancestor stack compares
type CyclePolicy int

const (
	// CycleByCoordinate treats a:1 and a:2 as different artifacts
	CycleByCoordinate CyclePolicy = iota
	// CycleByVersionless ignores versions, so a:2 -> b -> a:1 is a cycle
	CycleByVersionless
)

// Key returns the identity of a under the policy
func (p CyclePolicy) Key(a artifact.Artifact) string {
	if p == CycleByVersionless {
		return a.VersionlessKey()
	}
	return a.Key()
}

func (p CyclePolicy) String() string {
	switch p {
	case CycleByVersionless:
		return "versionless"
	default:
		return "coordinate"
	}
}

// ParseCyclePolicy parses "coordinate" or "versionless". The empty string
// selects the default.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "coordinate":
		return CycleByCoordinate, nil
	case "versionless":
		return CycleByVersionless, nil
	default:
		return CycleByCoordinate, fmt.Errorf("unknown cycle policy %q", s)
	}
}
