package selector

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/depcollect/pkg/collection"
)

// ByName builds a selector from a short description:
//
//	default           test/provided scopes, optionals and exclusions
//	all               select everything
//	scope:a,b         drop transitive dependencies in scopes a and b
//	optional          drop transitive optional dependencies
//	exclusion         honour ancestor exclusions
//
// Several descriptions separated by "+" are combined with And.
func ByName(name string) (collection.DependencySelector, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "default" {
		return Default(), nil
	}

	parts := strings.Split(name, "+")
	if len(parts) > 1 {
		members := make([]collection.DependencySelector, 0, len(parts))
		for _, p := range parts {
			s, err := ByName(p)
			if err != nil {
				return nil, err
			}
			members = append(members, s)
		}
		return NewAnd(members...), nil
	}

	switch {
	case name == "all":
		return Static(true), nil
	case name == "optional":
		return NewOptional(), nil
	case name == "exclusion":
		return NewExclusion(), nil
	case strings.HasPrefix(name, "scope:"):
		var scopes []string
		for _, s := range strings.Split(strings.TrimPrefix(name, "scope:"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				scopes = append(scopes, s)
			}
		}
		return NewScope(scopes...), nil
	default:
		return nil, fmt.Errorf("unknown selector %q", name)
	}
}
