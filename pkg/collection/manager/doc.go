// Package manager provides the built-in dependency managers.
//
// Management is keyed by an artifact's versionless key. Depth counts
// derivations: the session's manager is at depth 0, the manager deriving from
// the root context manages the root's direct dependencies at depth 1, and
// everything below is transitive.
package manager
