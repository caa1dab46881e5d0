// Package selector provides the built-in dependency selectors.
//
// Scope and Optional count derivations the same way the managers do: the
// selector derived from the root context sees the root's direct dependencies
// and never filters them; filtering starts with their dependencies.
package selector
