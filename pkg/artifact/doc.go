// Package artifact models artifact coordinates and dependencies.
//
// # Overview
//
// An Artifact is an immutable (group, artifact, classifier, extension, version)
// coordinate plus a small property map. A Dependency attaches a scope, an
// optional flag and a set of exclusions to an artifact. Both are value types:
// every With* method returns a modified copy and never mutates the receiver.
//
// # Keys
//
// Two canonical keys are used throughout collection:
//
//	a.Key()            // "g:a:ext[:cls]:version", full coordinate
//	a.VersionlessKey() // "g:a:ext[:cls]", used for dependency management
//
// # Coordinates
//
//	artifact.MustParse("org.example:core:1.0")            // extension defaults to jar
//	artifact.MustParse("org.example:core:pom:1.0")
//	artifact.MustParse("org.example:core:jar:tests:1.0")  // classifier "tests"
package artifact
