// Package version parses and orders artifact versions and version constraints.
//
// A constraint is either a plain version, which pins exactly that version,
// or a union of intervals:
//
//	[1.0]          exactly 1.0
//	[1.0,2.0)      1.0 <= v < 2.0
//	(,1.0]         v <= 1.0
//	[1,2),[3,4)    union
package version
