package version

import (
	"sort"
	"strings"
)

// Version is a parsed, comparable version string. Ordering follows the usual
// Maven rules: numeric segments compare numerically, qualifiers compare by
// their well-known rank (alpha < beta < milestone < rc < snapshot < release < sp)
// and unknown qualifiers sort after the known ones, lexically.
type Version struct {
	raw   string
	items []item
}

type item struct {
	numeric bool
	num     string // digits without leading zeros
	str     string // lower-cased qualifier
}

var qualifierRank = map[string]int{
	"alpha":     0,
	"a":         0,
	"beta":      1,
	"b":         1,
	"milestone": 2,
	"m":         2,
	"rc":        3,
	"cr":        3,
	"snapshot":  4,
	"":          5,
	"ga":        5,
	"final":     5,
	"release":   5,
	"sp":        6,
}

const unknownRank = 7

// Parse parses a version string. Any string is a valid version.
func Parse(s string) Version {
	v := Version{raw: s}
	var cur strings.Builder
	curDigit := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		v.items = append(v.items, newItem(cur.String(), curDigit))
		cur.Reset()
	}

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '.' || r == '-' || r == '_':
			flush()
		case r >= '0' && r <= '9':
			if cur.Len() > 0 && !curDigit {
				flush()
			}
			curDigit = true
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 && curDigit {
				flush()
			}
			curDigit = false
			cur.WriteRune(r)
		}
	}
	flush()
	v.items = trimNull(v.items)
	return v
}

func newItem(s string, digit bool) item {
	if digit {
		n := strings.TrimLeft(s, "0")
		return item{numeric: true, num: n}
	}
	return item{str: strings.ToLower(s)}
}

// trimNull drops trailing zero and release-equivalent items so that
// "1", "1.0" and "1.0.0-final" compare equal.
func trimNull(items []item) []item {
	for len(items) > 0 && items[len(items)-1].isNull() {
		items = items[:len(items)-1]
	}
	return items
}

func (i item) isNull() bool {
	if i.numeric {
		return i.num == ""
	}
	rank, ok := qualifierRank[i.str]
	return ok && rank == qualifierRank[""]
}

// String returns the original version string
func (v Version) String() string { return v.raw }

// IsSnapshot reports whether v is a snapshot version
func (v Version) IsSnapshot() bool {
	return strings.HasSuffix(strings.ToUpper(v.raw), "-SNAPSHOT")
}

// Compare returns -1, 0 or +1
func (v Version) Compare(o Version) int {
	n := len(v.items)
	if len(o.items) > n {
		n = len(o.items)
	}
	for i := 0; i < n; i++ {
		var c int
		switch {
		case i >= len(v.items):
			c = -o.items[i].compareNull()
		case i >= len(o.items):
			c = v.items[i].compareNull()
		default:
			c = v.items[i].compare(o.items[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether v sorts before o
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o are equivalent versions
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func (i item) compareNull() int {
	if i.numeric {
		if i.num == "" {
			return 0
		}
		return 1
	}
	return cmpInt(i.rank(), qualifierRank[""])
}

func (i item) compare(o item) int {
	switch {
	case i.numeric && o.numeric:
		if len(i.num) != len(o.num) {
			return cmpInt(len(i.num), len(o.num))
		}
		return strings.Compare(i.num, o.num)
	case i.numeric:
		// 1.1 > 1-sp
		return 1
	case o.numeric:
		return -1
	}

	ri, ro := i.rank(), o.rank()
	if ri != ro {
		return cmpInt(ri, ro)
	}
	if ri == unknownRank {
		return strings.Compare(i.str, o.str)
	}
	return 0
}

func (i item) rank() int {
	if r, ok := qualifierRank[i.str]; ok {
		return r
	}
	return unknownRank
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Sort sorts versions ascending in place, keeping the input order of equal versions
func Sort(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}
