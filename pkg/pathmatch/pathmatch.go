// Package pathmatch compares object paths that may differ cosmetically:
// directory prefixes, package/group qualifiers, letter case and engine
// variant suffixes.
package pathmatch

import "strings"

// Suffixes are stripped from a normalized name, each at most once and in
// this order. _C is the engine class suffix; the rest are mesh and animation
// variants.
var Suffixes = []string{"_C", "_dup", "_lod0", "_lod1", "_lod2", "_lod3"}

// Normalize reduces an object path to its bare object name.
//
// "other/Package.Group.Weapon_C" becomes "Weapon".
func Normalize(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}

	for _, suffix := range Suffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// EqualFold reports whether a and b are equal under ASCII case folding.
// Non-ASCII bytes must match exactly.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

// IncompletePathsEqual reports whether a full object path and a possibly
// incomplete query name the same object.
func IncompletePathsEqual(full, query string) bool {
	return EqualFold(Normalize(full), Normalize(query))
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
