package pathmatch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Package.Group.Weapon_C", "Weapon"},
		{"other/Package.Group.weapon", "weapon"},
		{"dir/sub/Name", "Name"},
		{"Name", "Name"},
		{"Pkg.Mesh_lod0", "Mesh"},
		{"Pkg.Anim_dup", "Anim"},
		// each suffix is stripped once, in list order
		{"Pkg.Thing_C_C", "Thing_C"},
		{"Pkg.Thing_dup_C", "Thing"},
		{"Pkg.Thing_C_dup", "Thing_C"},
		{"Pkg.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCaseInsensitiveEquality(t *testing.T) {
	a := Normalize("Package.Group.Weapon_C")
	b := Normalize("other/Package.Group.weapon")
	if !EqualFold(a, b) || !EqualFold(a, "weapon") {
		t.Errorf("%q and %q should both reduce to weapon", a, b)
	}
}

func TestEqualFold(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"abc", "ABC", true},
		{"abc", "abd", false},
		{"abc", "abcd", false},
		{"", "", true},
		{"É", "é", false},
		{"É", "É", true},
	}

	for _, tt := range tests {
		if got := EqualFold(tt.a, tt.b); got != tt.want {
			t.Errorf("EqualFold(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIncompletePathsEqual(t *testing.T) {
	if !IncompletePathsEqual("S1Weapon.Sword.Sword_01_C", "sword_01") {
		t.Error("expected match")
	}
	if IncompletePathsEqual("S1Weapon.Sword.Sword_01", "Sword_02") {
		t.Error("unexpected match")
	}
}
