package modfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func buildMod(t *testing.T) ([]byte, *ModFile) {
	t.Helper()

	b := NewBuilder("ModElinBody")
	b.SetName("Élin Body")
	b.SetAuthor("borky")
	b.SetEngineVersion(610, 14)
	b.Add("S1Armor.Elin.Body_C", []byte("payload-one"))
	b.Add("S1Armor.Elin.Hair", bytes.Repeat([]byte{0xAB}, 300))

	var buf bytes.Buffer
	m, err := b.Build(&buf)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return buf.Bytes(), m
}

// rawPackage returns bytes shaped like a plain game package header.
func rawPackage(folder string, payload int) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, Magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(610))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(14))
	_ = binary.Write(&buf, binary.LittleEndian, int32(0))
	_ = writeString(&buf, folder)
	buf.Write(make([]byte, payload))
	return buf.Bytes()
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"ASCII", "S1Armor.Elin.Body"},
		{"Wide", "Élin 剣"},
		{"Surrogates", "mod 🗡"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeString(&buf, tt.in); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := readString(&buf)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got != tt.in {
				t.Errorf("got %q, want %q", got, tt.in)
			}
			if buf.Len() != 0 {
				t.Errorf("%d bytes left unread", buf.Len())
			}
		})
	}

	t.Run("WideLengthIsNegative", func(t *testing.T) {
		var buf bytes.Buffer
		_ = writeString(&buf, "é")
		var n int32
		_ = binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &n)
		if n != -1 {
			t.Errorf("length prefix: got %d, want -1", n)
		}
	})

	t.Run("TrailingNulStripped", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, int32(5))
		buf.WriteString("None\x00")
		got, err := readString(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != "None" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("TooLong", func(t *testing.T) {
		for _, n := range []int32{MaxStringLen + 1, -MaxStringLen - 1, math.MinInt32} {
			var buf bytes.Buffer
			_ = binary.Write(&buf, binary.LittleEndian, n)
			if _, err := readString(&buf); !errors.Is(err, ErrStringTooLong) {
				t.Errorf("length %d: got %v, want ErrStringTooLong", n, err)
			}
		}

		long := string(bytes.Repeat([]byte("a"), MaxStringLen+1))
		if err := writeString(&bytes.Buffer{}, long); !errors.Is(err, ErrStringTooLong) {
			t.Errorf("write: got %v, want ErrStringTooLong", err)
		}
	})

	t.Run("Short", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, int32(10))
		buf.WriteString("abc")
		if _, err := readString(&buf); err == nil {
			t.Error("expected error for short string")
		}
	})
}

func TestRead(t *testing.T) {
	t.Run("BuildReadRoundTrip", func(t *testing.T) {
		data, built := buildMod(t)

		m, err := Read(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !reflect.DeepEqual(m, built) {
			t.Errorf("mismatch:\ngot  %+v\nwant %+v", m, built)
		}
		if m.IsRaw() {
			t.Error("packed mod reported raw")
		}
	})

	t.Run("Layout", func(t *testing.T) {
		data, m := buildMod(t)
		end := len(data)

		if got := binary.LittleEndian.Uint32(data[end-4:]); got != Magic {
			t.Errorf("magic: got 0x%08X", got)
		}
		if got := int32(binary.LittleEndian.Uint32(data[end-12:])); got != 2 {
			t.Errorf("count: got %d, want 2", got)
		}

		first, second := m.Packages[0], m.Packages[1]
		if first.Offset != 0 || second.Offset != first.Size {
			t.Errorf("offsets: %d %d (first size %d)", first.Offset, second.Offset, first.Size)
		}
		metaSize := int(int32(binary.LittleEndian.Uint32(data[end-8:])))
		if int(second.Offset+second.Size) != end-metaSize {
			t.Errorf("last package ends at %d, metadata starts at %d", second.Offset+second.Size, end-metaSize)
		}
		if first.FileVersion != 610 || first.LicenseeVersion != 14 {
			t.Errorf("versions: %d %d", first.FileVersion, first.LicenseeVersion)
		}
	})

	t.Run("RawPackage", func(t *testing.T) {
		data := rawPackage("None", 64)
		m, err := Read(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.HasFooter {
			t.Error("raw package reported a footer")
		}
		if len(m.Packages) != 1 || m.Packages[0].Size != uint64(len(data)) {
			t.Fatalf("packages: %+v", m.Packages)
		}
		if !m.IsRaw() {
			t.Error("raw package not reported raw")
		}
	})

	t.Run("RawPackageWithObjectPath", func(t *testing.T) {
		m, err := Read(bytes.NewReader(rawPackage("MOD:S1Weapon.Sword", 8)))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Packages[0].ObjectPath != "S1Weapon.Sword" || m.IsRaw() {
			t.Errorf("got %+v", m.Packages[0])
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		if _, err := Read(bytes.NewReader([]byte{1, 2})); !errors.Is(err, ErrNotModPackage) {
			t.Errorf("got %v, want ErrNotModPackage", err)
		}
	})

	t.Run("CorruptFooter", func(t *testing.T) {
		data, _ := buildMod(t)
		end := len(data)
		binary.LittleEndian.PutUint32(data[end-8:], uint32(end+100))
		if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrNotModPackage) {
			t.Errorf("got %v, want ErrNotModPackage", err)
		}
	})

	t.Run("CorruptCount", func(t *testing.T) {
		data, _ := buildMod(t)
		end := len(data)
		binary.LittleEndian.PutUint32(data[end-12:], 1<<20)
		if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrNotModPackage) {
			t.Errorf("got %v, want ErrNotModPackage", err)
		}
	})

	t.Run("ReadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ModElinBody.gpk")
		b := NewBuilder("ModElinBody")
		b.Add("S1Armor.Elin.Body_C", []byte("x"))
		built, err := b.WriteFile(path)
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		m, err := ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !reflect.DeepEqual(m, built) {
			t.Errorf("got %+v, want %+v", m, built)
		}
	})
}

func TestIsRaw(t *testing.T) {
	tests := []struct {
		name string
		pkgs []Package
		want bool
	}{
		{"None", nil, true},
		{"SingleZeroSize", []Package{{ObjectPath: "A", Size: 0}}, true},
		{"NoObjectPaths", []Package{{Size: 5}, {Size: 7}}, true},
		{"Declared", []Package{{ObjectPath: "A", Size: 5}}, false},
		{"PartlyDeclared", []Package{{Size: 5}, {ObjectPath: "B", Size: 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &ModFile{Packages: tt.pkgs}
			if got := m.IsRaw(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainerName(t *testing.T) {
	tests := map[string]string{
		"S1_Elin_PC.gpk":       "S1_Elin_PC",
		"mods/ModElinBody.gpk": "ModElinBody",
		"NoExtension":          "NoExtension",
		"Upper.GPK":            "Upper.GPK",
		"double.gpk.gpk":       "double.gpk",
	}
	for in, want := range tests {
		if got := ContainerName(in); got != want {
			t.Errorf("ContainerName(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()

	b := NewBuilder("Packed")
	b.Add("S1Weapon.Sword", []byte("blade"))
	if _, err := b.WriteFile(filepath.Join(dir, "Packed.gpk")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "S1Data.gpk"), rawPackage("None", 32), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := b.WriteFile(filepath.Join(sub, "Nested.gpk")); err != nil {
		t.Fatal(err)
	}

	mods, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("found %d mods, want 1: %+v", len(mods), mods)
	}
	if mods[0].File != "Packed.gpk" || mods[0].Mod.Container != "Packed" {
		t.Errorf("got %+v", mods[0])
	}

	if _, err := ScanDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}
