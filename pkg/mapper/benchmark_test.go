package mapper

import (
	"fmt"
	"testing"

	"github.com/goopsie/teraModTools/pkg/cipher"
)

// benchEntries builds a map shaped like a live client mapper: a few
// thousand containers of a dozen objects each.
func benchEntries() []Entry {
	entries := make([]Entry, 0, 3000*12)
	for c := 0; c < 3000; c++ {
		container := fmt.Sprintf("S1Data_%04d", c)
		var offset uint64
		for o := 0; o < 12; o++ {
			size := uint64(1024 + o*64)
			entries = append(entries, Entry{
				Container:  container,
				ObjectPath: fmt.Sprintf("S1Pkg%d.Group%d.Object_%d_%d_C", c%40, o%3, c, o),
				ID:         fmt.Sprintf("c%d_%d", c, o),
				Offset:     offset,
				Size:       size,
			})
			offset += size
		}
	}
	return entries
}

func BenchmarkMapper(b *testing.B) {
	entries := benchEntries()
	m := FromEntries(entries)
	text := Serialize(entries)
	encrypted := cipher.Encrypt(text)

	b.Run("Serialize", func(b *testing.B) {
		b.SetBytes(int64(len(text)))
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = Serialize(entries)
		}
	})

	b.Run("Parse", func(b *testing.B) {
		s := string(text)
		b.SetBytes(int64(len(text)))
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if r := Parse(s); len(r.Entries) != len(entries) {
				b.Fatalf("parsed %d entries", len(r.Entries))
			}
		}
	})

	b.Run("DecryptParse", func(b *testing.B) {
		b.SetBytes(int64(len(encrypted)))
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = Parse(string(cipher.Decrypt(encrypted)))
		}
	})

	b.Run("FindByIncompletePath", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if r := m.FindByIncompletePath("Object_1500_6"); r.Kind != MatchUnique {
				b.Fatalf("match %s", r.Kind)
			}
		}
	})

	b.Run("ReplaceEntries", func(b *testing.B) {
		dst := New()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			dst.ReplaceEntries(m)
		}
	})
}
