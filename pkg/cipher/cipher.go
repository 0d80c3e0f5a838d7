// Package cipher implements the reversible byte transform applied to the
// composite package mapper file.
//
// Encryption runs three stages in order: repeating-key XOR, mirror swap, and a
// fixed 16-byte block permutation. Decryption runs the inverse of each stage
// in the opposite order. The swap and the permutation do not commute, so the
// stage order matters.
package cipher

import (
	"strings"
	"unicode/utf8"
)

// BlockSize is the size of a permutation block. A trailing partial block is
// left untouched.
const BlockSize = 16

// permutation maps output position i to input position permutation[i] within
// each block.
var permutation = [BlockSize]int{12, 6, 9, 4, 3, 14, 1, 10, 13, 2, 7, 15, 0, 8, 5, 11}

// xorKey is cycled over the whole buffer.
var xorKey = []byte("GeneratePackageMapper")

// Encrypt returns the encrypted form of data. The input is not modified.
func Encrypt(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	xorStage(out)
	swapStage(out)
	permuteBlocks(out)

	return out
}

// Decrypt returns the decrypted form of data. The input is not modified.
// Decrypt(Encrypt(x)) == x for every x.
func Decrypt(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	unpermuteBlocks(out)
	unswapStage(out)
	xorStage(out)

	return out
}

// DecodeText interprets decrypted bytes as text. Invalid UTF-8 sequences are
// replaced with U+FFFD rather than rejected.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

func xorStage(buf []byte) {
	for i := range buf {
		buf[i] ^= xorKey[i%len(xorKey)]
	}
}

// swapPairs returns the index pairs exchanged by the mirror swap, in the order
// encryption applies them.
func swapPairs(size int) [][2]int {
	if size <= 2 {
		return nil
	}

	count := (size/2 + 1) / 2
	pairs := make([][2]int, 0, count)

	a, b := 1, size-1
	for range count {
		pairs = append(pairs, [2]int{a, b})
		a += 2
		b -= 2
		if b < 0 {
			b = 0
		}
	}
	return pairs
}

func swapStage(buf []byte) {
	for _, p := range swapPairs(len(buf)) {
		buf[p[0]], buf[p[1]] = buf[p[1]], buf[p[0]]
	}
}

func unswapStage(buf []byte) {
	pairs := swapPairs(len(buf))
	for i := len(pairs) - 1; i >= 0; i-- {
		p := pairs[i]
		buf[p[0]], buf[p[1]] = buf[p[1]], buf[p[0]]
	}
}

func permuteBlocks(buf []byte) {
	var tmp [BlockSize]byte
	for off := 0; off+BlockSize <= len(buf); off += BlockSize {
		copy(tmp[:], buf[off:off+BlockSize])
		for i, src := range permutation {
			buf[off+i] = tmp[src]
		}
	}
}

func unpermuteBlocks(buf []byte) {
	var tmp [BlockSize]byte
	for off := 0; off+BlockSize <= len(buf); off += BlockSize {
		copy(tmp[:], buf[off:off+BlockSize])
		for i, dst := range permutation {
			buf[off+dst] = tmp[i]
		}
	}
}
