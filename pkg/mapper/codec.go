package mapper

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
)

// Grammar delimiters.
const (
	containerEnd = '?'
	blockEnd     = '!'
	fieldSep     = ","
	recordEnd    = ",|"
	recordFields = 4
)

// ParseResult is the outcome of parsing decrypted map text.
type ParseResult struct {
	Entries []Entry

	// Truncated is set when the parser stopped before the end of the input,
	// either inside a block with no closing '!' or on trailing text that
	// does not start a block. Trailing whitespace and NUL bytes are not
	// truncation.
	Truncated bool

	// Skipped counts records with fewer than four fields.
	Skipped int
}

// Parse decodes map text into entries in file order. It never fails: numbers
// that do not parse become 0 and a missing delimiter ends parsing early.
func Parse(text string) ParseResult {
	var res ParseResult
	cursor := 0

	for cursor < len(text) {
		if isPadding(text[cursor:]) {
			break
		}
		q := strings.IndexByte(text[cursor:], containerEnd)
		if q < 0 {
			res.Truncated = true
			break
		}
		container := text[cursor : cursor+q]
		cursor += q + 1

		excl := strings.IndexByte(text[cursor:], blockEnd)
		if excl < 0 {
			res.Truncated = true
			break
		}
		block := text[cursor : cursor+excl]
		cursor += excl + 1

		for {
			sep := strings.Index(block, recordEnd)
			if sep < 0 {
				break
			}
			record := block[:sep]
			block = block[sep+len(recordEnd):]

			entry, ok := parseRecord(container, record)
			if !ok {
				res.Skipped++
				continue
			}
			res.Entries = append(res.Entries, entry)
		}
	}

	return res
}

// isPadding reports whether s holds only whitespace and NUL bytes, which
// editors and some patchers leave after the last block.
func isPadding(s string) bool {
	return strings.TrimRight(s, " \t\r\n\x00") == ""
}

func parseRecord(container, record string) (Entry, bool) {
	fields := strings.Split(record, fieldSep)
	if len(fields) < recordFields {
		return Entry{}, false
	}
	return Entry{
		Container:  container,
		ObjectPath: fields[0],
		ID:         fields[1],
		Offset:     parseUint(fields[2]),
		Size:       parseUint(fields[3]),
	}, true
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Serialize encodes entries in the map grammar. Entries are grouped by
// container in first-seen order and sorted by offset within each group,
// which the game engine requires. Entries with an empty container are
// dropped.
func Serialize(entries []Entry) []byte {
	var order []string
	groups := make(map[string][]Entry)

	for _, e := range entries {
		if _, ok := groups[e.Container]; !ok {
			order = append(order, e.Container)
		}
		groups[e.Container] = append(groups[e.Container], e)
	}

	var buf bytes.Buffer
	for _, container := range order {
		if container == "" {
			continue
		}

		group := groups[container]
		slices.SortStableFunc(group, func(a, b Entry) int {
			switch {
			case a.Offset < b.Offset:
				return -1
			case a.Offset > b.Offset:
				return 1
			}
			return 0
		})

		buf.WriteString(container)
		buf.WriteByte(containerEnd)
		for _, e := range group {
			buf.WriteString(e.ObjectPath)
			buf.WriteString(fieldSep)
			buf.WriteString(e.ID)
			buf.WriteString(fieldSep)
			buf.WriteString(strconv.FormatUint(e.Offset, 10))
			buf.WriteString(fieldSep)
			buf.WriteString(strconv.FormatUint(e.Size, 10))
			buf.WriteString(recordEnd)
		}
		buf.WriteByte(blockEnd)
	}

	return buf.Bytes()
}
