package channels

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// IndexSheetName is the reserved name of the summary sheet
const IndexSheetName = "INDEX"

// forbiddenSheetChars are rejected by Excel in sheet names
var forbiddenSheetChars = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_",
	"*", "_", "[", "_", "]", "_",
)

// SheetNamer hands out workbook-unique sheet names. Excel compares sheet
// names case-insensitively, so uniqueness is checked on the lower-case form.
type SheetNamer struct {
	used map[string]struct{}
}

// NewSheetNamer creates a namer with the given names already taken
func NewSheetNamer(reserved ...string) *SheetNamer {
	n := &SheetNamer{used: make(map[string]struct{})}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = struct{}{}
	}
	return n
}

// Name sanitizes base and returns the first free variant of it: base,
// base_1, base_2, ... Each variant is truncated so it fits Excel's limit.
func (n *SheetNamer) Name(base string) string {
	base = SanitizeSheetName(base)

	candidate := base
	for i := 1; n.taken(candidate); i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncateRunes(base, excelize.MaxSheetNameLength-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

func (n *SheetNamer) taken(name string) bool {
	_, ok := n.used[strings.ToLower(name)]
	return ok
}

// SanitizeSheetName replaces forbidden characters, trims leading and
// trailing apostrophes and truncates to excelize.MaxSheetNameLength runes.
func SanitizeSheetName(name string) string {
	name = forbiddenSheetChars.Replace(name)
	name = truncateRunes(name, excelize.MaxSheetNameLength)
	name = strings.Trim(name, "'")
	if strings.TrimSpace(name) == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
