package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "-",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
	"\x00", "",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// maxNameBytes keeps names under common filesystem limits once an extension
// is appended.
const maxNameBytes = 240

// SanitizeFileName makes name safe as a single path segment. Slashes,
// backslashes, pipes and asterisks become dashes, colons become " -", and
// other unsafe characters are dropped. Runs of whitespace collapse to one
// space and trailing dots are removed. Empty input yields "untitled".
func SanitizeFileName(name string) string {
	name = strings.Join(strings.Fields(fileNameReplacer.Replace(name)), " ")
	name = strings.TrimRight(name, ". ")
	if len(name) > maxNameBytes {
		name = truncateUTF8(name, maxNameBytes)
		name = strings.TrimRight(name, ". ")
	}
	if name == "" {
		return "untitled"
	}
	return name
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	// Back up to a rune boundary.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
