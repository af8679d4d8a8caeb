package titles

import (
	"strings"
	"unicode/utf8"
)

// subchannelPrefixes are creator short codes removed from display titles, in
// the order they are applied.
var subchannelPrefixes = []string{
	"MA: ",
	"FP Exclusive: ",
	"talklinked",
	"TL: ",
	"TL Short: ",
	"TQ: ",
	"TJM: ",
	"SC: ",
	"CSF: ",
	"Livestream VOD – ",
	" : ",
}

// removeFirstFold deletes the first case-insensitive occurrence of sub.
func removeFirstFold(s, sub string) string {
	start, end, ok := indexFold(s, sub)
	if !ok {
		return s
	}
	return s[:start] + s[end:]
}

// indexFold returns the byte span of the first occurrence of sub in s under
// simple Unicode case folding. Invalid UTF-8 only matches itself.
func indexFold(s, sub string) (int, int, bool) {
	if sub == "" {
		return 0, 0, false
	}
	for i := 0; i < len(s); {
		if n, ok := prefixFoldLen(s[i:], sub); ok {
			return i, i + n, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

// prefixFoldLen reports whether s starts with prefix, ignoring case, and how
// many bytes of s the match covers.
func prefixFoldLen(s, prefix string) (int, bool) {
	n := 0
	for len(prefix) > 0 {
		if n >= len(s) {
			return 0, false
		}
		want, wantSize := utf8.DecodeRuneInString(prefix)
		got, gotSize := utf8.DecodeRuneInString(s[n:])
		if want == utf8.RuneError || got == utf8.RuneError {
			if s[n:n+gotSize] != prefix[:wantSize] {
				return 0, false
			}
		} else if !strings.EqualFold(s[n:n+gotSize], prefix[:wantSize]) {
			return 0, false
		}
		prefix = prefix[wantSize:]
		n += gotSize
	}
	return n, true
}

// StripSubchannelPrefix removes the channel title and known short-code
// prefixes from title. Each pattern is matched case-insensitively and only
// its first occurrence is removed. Double spaces are then collapsed, a
// leading ": " dropped and the result trimmed.
func StripSubchannelPrefix(title, channelTitle string) string {
	if channelTitle != "" {
		title = removeFirstFold(title, channelTitle)
	}
	for _, prefix := range subchannelPrefixes {
		title = removeFirstFold(title, prefix)
	}
	title = strings.ReplaceAll(title, "  ", " ")
	title = strings.TrimPrefix(title, ": ")
	return strings.TrimSpace(title)
}
