// Package titles builds display titles for discovered attachments.
package titles

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const boundaryChars = ".;:!?-"

func isBoundary(r rune) bool {
	return strings.ContainsRune(boundaryChars, r)
}

var trailingBoundary = regexp.MustCompile(`\s*[.;:!?\-]+\s*$`)

type segment struct {
	text string // trimmed unit including its punctuation
	core string // text without trailing punctuation
}

// segments splits s into sentence-like units. A unit ends with a run of
// boundary punctuation that is followed by whitespace or the end of the
// string, so "Behind-the-scenes" and "v1.5" stay whole. Trailing text without
// punctuation is a unit of its own.
func segments(s string) []segment {
	var out []segment
	flush := func(unit string) {
		text := strings.TrimSpace(unit)
		core := strings.TrimSpace(strings.TrimRightFunc(text, isBoundary))
		if core == "" {
			return
		}
		out = append(out, segment{text: text, core: core})
	}

	start := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		if !isBoundary(r) {
			i += width
			continue
		}
		end := i
		for end < len(s) {
			next, w := utf8.DecodeRuneInString(s[end:])
			if !isBoundary(next) {
				break
			}
			end += w
		}
		if end == len(s) {
			i = end
			break
		}
		if next, _ := utf8.DecodeRuneInString(s[end:]); unicode.IsSpace(next) {
			flush(s[start:end])
			start = end
		}
		i = end
	}
	flush(s[start:])
	return out
}

// Merge combines a post title with one of its attachment titles, dropping the
// parts of the attachment title the post title already says:
//
//	Merge("Monday Update: Big Announcement", "Big Announcement Extra Footage")
//	  == "Monday Update: Big Announcement - Extra Footage"
//
// When nothing unique remains, or either title has no usable units, the
// result is "post - attachment".
func Merge(postTitle, attachmentTitle string) string {
	post := strings.TrimSpace(postTitle)
	attachment := strings.TrimSpace(attachmentTitle)
	fallback := strings.TrimSpace(post + " - " + attachment)

	postSegments := segments(post)
	attachmentSegments := segments(attachment)
	if len(postSegments) == 0 || len(attachmentSegments) == 0 {
		return fallback
	}

	known := make(map[string]struct{}, len(postSegments))
	for _, seg := range postSegments {
		known[seg.core] = struct{}{}
	}

	var unique []string
	for _, seg := range attachmentSegments {
		if _, dup := known[seg.core]; dup {
			continue
		}
		if rest := stripKnownPrefixes(seg.text, postSegments); rest != "" {
			unique = append(unique, rest)
		}
	}
	if len(unique) == 0 {
		return fallback
	}

	merged := strings.TrimSpace(post + " - " + strings.Join(unique, " "))
	return strings.TrimSpace(trailingBoundary.ReplaceAllString(merged, ""))
}

// stripKnownPrefixes removes post units that open text as whole words.
func stripKnownPrefixes(text string, known []segment) string {
	for changed := true; changed; {
		changed = false
		for _, seg := range known {
			if !strings.HasPrefix(text, seg.core) {
				continue
			}
			rest := text[len(seg.core):]
			if rest != "" {
				if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
					continue
				}
			}
			text = strings.TrimSpace(rest)
			changed = true
		}
	}
	if strings.TrimSpace(strings.TrimRightFunc(text, isBoundary)) == "" {
		return ""
	}
	return text
}
