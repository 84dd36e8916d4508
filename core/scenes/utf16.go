package scenes

import "unicode/utf16"

// UTF16Length returns the length of s in UTF-16 code units. Text-reveal
// ranges are expressed in these units because the generator counts string
// offsets that way.
func UTF16Length(s string) int {
	length := 0
	for _, r := range s {
		if r > 0xFFFF {
			length += 2
		} else {
			length++
		}
	}
	return length
}

// CutUTF16 returns the substring of s covering [start, end) in UTF-16 code
// units, clamping both bounds into range. Cutting through a surrogate pair
// yields a replacement rune rather than failing; reveal boundaries land on
// pair edges in practice.
func CutUTF16(s string, start, end int) string {
	units := utf16.Encode([]rune(s))
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}
