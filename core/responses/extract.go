package responses

import "strings"

// stripCodeFences removes markdown fence lines so a response wrapped in
// ```json ... ``` (or bare ```) is reduced to its payload. Fence lines are
// dropped wholesale; everything else passes through untouched.
func stripCodeFences(raw string) string {
	if !strings.Contains(raw, "```") {
		return raw
	}

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractObject finds the first balanced {...} span in raw, skipping braces
// inside JSON string literals. Generators routinely wrap the object in
// prose on either side; everything outside the span is ignored.
func extractObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
