package responses

import (
	"regexp"
	"strings"

	"github.com/koscakluka/scene-core/core/scenes"
)

// foldName normalizes a character reference for comparison: lowercased,
// trimmed, inner whitespace collapsed.
func foldName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// resolveCharacter maps a generator-written character reference to a known
// participant ID. Matching relaxes in stages: exact ID, exact name,
// case/whitespace-insensitive, then substring in either direction. When
// nothing matches the first participant is returned with ok=false — one
// unattributable line never fails a whole parse.
func resolveCharacter(name string, known []scenes.Participant) (string, bool) {
	trimmed := strings.TrimSpace(name)

	for _, participant := range known {
		if participant.ID == trimmed || participant.Name == trimmed {
			return participant.ID, true
		}
	}

	folded := foldName(trimmed)
	if folded != "" {
		for _, participant := range known {
			if foldName(participant.ID) == folded || foldName(participant.Name) == folded {
				return participant.ID, true
			}
		}
		for _, participant := range known {
			knownFolded := foldName(participant.Name)
			if knownFolded == "" {
				knownFolded = foldName(participant.ID)
			}
			if strings.Contains(knownFolded, folded) || strings.Contains(folded, knownFolded) {
				return participant.ID, true
			}
		}
	}

	if len(known) > 0 {
		return known[0].ID, false
	}
	return trimmed, false
}

// bracketPrefixPattern matches a "[Name]:" speaker tag. Names never span
// lines and the generator keeps them short.
var bracketPrefixPattern = regexp.MustCompile(`\[([^\[\]\n]{1,64})\]\s*:`)

// barePrefixPattern matches a leading "Name:" tag; whether it is stripped
// depends on the name resolving to a known participant.
var barePrefixPattern = regexp.MustCompile(`^\s*([^:\n]{1,48}):\s*`)

// chunk is one speaker-attributed slice of a combined response.
type chunk struct {
	name string
	text string
}

// splitCombined detects the known generator failure mode where one entry's
// text glues several characters' lines together as "[A]: ... [B]: ...".
// It returns one chunk per bracketed tag when two or more are present, and
// nil otherwise. Unprefixed text ahead of the first tag becomes a leading
// chunk with no name so it stays attributed to the declaring entry.
func splitCombined(text string) []chunk {
	matches := bracketPrefixPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < 2 {
		return nil
	}

	var chunks []chunk
	if lead := strings.TrimSpace(text[:matches[0][0]]); lead != "" {
		chunks = append(chunks, chunk{text: lead})
	}
	for i, match := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		chunks = append(chunks, chunk{
			name: text[match[2]:match[3]],
			text: strings.TrimSpace(text[match[1]:end]),
		})
	}
	return chunks
}

// stripNamePrefix removes a leftover speaker tag from the front of final
// content. Bracketed tags go unconditionally; bare "Name:" tags only when
// the name resolves to a known participant, so ordinary colon phrases
// ("Warning: ...") survive.
func stripNamePrefix(content string, known []scenes.Participant) string {
	trimmed := strings.TrimSpace(content)

	if match := bracketPrefixPattern.FindStringIndex(trimmed); match != nil && match[0] == 0 {
		return strings.TrimSpace(trimmed[match[1]:])
	}

	if match := barePrefixPattern.FindStringSubmatchIndex(trimmed); match != nil {
		name := trimmed[match[2]:match[3]]
		if _, ok := resolveCharacter(name, known); ok {
			return strings.TrimSpace(trimmed[match[1]:])
		}
	}
	return trimmed
}

// hasLeftoverPrefix reports whether content still starts with something
// that looks like a speaker tag, for guideline checking.
func hasLeftoverPrefix(content string) bool {
	trimmed := strings.TrimSpace(content)
	match := bracketPrefixPattern.FindStringIndex(trimmed)
	return match != nil && match[0] == 0
}
