package responses

import "fmt"

// DiagnosticKind classifies the non-fatal problems found while turning a
// response into a scene. Diagnostics never block playback; they exist so
// prompt regressions show up in logs instead of as subtly broken scenes.
type DiagnosticKind string

const (
	DiagnosticUnresolvedCharacter DiagnosticKind = "unresolved_character"
	DiagnosticDuplicateCharacter  DiagnosticKind = "duplicate_character"
	DiagnosticLeftoverPrefix      DiagnosticKind = "leftover_prefix"
	DiagnosticEmptyContent        DiagnosticKind = "empty_content"
	DiagnosticUnknownAnimation    DiagnosticKind = "unknown_animation"
	DiagnosticUnknownField        DiagnosticKind = "unknown_field"
	DiagnosticBadDuration         DiagnosticKind = "bad_duration"
	DiagnosticRangeRepaired       DiagnosticKind = "range_repaired"
	DiagnosticCombinedResponse    DiagnosticKind = "combined_response"
)

// Diagnostic records one repaired or suspicious spot in a response.
type Diagnostic struct {
	Kind      DiagnosticKind
	Character string
	Detail    string
}

func (d Diagnostic) String() string {
	if d.Character == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", d.Kind, d.Character, d.Detail)
}
