package responses

import (
	"fmt"
	"strings"
	"time"

	"github.com/koscakluka/scene-core/core/generation"
	"github.com/koscakluka/scene-core/core/scenes"
)

// foldKey normalizes an enum-ish field value: lowercased, trimmed, spaces
// and dashes folded to underscores so "Lean Forward" matches lean_forward.
func foldKey(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	folded = strings.ReplaceAll(folded, "-", "_")
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '_'
	}), "_")
}

// matchAnimation resolves a declared animation name. Exact match first,
// then the closest substring match (smallest length difference), then the
// neutral idle fallback — an unknown pose should degrade to standing still,
// not to a dropped segment.
func matchAnimation(raw string, character string, diagnostics *[]Diagnostic) scenes.Animation {
	folded := foldKey(raw)
	if folded == "" {
		return scenes.AnimationIdle
	}

	for _, animation := range scenes.Animations {
		if foldKey(string(animation)) == folded {
			return animation
		}
	}

	best := scenes.Animation("")
	bestDistance := 0
	for _, animation := range scenes.Animations {
		candidate := foldKey(string(animation))
		if !strings.Contains(candidate, folded) && !strings.Contains(folded, candidate) {
			continue
		}
		distance := len(candidate) - len(folded)
		if distance < 0 {
			distance = -distance
		}
		if best == "" || distance < bestDistance {
			best, bestDistance = animation, distance
		}
	}
	if best != "" {
		return best
	}

	*diagnostics = append(*diagnostics, Diagnostic{
		Kind:      DiagnosticUnknownAnimation,
		Character: character,
		Detail:    fmt.Sprintf("animation %q not recognized, using idle", raw),
	})
	return scenes.AnimationIdle
}

// matchField resolves one of the complementary enum fields against its
// value set. Unknown values fall back to unset rather than a guess, since
// consumers treat unset as "no change".
func matchField[T ~string](raw, field, character string, values []T, diagnostics *[]Diagnostic) T {
	folded := foldKey(raw)
	if folded == "" {
		return T("")
	}
	for _, value := range values {
		if foldKey(string(value)) == folded {
			return value
		}
	}
	*diagnostics = append(*diagnostics, Diagnostic{
		Kind:      DiagnosticUnknownField,
		Character: character,
		Detail:    fmt.Sprintf("%s %q not recognized, leaving unset", field, raw),
	})
	return T("")
}

// stepDuration clamps a declared duration into the playable band, falling
// back to the default when the generator sent something that is not a
// usable number.
func stepDuration(declared generation.FlexMillis, character string, diagnostics *[]Diagnostic) time.Duration {
	if !declared.Valid {
		*diagnostics = append(*diagnostics, Diagnostic{
			Kind:      DiagnosticBadDuration,
			Character: character,
			Detail:    "step duration missing or not numeric, using default",
		})
		return scenes.DefaultSegmentDuration
	}
	return scenes.ClampDuration(time.Duration(declared.Millis * float64(time.Millisecond)))
}

func directiveFromWire(wire *generation.VoiceDirective) *scenes.VoiceDirective {
	if wire == nil {
		return nil
	}
	directive := scenes.VoiceDirective{
		Pitch:  foldKey(wire.Pitch),
		Pace:   foldKey(wire.Pace),
		Volume: foldKey(wire.Volume),
		Mood:   foldKey(wire.Mood),
	}
	if directive == (scenes.VoiceDirective{}) {
		return nil
	}
	return &directive
}

// buildTimeline turns one declared entry (already resolved and stripped)
// into a timeline, validating every step. Entries without steps get the
// default synthesized shape.
func buildTimeline(
	entry generation.CharacterEntry,
	character, content string,
	startDelay time.Duration,
	diagnostics *[]Diagnostic,
) scenes.Timeline {
	if len(entry.Timeline) == 0 {
		return scenes.SynthesizeTimeline(character, content, startDelay)
	}

	timeline := scenes.Timeline{
		Character:  character,
		Content:    content,
		StartDelay: startDelay,
	}
	for _, step := range entry.Timeline {
		segment := scenes.Segment{
			Animation: matchAnimation(step.Animation, character, diagnostics),
			Duration:  stepDuration(step.Duration, character, diagnostics),
			IsTalking: step.Talking,
			Voice:     directiveFromWire(step.Voice),
			Pose: scenes.Pose{
				Gaze:   matchField(step.Gaze, "gaze", character, scenes.Gazes, diagnostics),
				Eyes:   matchField(step.Eyes, "eyes", character, scenes.EyeStates, diagnostics),
				Mouth:  matchField(step.Mouth, "mouth", character, scenes.MouthStates, diagnostics),
				Brows:  matchField(step.Brows, "brows", character, scenes.BrowStates, diagnostics),
				Effect: matchField(step.Effect, "effect", character, scenes.Effects, diagnostics),
				Speed:  step.Speed,
			},
		}
		if step.BlinkAt > 0 {
			segment.Pose.BlinkAfter = time.Duration(step.BlinkAt * float64(time.Millisecond))
		}
		if len(step.TextRange) == 2 {
			segment.TextRange = &scenes.TextRange{Start: step.TextRange[0], End: step.TextRange[1]}
		}
		timeline.Segments = append(timeline.Segments, segment)
	}
	timeline.Recalculate()
	repairRanges(&timeline, diagnostics)
	return timeline
}

// repairRanges restores the coverage invariant: the talking segments'
// ranges must jointly cover [0, len(content)) in order, with no gaps or
// overlaps. Explicit ranges are kept where consistent and forced back into
// line where not; missing ranges are distributed evenly. Without talking
// segments, the whole range lands on the first segment so reveal still has
// an anchor.
func repairRanges(timeline *scenes.Timeline, diagnostics *[]Diagnostic) {
	contentLength := scenes.UTF16Length(timeline.Content)
	talking := timeline.TalkingSegments()

	if len(talking) == 0 {
		if len(timeline.Segments) > 0 && contentLength > 0 {
			timeline.Segments[0].TextRange = &scenes.TextRange{Start: 0, End: contentLength}
		}
		return
	}

	explicit := false
	for _, index := range talking {
		if timeline.Segments[index].TextRange != nil {
			explicit = true
			break
		}
	}

	if !explicit {
		share := contentLength / len(talking)
		cursor := 0
		for position, index := range talking {
			end := cursor + share
			if position == len(talking)-1 {
				end = contentLength
			}
			timeline.Segments[index].TextRange = &scenes.TextRange{Start: cursor, End: end}
			cursor = end
		}
		return
	}

	cursor := 0
	repaired := false
	for position, index := range talking {
		segment := &timeline.Segments[index]
		if segment.TextRange == nil {
			segment.TextRange = &scenes.TextRange{Start: cursor, End: cursor}
			repaired = true
		}

		if segment.TextRange.Start != cursor {
			segment.TextRange.Start = cursor
			repaired = true
		}
		if segment.TextRange.End < segment.TextRange.Start {
			segment.TextRange.End = segment.TextRange.Start
			repaired = true
		}
		if segment.TextRange.End > contentLength {
			segment.TextRange.End = contentLength
			repaired = true
		}
		if position == len(talking)-1 && segment.TextRange.End != contentLength {
			segment.TextRange.End = contentLength
			repaired = true
		}
		cursor = segment.TextRange.End
	}

	if repaired {
		*diagnostics = append(*diagnostics, Diagnostic{
			Kind:      DiagnosticRangeRepaired,
			Character: timeline.Character,
			Detail:    "text-reveal ranges were inconsistent and have been realigned",
		})
	}
}
