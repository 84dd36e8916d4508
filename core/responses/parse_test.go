package responses

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/koscakluka/scene-core/core/scenes"
)

var known = []scenes.Participant{
	{ID: "mira", Name: "Mira"},
	{ID: "lena", Name: "Lena"},
	{ID: "tomas", Name: "Tomas"},
}

const compactResponse = `{
  "d": 9000,
  "c": [
    {"n": "mira", "t": "I found the key.", "tl": [
      {"a": "think", "d": 1000},
      {"a": "talk", "d": 3000, "k": 1},
      {"a": "idle", "d": 500}
    ]},
    {"n": "lena", "t": "Show me."}
  ]
}`

func TestParseAcceptsFencedAndProseWrappedResponses(t *testing.T) {
	raw := "Sure! Here's the scene you asked for:\n```json\n" + compactResponse + "\n```\nLet me know if you'd like changes."

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if len(scene.Timelines) != 2 {
		t.Fatalf("expected 2 timelines, got %d", len(scene.Timelines))
	}
}

func TestParseFailsWithoutAnyObject(t *testing.T) {
	_, _, err := Parse(context.Background(), "I'm sorry, I can't help with that.", known)
	if !errors.Is(err, ErrNoScene) {
		t.Fatalf("expected ErrNoScene, got %v", err)
	}
}

func TestParseFailsOnMalformedObject(t *testing.T) {
	_, _, err := Parse(context.Background(), `{"characters": [}`, known)
	if !errors.Is(err, ErrNoScene) {
		t.Fatalf("expected ErrNoScene for malformed JSON, got %v", err)
	}
}

func TestParseFailsWithZeroTimelines(t *testing.T) {
	_, _, err := Parse(context.Background(), `{"characters": []}`, known)
	if !errors.Is(err, ErrNoTimelines) {
		t.Fatalf("expected ErrNoTimelines, got %v", err)
	}
}

func TestReparsingCompactDialectIsStructurallyIdentical(t *testing.T) {
	first, _, err := Parse(context.Background(), compactResponse, known)
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	second, _, err := Parse(context.Background(), compactResponse, known)
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}

	if !reflect.DeepEqual(first.Timelines, second.Timelines) {
		t.Fatal("expected identical timelines across re-parses")
	}
	if first.Duration != second.Duration {
		t.Fatalf("expected identical durations, got %v vs %v", first.Duration, second.Duration)
	}
}

func TestCompactAndVerboseDialectsAgree(t *testing.T) {
	verbose := `{
	  "duration": 9000,
	  "characters": [
	    {"name": "mira", "text": "I found the key.", "timeline": [
	      {"animation": "think", "duration": 1000},
	      {"animation": "talk", "duration": 3000, "talking": true},
	      {"animation": "idle", "duration": 500}
	    ]},
	    {"name": "lena", "text": "Show me."}
	  ]
	}`

	fromCompact, _, err := Parse(context.Background(), compactResponse, known)
	if err != nil {
		t.Fatalf("compact parse failed: %v", err)
	}
	fromVerbose, _, err := Parse(context.Background(), verbose, known)
	if err != nil {
		t.Fatalf("verbose parse failed: %v", err)
	}

	if !reflect.DeepEqual(fromCompact.Timelines, fromVerbose.Timelines) {
		t.Fatal("expected both dialects to normalize to the same timelines")
	}
}

func TestCombinedResponseIsSplitIntoSequentialTimelines(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "[Mira]: hello [Lena]: hi there"}]}`

	scene, diagnostics, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	if len(scene.Timelines) != 2 {
		t.Fatalf("expected 2 timelines from split, got %d", len(scene.Timelines))
	}

	first, second := scene.Timelines[0], scene.Timelines[1]
	if first.Character != "mira" || second.Character != "lena" {
		t.Fatalf("expected mira then lena, got %q then %q", first.Character, second.Character)
	}
	if first.Content != "hello" || second.Content != "hi there" {
		t.Fatalf("expected stripped contents, got %q and %q", first.Content, second.Content)
	}
	if second.StartDelay < first.End() {
		t.Fatalf("expected non-overlapping sequential delays, got second at %v before first end %v",
			second.StartDelay, first.End())
	}

	combined := false
	for _, diagnostic := range diagnostics {
		if diagnostic.Kind == DiagnosticCombinedResponse {
			combined = true
		}
	}
	if !combined {
		t.Fatal("expected a combined-response diagnostic")
	}
}

func TestUnknownCharacterFallsBackToFirstKnown(t *testing.T) {
	raw := `{"characters": [{"name": "the narrator", "text": "Once upon a time."}]}`

	scene, diagnostics, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if got := scene.Timelines[0].Character; got != "mira" {
		t.Fatalf("expected fallback to first known id, got %q", got)
	}

	unresolved := false
	for _, diagnostic := range diagnostics {
		if diagnostic.Kind == DiagnosticUnresolvedCharacter {
			unresolved = true
		}
	}
	if !unresolved {
		t.Fatal("expected an unresolved-character diagnostic")
	}
}

func TestCharacterResolutionRelaxesInStages(t *testing.T) {
	cases := []struct {
		reference string
		want      string
	}{
		{"mira", "mira"},
		{"Mira", "mira"},
		{"  LENA  ", "lena"},
		{"Tom", "tomas"},
		{"Tomas the Brave", "tomas"},
	}
	for _, tc := range cases {
		got, ok := resolveCharacter(tc.reference, known)
		if !ok || got != tc.want {
			t.Fatalf("resolveCharacter(%q) = %q, %t; want %q", tc.reference, got, ok, tc.want)
		}
	}
}

func TestBareNamePrefixStrippedOnlyForKnownNames(t *testing.T) {
	if got := stripNamePrefix("Mira: hello", known); got != "hello" {
		t.Fatalf("expected known bare prefix stripped, got %q", got)
	}
	if got := stripNamePrefix("Warning: stay back", known); got != "Warning: stay back" {
		t.Fatalf("expected unrelated colon phrase kept, got %q", got)
	}
	if got := stripNamePrefix("[Whoever]: hello", known); got != "hello" {
		t.Fatalf("expected bracketed prefix always stripped, got %q", got)
	}
}

func TestEntryWithoutStepsGetsDefaultTimeline(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "A line with no steps."}]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	timeline := scene.Timelines[0]
	if len(timeline.Segments) != 3 {
		t.Fatalf("expected synthesized three-step timeline, got %d segments", len(timeline.Segments))
	}
	if timeline.Segments[0].Animation != scenes.AnimationThink {
		t.Fatalf("expected leading think segment, got %s", timeline.Segments[0].Animation)
	}
	if !timeline.Segments[1].IsTalking {
		t.Fatal("expected middle segment to be talking")
	}
}

func TestBadDurationsAreRepairedNotFatal(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "hi", "timeline": [
	  {"animation": "talk", "duration": "soonish", "talking": true},
	  {"animation": "idle", "duration": 2}
	]}]}`

	scene, diagnostics, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	segments := scene.Timelines[0].Segments
	if segments[0].Duration != scenes.DefaultSegmentDuration {
		t.Fatalf("expected default duration for garbage, got %v", segments[0].Duration)
	}
	if segments[1].Duration != scenes.MinSegmentDuration {
		t.Fatalf("expected 2ms clamped to %v, got %v", scenes.MinSegmentDuration, segments[1].Duration)
	}

	repaired := false
	for _, diagnostic := range diagnostics {
		if diagnostic.Kind == DiagnosticBadDuration {
			repaired = true
		}
	}
	if !repaired {
		t.Fatal("expected a bad-duration diagnostic")
	}
}

func TestUnknownAnimationFallsBackThroughSubstringToIdle(t *testing.T) {
	var diagnostics []Diagnostic
	if got := matchAnimation("Talking", "mira", &diagnostics); got != scenes.AnimationTalk {
		t.Fatalf("expected substring match to talk, got %s", got)
	}
	if got := matchAnimation("Lean Forward", "mira", &diagnostics); got != scenes.AnimationLeanForward {
		t.Fatalf("expected folded exact match, got %s", got)
	}
	if got := matchAnimation("backflip", "mira", &diagnostics); got != scenes.AnimationIdle {
		t.Fatalf("expected unknown animation to fall back to idle, got %s", got)
	}
	if len(diagnostics) != 1 {
		t.Fatalf("expected exactly the idle fallback to be flagged, got %d diagnostics", len(diagnostics))
	}
}

func TestUnknownComplementaryFieldsFallBackToUnset(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "hi", "timeline": [
	  {"animation": "talk", "duration": 2000, "talking": true, "gaze": "sideways-ish", "mouth": "SMILE"}
	]}]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	pose := scene.Timelines[0].Segments[0].Pose
	if pose.Gaze != "" {
		t.Fatalf("expected unknown gaze left unset, got %q", pose.Gaze)
	}
	if pose.Mouth != scenes.MouthSmile {
		t.Fatalf("expected case-insensitive mouth match, got %q", pose.Mouth)
	}
}

func rangesCover(timeline scenes.Timeline) bool {
	cursor := 0
	for _, index := range timeline.TalkingSegments() {
		r := timeline.Segments[index].TextRange
		if r == nil || r.Start != cursor || r.End < r.Start {
			return false
		}
		cursor = r.End
	}
	return cursor == scenes.UTF16Length(timeline.Content)
}

func TestMissingRangesAreDistributedEvenly(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "0123456789", "timeline": [
	  {"animation": "talk", "duration": 2000, "talking": true},
	  {"animation": "talk", "duration": 2000, "talking": true}
	]}]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	timeline := scene.Timelines[0]
	if !rangesCover(timeline) {
		t.Fatal("expected distributed ranges to cover the content exactly")
	}
	first := timeline.Segments[0].TextRange
	if first.Start != 0 || first.End != 5 {
		t.Fatalf("expected even split [0,5), got [%d,%d)", first.Start, first.End)
	}
}

func TestInconsistentExplicitRangesAreRealigned(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "0123456789", "timeline": [
	  {"animation": "talk", "duration": 2000, "talking": true, "textRange": [2, 4]},
	  {"animation": "talk", "duration": 2000, "talking": true, "textRange": [6, 7]}
	]}]}`

	scene, diagnostics, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	timeline := scene.Timelines[0]
	if !rangesCover(timeline) {
		t.Fatal("expected realigned ranges to cover the content exactly")
	}
	if first := timeline.Segments[0].TextRange; first.Start != 0 {
		t.Fatalf("expected first range forced to start at 0, got %d", first.Start)
	}
	if last := timeline.Segments[1].TextRange; last.End != 10 {
		t.Fatalf("expected last range forced to content length, got %d", last.End)
	}

	flagged := false
	for _, diagnostic := range diagnostics {
		if diagnostic.Kind == DiagnosticRangeRepaired {
			flagged = true
		}
	}
	if !flagged {
		t.Fatal("expected a range-repaired diagnostic")
	}
}

func TestNoTalkingSegmentsAttachFullRangeToFirstSegment(t *testing.T) {
	raw := `{"characters": [{"name": "mira", "text": "silent stare", "timeline": [
	  {"animation": "idle", "duration": 2000}
	]}]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	first := scene.Timelines[0].Segments[0]
	if first.TextRange == nil {
		t.Fatal("expected full range attached to first segment")
	}
	if first.TextRange.Start != 0 || first.TextRange.End != len("silent stare") {
		t.Fatalf("expected [0,%d), got [%d,%d)", len("silent stare"), first.TextRange.Start, first.TextRange.End)
	}
}

func TestGuidelineViolationsDoNotFailTheParse(t *testing.T) {
	raw := `{"characters": [
	  {"name": "mira", "text": "first"},
	  {"name": "mira", "text": ""}
	]}`

	scene, diagnostics, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed despite violations, got %v", err)
	}
	if len(scene.Timelines) != 2 {
		t.Fatalf("expected both timelines kept, got %d", len(scene.Timelines))
	}

	kinds := map[DiagnosticKind]bool{}
	for _, diagnostic := range diagnostics {
		kinds[diagnostic.Kind] = true
	}
	if !kinds[DiagnosticDuplicateCharacter] {
		t.Fatal("expected duplicate-character diagnostic")
	}
	if !kinds[DiagnosticEmptyContent] {
		t.Fatal("expected empty-content diagnostic")
	}
}

func TestSceneDurationIsAtLeastLatestTimelineEnd(t *testing.T) {
	raw := `{"duration": 1, "characters": [{"name": "mira", "text": "a fairly long line of dialogue here"}]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if scene.Duration < scene.Timelines[0].End() {
		t.Fatalf("expected duration %v to cover timeline end %v", scene.Duration, scene.Timelines[0].End())
	}
}

func TestSequentialEntriesAreStackedWithGap(t *testing.T) {
	scene, _, err := Parse(context.Background(), compactResponse, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	first, second := scene.Timelines[0], scene.Timelines[1]
	if want := first.End() + sequentialGap; second.StartDelay != want {
		t.Fatalf("expected second timeline at %v, got %v", want, second.StartDelay)
	}
}

func TestExplicitDelayOverridesStacking(t *testing.T) {
	raw := `{"characters": [
	  {"name": "mira", "text": "one"},
	  {"name": "lena", "text": "two", "delay": 250}
	]}`

	scene, _, err := Parse(context.Background(), raw, known)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}

	var lena *scenes.Timeline
	for i := range scene.Timelines {
		if scene.Timelines[i].Character == "lena" {
			lena = &scene.Timelines[i]
		}
	}
	if lena == nil {
		t.Fatal("expected a timeline for lena")
	}
	if lena.StartDelay != 250*time.Millisecond {
		t.Fatalf("expected explicit 250ms delay, got %v", lena.StartDelay)
	}
}
