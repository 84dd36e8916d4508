// Package responses turns raw generative-model output into playable
// scenes. The input is adversarial: wrapped in markdown, keyed in either
// the verbose or the compact dialect, or with several characters' lines
// glued into one entry. The policy throughout is repair over rejection —
// the only hard failures are "no JSON object found" and "zero timelines",
// for which callers fall back to a scripted scene.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/scene-core/core/generation"
	"github.com/koscakluka/scene-core/core/scenes"
)

var (
	// ErrNoScene means no balanced JSON object could be found or decoded
	// in the response text.
	ErrNoScene = errors.New("no scene object found in response")
	// ErrNoTimelines means the object decoded but yielded nothing playable.
	ErrNoTimelines = errors.New("response produced no timelines")
)

// sequentialGap separates timelines that carry no explicit start delay,
// including the chunks of a split combined response.
const sequentialGap = 500 * time.Millisecond

type ParseOptions struct {
	gap time.Duration
}

type ParseOption func(*ParseOptions)

// WithSequentialGap overrides the gap inserted between stacked timelines.
func WithSequentialGap(gap time.Duration) ParseOption {
	return func(o *ParseOptions) {
		if gap >= 0 {
			o.gap = gap
		}
	}
}

// Parse extracts, repairs and validates a scene from raw generator output.
// The returned diagnostics list every repair and guideline violation; it is
// populated on success as well, since a playable scene can still carry
// signals worth reporting upstream.
func Parse(
	ctx context.Context,
	raw string,
	known []scenes.Participant,
	opts ...ParseOption,
) (*scenes.Scene, []Diagnostic, error) {
	_, span := tracer.Start(ctx, "parse scene response")
	defer span.End()

	options := ParseOptions{gap: sequentialGap}
	for _, opt := range opts {
		opt(&options)
	}

	document, found := extractObject(stripCodeFences(raw))
	if !found {
		span.SetStatus(codes.Error, ErrNoScene.Error())
		return nil, nil, ErrNoScene
	}

	response, err := decodeDialect([]byte(document))
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrNoScene, err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, nil, wrapped
	}

	if response.Reasoning != "" {
		// Reasoning is diagnostic-only: logged, never acted on.
		logger.Debug("generator reasoning", "reasoning", response.Reasoning)
	}

	var (
		diagnostics []Diagnostic
		timelines   []scenes.Timeline
		cursor      time.Duration
		entryOwners = map[string]int{}
	)

	for _, entry := range response.Characters {
		start := cursor
		if entry.Delay.Valid {
			start = time.Duration(entry.Delay.Millis * float64(time.Millisecond))
		}

		baseline := directiveFromWire(entry.Voice)

		if chunks := splitCombined(entry.Text); chunks != nil {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      DiagnosticCombinedResponse,
				Character: entry.Name,
				Detail:    fmt.Sprintf("entry text contained %d bracketed speaker tags and was split", len(chunks)),
			})

			for _, piece := range chunks {
				name := piece.name
				if name == "" {
					name = entry.Name
				}
				character, resolved := resolveCharacter(name, known)
				if !resolved {
					diagnostics = append(diagnostics, Diagnostic{
						Kind:      DiagnosticUnresolvedCharacter,
						Character: name,
						Detail:    fmt.Sprintf("no participant matches %q, defaulting to %q", name, character),
					})
				}

				content := stripNamePrefix(piece.text, known)
				// Split chunks never inherit the entry's explicit steps;
				// the declared steps were timed for the glued text as a
				// whole and cannot be divided meaningfully.
				timeline := scenes.SynthesizeTimeline(character, content, start)
				applyBaseline(&timeline, baseline)
				timelines = append(timelines, timeline)
				start = timeline.End() + options.gap
			}
			cursor = start
			continue
		}

		character, resolved := resolveCharacter(entry.Name, known)
		if !resolved {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      DiagnosticUnresolvedCharacter,
				Character: entry.Name,
				Detail:    fmt.Sprintf("no participant matches %q, defaulting to %q", entry.Name, character),
			})
		}
		entryOwners[character]++

		content := stripNamePrefix(entry.Text, known)
		timeline := buildTimeline(entry, character, content, start, &diagnostics)
		applyBaseline(&timeline, baseline)
		timelines = append(timelines, timeline)
		cursor = timeline.End() + options.gap
	}

	if len(timelines) == 0 {
		span.SetStatus(codes.Error, ErrNoTimelines.Error())
		return nil, diagnostics, ErrNoTimelines
	}

	declared := time.Duration(0)
	if response.Duration.Valid {
		declared = time.Duration(response.Duration.Millis * float64(time.Millisecond))
	}
	scene := scenes.NewScene(timelines, declared)

	diagnostics = append(diagnostics, checkGuidelines(scene, entryOwners)...)
	for _, diagnostic := range diagnostics {
		logger.Warn("scene guideline", "kind", string(diagnostic.Kind), "character", diagnostic.Character, "detail", diagnostic.Detail)
	}

	span.SetAttributes(
		attribute.Int("scene.timelines", len(scene.Timelines)),
		attribute.Int("scene.diagnostics", len(diagnostics)),
		attribute.String("scene.id", scene.ID),
	)
	return scene, diagnostics, nil
}

// decodeDialect sniffs which wire dialect the document uses and returns the
// canonical verbose shape either way.
func decodeDialect(document []byte) (*generation.SceneResponse, error) {
	if looksCompact(document) {
		return expandCompact(document)
	}

	var response generation.SceneResponse
	if err := json.Unmarshal(document, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// applyBaseline attaches the entry-level voice directive to segments that
// carry none of their own, so the per-segment merge in playback only ever
// deals with one layer from the wire.
func applyBaseline(timeline *scenes.Timeline, baseline *scenes.VoiceDirective) {
	if baseline == nil {
		return
	}
	for i := range timeline.Segments {
		if timeline.Segments[i].Voice == nil {
			directive := *baseline
			timeline.Segments[i].Voice = &directive
		}
	}
}

// checkGuidelines runs the non-blocking post-parse checks. Violations are
// diagnostics, not errors: downstream playback must always receive
// something playable.
func checkGuidelines(scene *scenes.Scene, entryOwners map[string]int) []Diagnostic {
	var diagnostics []Diagnostic

	for character, entries := range entryOwners {
		if entries > 1 {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      DiagnosticDuplicateCharacter,
				Character: character,
				Detail:    fmt.Sprintf("character declared by %d separate entries", entries),
			})
		}
	}

	for i := range scene.Timelines {
		timeline := &scene.Timelines[i]
		if strings.TrimSpace(timeline.Content) == "" {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      DiagnosticEmptyContent,
				Character: timeline.Character,
				Detail:    "timeline has no content",
			})
		}
		if hasLeftoverPrefix(timeline.Content) {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      DiagnosticLeftoverPrefix,
				Character: timeline.Character,
				Detail:    "content still starts with a speaker tag",
			})
		}
	}
	return diagnostics
}
