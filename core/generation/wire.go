// Package generation defines the wire contract between the generative-model
// client and response parsing: the verbose JSON shape a well-behaved
// response carries, and the schema callers can attach to a
// schema-constrained generation request.
package generation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// SceneResponse is the verbose wire shape of one generated scene.
type SceneResponse struct {
	// Reasoning is an optional diagnostic block the generator may attach.
	// It is logged and never acted on.
	Reasoning string `json:"reasoning,omitempty"`

	// Duration is the generator-declared total scene length in
	// milliseconds. The effective scene duration is never shorter than the
	// latest timeline's end.
	Duration FlexMillis `json:"duration,omitzero"`

	Characters []CharacterEntry `json:"characters"`
}

// CharacterEntry is one character's declared turn.
type CharacterEntry struct {
	// Name is how the generator refers to the character; it is resolved
	// against known participants and may be a display name, an id, or an
	// approximation of either.
	Name string `json:"name"`

	Text string `json:"text"`

	// Delay is the turn's start offset from scene start in milliseconds.
	// When absent, turns are stacked sequentially.
	Delay FlexMillis `json:"delay,omitzero"`

	// Timeline holds the explicit steps; when empty a default timeline is
	// synthesized from Text.
	Timeline []TimelineStep `json:"timeline,omitempty"`

	// Voice is the baseline directive for the whole turn.
	Voice *VoiceDirective `json:"voice,omitempty"`
}

// TimelineStep is one declared animation step.
type TimelineStep struct {
	Animation string     `json:"animation"`
	Duration  FlexMillis `json:"duration,omitzero"`
	Talking   bool       `json:"talking,omitempty"`

	// TextRange is the [start, end) span of Text revealed over this step,
	// in UTF-16 code units.
	TextRange []int `json:"textRange,omitempty"`

	Gaze    string  `json:"gaze,omitempty"`
	Eyes    string  `json:"eyes,omitempty"`
	Mouth   string  `json:"mouth,omitempty"`
	Brows   string  `json:"brows,omitempty"`
	Effect  string  `json:"effect,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
	BlinkAt float64 `json:"blinkAt,omitempty"`

	Voice *VoiceDirective `json:"voice,omitempty"`
}

// VoiceDirective carries qualitative delivery labels.
type VoiceDirective struct {
	Pitch  string `json:"pitch,omitempty"`
	Pace   string `json:"pace,omitempty"`
	Volume string `json:"volume,omitempty"`
	Mood   string `json:"mood,omitempty"`
}

// FlexMillis is a millisecond count that tolerates the ways generators
// mangle numbers: plain numbers, quoted numbers, and garbage. Garbage and
// non-finite values decode as invalid instead of failing the document.
type FlexMillis struct {
	Millis float64
	Valid  bool
}

// Ms builds a valid FlexMillis, mostly for tests and fixtures.
func Ms(millis float64) FlexMillis {
	return FlexMillis{Millis: millis, Valid: true}
}

func (m *FlexMillis) UnmarshalJSON(data []byte) error {
	*m = FlexMillis{}

	if string(data) == "null" {
		return nil
	}

	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		m.set(number)
		return nil
	}

	var quoted string
	if err := json.Unmarshal(data, &quoted); err == nil {
		if number, err := strconv.ParseFloat(strings.TrimSpace(quoted), 64); err == nil {
			m.set(number)
		}
		return nil
	}

	// Arrays, objects, booleans: invalid, repaired downstream.
	return nil
}

func (m *FlexMillis) set(number float64) {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return
	}
	m.Millis = number
	m.Valid = true
}

func (m FlexMillis) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Millis)
}

// IsZero lets omitzero drop unset values when re-encoding.
func (m FlexMillis) IsZero() bool { return !m.Valid }

// JSONSchema publishes FlexMillis as a plain number so the generator is
// never invited to send the garbage the decoder tolerates.
func (FlexMillis) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number"}
}
