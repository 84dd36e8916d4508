package responses

import (
	"encoding/json"

	"github.com/koscakluka/scene-core/core/generation"
)

// The compact dialect abbreviates every key to cut token cost on the
// generation side. It is detected by shape (a top-level "c" array whose
// entries carry "n"/"t"), not by a version tag, because the upstream
// generator's format is not under this subsystem's control. The dialect is
// expanded to the verbose shape here and never leaks past the parser.

type compactScene struct {
	Why        string                `json:"why,omitempty"`
	Duration   generation.FlexMillis `json:"d,omitzero"`
	Characters []compactCharacter    `json:"c"`
}

type compactCharacter struct {
	Name     string                `json:"n"`
	Text     string                `json:"t"`
	Delay    generation.FlexMillis `json:"dl,omitzero"`
	Timeline []compactStep         `json:"tl,omitempty"`
	Voice    *compactVoice         `json:"v,omitempty"`
}

type compactStep struct {
	Animation string                `json:"a"`
	Duration  generation.FlexMillis `json:"d,omitzero"`
	Talking   flexBool              `json:"k,omitempty"`
	Range     []int                 `json:"r,omitempty"`
	Gaze      string                `json:"g,omitempty"`
	Eyes      string                `json:"e,omitempty"`
	Mouth     string                `json:"m,omitempty"`
	Brows     string                `json:"b,omitempty"`
	Effect    string                `json:"fx,omitempty"`
	Speed     float64               `json:"s,omitempty"`
	BlinkAt   float64               `json:"bl,omitempty"`
	Voice     *compactVoice         `json:"v,omitempty"`
}

type compactVoice struct {
	Pitch  string `json:"p,omitempty"`
	Pace   string `json:"c,omitempty"`
	Volume string `json:"v,omitempty"`
	Mood   string `json:"m,omitempty"`
}

// flexBool accepts true/false, 1/0 and "1"/"true", since the compact
// dialect's talking flag shows up in all three spellings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	*b = false

	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		*b = flexBool(asBool)
		return nil
	}

	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*b = asNumber != 0
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*b = asString == "1" || asString == "true"
	}
	return nil
}

// looksCompact sniffs the compact shape without fully decoding: a "c"
// array with "n"/"t" keyed entries and no verbose "characters" key.
func looksCompact(doc []byte) bool {
	var probe struct {
		Characters json.RawMessage              `json:"characters"`
		C          []map[string]json.RawMessage `json:"c"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return false
	}
	if probe.Characters != nil || len(probe.C) == 0 {
		return false
	}

	first := probe.C[0]
	_, hasName := first["n"]
	_, hasText := first["t"]
	return hasName || hasText
}

// expandCompact rewrites a compact document into the verbose shape.
func expandCompact(doc []byte) (*generation.SceneResponse, error) {
	var compact compactScene
	if err := json.Unmarshal(doc, &compact); err != nil {
		return nil, err
	}

	response := &generation.SceneResponse{
		Reasoning: compact.Why,
		Duration:  compact.Duration,
	}
	for _, character := range compact.Characters {
		entry := generation.CharacterEntry{
			Name:  character.Name,
			Text:  character.Text,
			Delay: character.Delay,
			Voice: character.Voice.expand(),
		}
		for _, step := range character.Timeline {
			entry.Timeline = append(entry.Timeline, generation.TimelineStep{
				Animation: step.Animation,
				Duration:  step.Duration,
				Talking:   bool(step.Talking),
				TextRange: step.Range,
				Gaze:      step.Gaze,
				Eyes:      step.Eyes,
				Mouth:     step.Mouth,
				Brows:     step.Brows,
				Effect:    step.Effect,
				Speed:     step.Speed,
				BlinkAt:   step.BlinkAt,
				Voice:     step.Voice.expand(),
			})
		}
		response.Characters = append(response.Characters, entry)
	}
	return response, nil
}

func (v *compactVoice) expand() *generation.VoiceDirective {
	if v == nil {
		return nil
	}
	return &generation.VoiceDirective{
		Pitch:  v.Pitch,
		Pace:   v.Pace,
		Volume: v.Volume,
		Mood:   v.Mood,
	}
}
