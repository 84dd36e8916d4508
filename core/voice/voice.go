// Package voice maps qualitative voice directives onto the numbers playback
// needs. It is deliberately free of state so the pace arithmetic stays out
// of the scheduler and under test on its own.
package voice

import "github.com/koscakluka/scene-core/core/scenes"

// Recognized label values. Anything else is treated as unset and falls
// through to the next layer of the merge.
const (
	PaceSlow   = "slow"
	PaceNormal = "normal"
	PaceFast   = "fast"

	PitchLow    = "low"
	PitchNormal = "normal"
	PitchHigh   = "high"

	VolumeQuiet  = "quiet"
	VolumeNormal = "normal"
	VolumeLoud   = "loud"
)

// Neutral is the hardcoded default every merge bottoms out on.
var Neutral = scenes.VoiceDirective{
	Pitch:  PitchNormal,
	Pace:   PaceNormal,
	Volume: VolumeNormal,
	Mood:   "calm",
}

// Merge resolves the effective directive for a segment: segment values win
// field-by-field over the character baseline, the baseline wins over
// Neutral. Either input may be nil.
func Merge(segment, baseline *scenes.VoiceDirective) scenes.VoiceDirective {
	merged := Neutral
	for _, layer := range []*scenes.VoiceDirective{baseline, segment} {
		if layer == nil {
			continue
		}
		if layer.Pitch != "" {
			merged.Pitch = layer.Pitch
		}
		if layer.Pace != "" {
			merged.Pace = layer.Pace
		}
		if layer.Volume != "" {
			merged.Volume = layer.Volume
		}
		if layer.Mood != "" {
			merged.Mood = layer.Mood
		}
	}
	return merged
}

// Pace multipliers scale perceived text-reveal speed, not segment
// scheduling, so scene-duration arithmetic stays precomputable.
const (
	slowMultiplier   = 0.75
	normalMultiplier = 1.0
	fastMultiplier   = 1.35
)

// PaceMultiplier converts a directive's pace label to the reveal-speed
// factor. Unknown or unset labels read as normal.
func PaceMultiplier(directive scenes.VoiceDirective) float64 {
	switch directive.Pace {
	case PaceSlow:
		return slowMultiplier
	case PaceFast:
		return fastMultiplier
	default:
		return normalMultiplier
	}
}
