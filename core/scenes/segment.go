package scenes

import "time"

// Animation is a named full-body pose the renderer knows how to play.
type Animation string

const (
	AnimationIdle        Animation = "idle"
	AnimationTalk        Animation = "talk"
	AnimationThink       Animation = "think"
	AnimationNod         Animation = "nod"
	AnimationSmile       Animation = "smile"
	AnimationLaugh       Animation = "laugh"
	AnimationLeanForward Animation = "lean_forward"
	AnimationSurprised   Animation = "surprised"
	AnimationWave        Animation = "wave"
	AnimationShrug       Animation = "shrug"
)

// Animations lists every playable animation, used for tolerant matching of
// generator output.
var Animations = []Animation{
	AnimationIdle,
	AnimationTalk,
	AnimationThink,
	AnimationNod,
	AnimationSmile,
	AnimationLaugh,
	AnimationLeanForward,
	AnimationSurprised,
	AnimationWave,
	AnimationShrug,
}

// Gaze is a look direction. The zero value means "no change".
type Gaze string

const (
	GazeLeft   Gaze = "left"
	GazeRight  Gaze = "right"
	GazeCenter Gaze = "center"
	GazeUp     Gaze = "up"
	GazeDown   Gaze = "down"
	GazeAway   Gaze = "away"
)

var Gazes = []Gaze{GazeLeft, GazeRight, GazeCenter, GazeUp, GazeDown, GazeAway}

// EyeState is an eye pose. The zero value means "no change".
type EyeState string

const (
	EyesOpen     EyeState = "open"
	EyesClosed   EyeState = "closed"
	EyesWide     EyeState = "wide"
	EyesNarrowed EyeState = "narrowed"
)

var EyeStates = []EyeState{EyesOpen, EyesClosed, EyesWide, EyesNarrowed}

// MouthState is a mouth pose. The zero value means "no change".
type MouthState string

const (
	MouthClosed MouthState = "closed"
	MouthOpen   MouthState = "open"
	MouthSmile  MouthState = "smile"
	MouthFrown  MouthState = "frown"
)

var MouthStates = []MouthState{MouthClosed, MouthOpen, MouthSmile, MouthFrown}

// BrowState is an eyebrow pose. The zero value means "no change".
type BrowState string

const (
	BrowsNeutral  BrowState = "neutral"
	BrowsRaised   BrowState = "raised"
	BrowsFurrowed BrowState = "furrowed"
)

var BrowStates = []BrowState{BrowsNeutral, BrowsRaised, BrowsFurrowed}

// Effect is a visual accent rendered next to the character. The zero value
// means none.
type Effect string

const (
	EffectSweatDrop   Effect = "sweat_drop"
	EffectBlush       Effect = "blush"
	EffectSparkle     Effect = "sparkle"
	EffectQuestion    Effect = "question_mark"
	EffectExclamation Effect = "exclamation_mark"
)

var Effects = []Effect{EffectSweatDrop, EffectBlush, EffectSparkle, EffectQuestion, EffectExclamation}

// Segment duration band. Generator-supplied durations outside the band are
// clamped, not rejected, so a wild value costs at most a slow or snappy
// segment instead of a failed scene.
const (
	MinSegmentDuration     = 100 * time.Millisecond
	MaxSegmentDuration     = 30 * time.Second
	DefaultSegmentDuration = 2 * time.Second
)

// ClampDuration forces d into the playable band.
func ClampDuration(d time.Duration) time.Duration {
	if d < MinSegmentDuration {
		return MinSegmentDuration
	}
	if d > MaxSegmentDuration {
		return MaxSegmentDuration
	}
	return d
}

// Pose bundles the complementary state a segment can carry alongside its
// animation. Zero-valued fields mean "no change" and inherit whatever the
// character was already doing.
type Pose struct {
	Gaze   Gaze
	Eyes   EyeState
	Mouth  MouthState
	Brows  BrowState
	Effect Effect

	// Speed scales the animation clip rate. 0 means unset.
	Speed float64

	// BlinkAfter schedules a single blink this far into the segment.
	// 0 means no scheduled blink.
	BlinkAfter time.Duration
}

// MergeOver layers p on top of base, keeping base values wherever p leaves a
// field unset.
func (p Pose) MergeOver(base Pose) Pose {
	merged := base
	if p.Gaze != "" {
		merged.Gaze = p.Gaze
	}
	if p.Eyes != "" {
		merged.Eyes = p.Eyes
	}
	if p.Mouth != "" {
		merged.Mouth = p.Mouth
	}
	if p.Brows != "" {
		merged.Brows = p.Brows
	}
	if p.Effect != "" {
		merged.Effect = p.Effect
	}
	if p.Speed != 0 {
		merged.Speed = p.Speed
	}
	if p.BlinkAfter != 0 {
		merged.BlinkAfter = p.BlinkAfter
	}
	return merged
}

// TextRange is a half-open [Start, End) span into the owning timeline's
// content, in UTF-16 code units.
type TextRange struct {
	Start int
	End   int
}

// Len returns the number of code units the range covers.
func (r TextRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Segment is one atomic timed instruction for one character.
type Segment struct {
	Animation Animation
	Duration  time.Duration
	Pose      Pose
	IsTalking bool

	// TextRange is the portion of the timeline's content revealed across
	// this segment. Only meaningful on talking segments; nil when the
	// segment reveals nothing.
	TextRange *TextRange

	// Voice overrides the character's baseline voice for this segment.
	Voice *VoiceDirective
}

// VoiceDirective adjusts how a segment's text is delivered. Empty fields
// fall through to the character's baseline profile.
type VoiceDirective struct {
	Pitch  string
	Pace   string
	Volume string
	Mood   string
}
