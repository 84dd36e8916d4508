package scenes

import "time"

// Default timeline shape used when the generator supplies text without any
// timeline steps: a short think beat, a talking stretch sized to the text,
// and a settle-down tail.
const (
	defaultThinkDuration = 1200 * time.Millisecond
	defaultTailDuration  = 800 * time.Millisecond

	// Talking time grows with text length, with a floor so one-word lines
	// do not flash by.
	perCharacterTalkTime   = 55 * time.Millisecond
	minimumTalkingDuration = 1500 * time.Millisecond
)

// SynthesizeTimeline builds the default three-step timeline for a character
// that has content but no explicit steps.
func SynthesizeTimeline(character, content string, startDelay time.Duration) Timeline {
	contentLength := UTF16Length(content)

	talkDuration := time.Duration(contentLength) * perCharacterTalkTime
	if talkDuration < minimumTalkingDuration {
		talkDuration = minimumTalkingDuration
	}
	talkDuration = ClampDuration(talkDuration)

	timeline := Timeline{
		Character:  character,
		Content:    content,
		StartDelay: startDelay,
		Segments: []Segment{
			{Animation: AnimationThink, Duration: defaultThinkDuration},
			{
				Animation: AnimationTalk,
				Duration:  talkDuration,
				IsTalking: true,
				TextRange: &TextRange{Start: 0, End: contentLength},
				Pose:      Pose{Mouth: MouthOpen},
			},
			{Animation: AnimationIdle, Duration: defaultTailDuration},
		},
	}
	timeline.Recalculate()
	return timeline
}
