package orchestration

import (
	"time"

	"github.com/koscakluka/scene-core/core/scenes"
	"github.com/koscakluka/scene-core/core/voice"
)

// Tick advances playback to the current clock reading. It is meant to be
// called from a rendering-loop callback; calling it in any other state is
// a no-op. A tick arriving before the wall clock has moved a millisecond
// reuses the previously computed state.
func (e *Engine) Tick() {
	if e.status != StatusPlaying || e.scene == nil {
		return
	}

	now := e.clock()
	if !e.lastTickAt.IsZero() && now.Sub(e.lastTickAt) < minTickDelta {
		return
	}
	e.lastTickAt = now

	elapsed := now.Sub(e.startedAt)
	if elapsed >= e.scene.Duration {
		e.computeStates(e.scene.Duration)
		e.status = StatusComplete
		// One final notification so consumers see the settled end state.
		e.notify()
		return
	}

	e.computeStates(elapsed)
	if now.Sub(e.lastNotifyAt) >= notifyInterval {
		e.notifyAt(now)
	}
}

// computeStates recomputes every character's derived state for the given
// scene-relative elapsed time, mutating the shared state map in place.
func (e *Engine) computeStates(elapsed time.Duration) {
	if e.scene == nil {
		return
	}

	for _, character := range e.scene.Speakers() {
		e.computeSpeaker(character, elapsed)
	}
	for character := range e.scene.NonSpeakers {
		e.computeListener(character, elapsed)
	}
}

func (e *Engine) stateFor(character string) *scenes.CharacterState {
	state, ok := e.states[character]
	if !ok {
		state = &scenes.CharacterState{Character: character}
		e.states[character] = state
	}
	return state
}

// computeSpeaker derives one speaking character's state across all of its
// episodes. When no episode contains the elapsed time, the most recently
// completed one persists so the character holds its settled end state
// instead of snapping to idle.
func (e *Engine) computeSpeaker(character string, elapsed time.Duration) {
	episodes := e.scene.TimelinesFor(character)
	state := e.stateFor(character)

	if len(episodes) == 0 {
		return
	}

	activeIndex := -1
	lastDoneIndex := -1
	for i, episode := range episodes {
		if elapsed >= episode.StartDelay && elapsed < episode.End() {
			activeIndex = i
			break
		}
		if elapsed >= episode.End() {
			lastDoneIndex = i
		}
	}

	state.HasStarted = elapsed >= episodes[0].StartDelay
	state.IsComplete = elapsed >= episodes[len(episodes)-1].End()
	state.IsTalking = false

	if activeIndex == -1 && lastDoneIndex == -1 {
		// Nothing has happened for this character yet.
		state.Animation = scenes.AnimationIdle
		state.Pose = scenes.Pose{}
		state.RevealedText = ""
		return
	}

	if activeIndex == -1 {
		e.settleAfterSpeech(state, episodes, lastDoneIndex)
		return
	}

	episode := episodes[activeIndex]
	relative := elapsed - episode.StartDelay
	segment, inSegment := episode.SegmentAt(relative)
	if segment == nil {
		e.settleAfterSpeech(state, episodes, activeIndex)
		return
	}

	state.Animation = segment.Animation
	state.IsTalking = segment.IsTalking
	state.Pose = mergedPoseThrough(episode, segment)

	directive := voice.Merge(segment.Voice, e.baselines[character])
	e.voices[character] = directive

	boundary := e.revealBoundary(character, activeIndex, episode, segment, inSegment, directive)
	state.RevealedText = joinRevealed(episodes, activeIndex, scenes.CutUTF16(episode.Content, 0, boundary))
}

// settleAfterSpeech holds a character in its post-speech end state: the
// timeline's merged final pose plus one expression picked from a weighted
// pool and cached per character, so the choice never flickers between
// ticks.
func (e *Engine) settleAfterSpeech(state *scenes.CharacterState, episodes []*scenes.Timeline, doneIndex int) {
	episode := episodes[doneIndex]

	expression, ok := e.postSpeech[state.Character]
	if !ok {
		expression = e.pickPostSpeechExpression()
		e.postSpeech[state.Character] = expression
	}

	state.Animation = expression
	state.Pose = mergedPoseThrough(episode, nil)
	state.RevealedText = joinRevealed(episodes, doneIndex, episode.Content)
	delete(e.voices, state.Character)
}

// postSpeechPool weights the expressions a character can settle on after
// finishing a line. Idle dominates; the rest keep scene endings from
// looking identical.
var postSpeechPool = []scenes.Animation{
	scenes.AnimationIdle, scenes.AnimationIdle, scenes.AnimationIdle,
	scenes.AnimationSmile, scenes.AnimationSmile,
	scenes.AnimationThink,
}

func (e *Engine) pickPostSpeechExpression() scenes.Animation {
	return postSpeechPool[e.random.Intn(len(postSpeechPool))]
}

// mergedPoseThrough layers segment poses from the start of the timeline up
// to and including the given segment (or the whole timeline when segment
// is nil), so unset fields inherit what the character was already doing.
func mergedPoseThrough(timeline *scenes.Timeline, segment *scenes.Segment) scenes.Pose {
	merged := scenes.Pose{}
	for i := range timeline.Segments {
		merged = timeline.Segments[i].Pose.MergeOver(merged)
		if segment != nil && &timeline.Segments[i] == segment {
			break
		}
	}
	return merged
}

// revealBoundary computes how many code units of the episode's content are
// revealed. Within a reveal-bearing segment the range is interpolated
// linearly by segment progress scaled by the voice pace; outside one, the
// last fully revealed boundary carries forward. The stored high-water mark
// keeps reveal monotonic.
func (e *Engine) revealBoundary(
	character string,
	episodeIndex int,
	episode *scenes.Timeline,
	current *scenes.Segment,
	inSegment time.Duration,
	directive scenes.VoiceDirective,
) int {
	boundary := 0
	for i := range episode.Segments {
		segment := &episode.Segments[i]
		if segment == current {
			if segment.TextRange != nil && segment.Duration > 0 {
				progress := float64(inSegment) / float64(segment.Duration)
				progress *= voice.PaceMultiplier(directive)
				if progress > 1 {
					progress = 1
				}
				if progress < 0 {
					progress = 0
				}
				partial := segment.TextRange.Start + int(progress*float64(segment.TextRange.Len()))
				if partial > boundary {
					boundary = partial
				}
			}
			break
		}
		if segment.TextRange != nil && segment.TextRange.End > boundary {
			boundary = segment.TextRange.End
		}
	}

	mark := e.revealed[character]
	if mark.episode == episodeIndex && mark.boundary > boundary {
		boundary = mark.boundary
	}
	e.revealed[character] = revealMark{episode: episodeIndex, boundary: boundary}
	return boundary
}

// joinRevealed concatenates the fully revealed content of episodes before
// the given one with the current episode's revealed portion.
func joinRevealed(episodes []*scenes.Timeline, index int, current string) string {
	revealed := ""
	for i := 0; i < index; i++ {
		if revealed != "" {
			revealed += " "
		}
		revealed += episodes[i].Content
	}
	if current != "" {
		if revealed != "" {
			revealed += " "
		}
		revealed += current
	}
	return revealed
}

// computeListener derives a non-speaking character's state from its
// synthesized track: same per-segment lookup as speakers, minus text
// reveal.
func (e *Engine) computeListener(character string, elapsed time.Duration) {
	track := e.scene.NonSpeakers[character]
	state := e.stateFor(character)

	state.HasStarted = len(track) > 0
	state.IsComplete = elapsed >= e.scene.Duration
	state.IsTalking = false
	state.RevealedText = ""

	merged := scenes.Pose{}
	var cumulative time.Duration
	animation := scenes.AnimationIdle
	for i := range track {
		segmentEnd := cumulative + track[i].Duration
		merged = track[i].Pose.MergeOver(merged)
		animation = track[i].Animation
		if elapsed < segmentEnd {
			break
		}
		cumulative = segmentEnd
	}

	state.Animation = animation
	state.Pose = merged
}
