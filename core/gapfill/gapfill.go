// Package gapfill synthesizes listening behavior for every participant a
// scene leaves undirected, so no character on screen is ever frozen while
// someone else talks.
package gapfill

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/copier"

	"github.com/koscakluka/scene-core/core/scenes"
)

const (
	// Listener reactions are cut into short beats so gaze and expression
	// can change while a long line plays out.
	minReactionDuration = 2 * time.Second
	maxReactionDuration = 3 * time.Second

	nodProbability      = 0.15
	smileProbability    = 0.10
	gapBlinkProbability = 0.30
)

type Options struct {
	random *rand.Rand
}

type Option func(*Options)

// WithRand injects the random source, so tests can feed a fixed seed.
func WithRand(random *rand.Rand) Option {
	return func(o *Options) {
		if random != nil {
			o.random = random
		}
	}
}

// speakerEvent is one stretch of one timeline during which somebody talks.
type speakerEvent struct {
	character string
	content   string
	start     time.Duration
	end       time.Duration
}

// FillNonSpeakers returns a copy of the scene augmented with a listening
// track for every participant that owns no timeline. The input scene is
// not modified.
//
// The participants slice doubles as the seating order: listeners look
// toward a speaker based on where the speaker sits relative to them.
func FillNonSpeakers(scene *scenes.Scene, participants []scenes.Participant, opts ...Option) *scenes.Scene {
	options := Options{random: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for _, opt := range opts {
		opt(&options)
	}

	augmented := &scenes.Scene{}
	if err := copier.CopyWithOption(augmented, scene, copier.Option{DeepCopy: true}); err != nil {
		// Copying a plain data tree cannot realistically fail; if it ever
		// does, augmenting in a fresh shell is still safer than mutating
		// the caller's scene.
		augmented = &scenes.Scene{ID: scene.ID, Timelines: scene.Timelines, Duration: scene.Duration}
	}
	if augmented.NonSpeakers == nil {
		augmented.NonSpeakers = map[string][]scenes.Segment{}
	}

	events := speakerEvents(scene)
	speaking := map[string]bool{}
	for i := range scene.Timelines {
		speaking[scene.Timelines[i].Character] = true
	}

	for index, participant := range participants {
		if speaking[participant.ID] {
			continue
		}
		augmented.NonSpeakers[participant.ID] = listeningTrack(
			participant, index, participants, events, scene.Duration, options.random,
		)
	}
	return augmented
}

// speakerEvents flattens the scene's timelines into sorted talk stretches.
func speakerEvents(scene *scenes.Scene) []speakerEvent {
	var events []speakerEvent
	for i := range scene.Timelines {
		timeline := &scene.Timelines[i]
		events = append(events, speakerEvent{
			character: timeline.Character,
			content:   timeline.Content,
			start:     timeline.StartDelay,
			end:       timeline.End(),
		})
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].start < events[j].start
	})
	return events
}

// listeningTrack covers [0, sceneDuration) for one listener: idle through
// the gaps, short reactions while someone talks, one final idle to the end.
func listeningTrack(
	listener scenes.Participant,
	seat int,
	participants []scenes.Participant,
	events []speakerEvent,
	sceneDuration time.Duration,
	random *rand.Rand,
) []scenes.Segment {
	var track []scenes.Segment
	cursor := time.Duration(0)

	for _, event := range events {
		if event.start > cursor {
			track = append(track, idleGap(event.start-cursor, random))
			cursor = event.start
		}
		if event.end <= cursor {
			// Fully overlapped by an earlier speaker; the listener is
			// already reacting through this stretch.
			continue
		}

		effectiveStart := cursor
		gaze := gazeToward(seat, seatOf(event.character, participants))
		mentioned := mentionsListener(event.content, listener)

		remaining := event.end - effectiveStart
		first := true
		for remaining > 0 {
			duration := reactionDuration(random)
			if duration > remaining {
				duration = remaining
			}
			track = append(track, reaction(gaze, mentioned && first, random, duration))
			remaining -= duration
			first = false
		}
		cursor = event.end
	}

	if cursor < sceneDuration {
		track = append(track, scenes.Segment{
			Animation: scenes.AnimationIdle,
			Duration:  sceneDuration - cursor,
		})
	}
	return track
}

func idleGap(duration time.Duration, random *rand.Rand) scenes.Segment {
	segment := scenes.Segment{
		Animation: scenes.AnimationIdle,
		Duration:  duration,
	}
	if random.Float64() < gapBlinkProbability {
		segment.Pose.BlinkAfter = time.Duration(random.Int63n(int64(duration) + 1))
	}
	return segment
}

// reaction builds one listener beat. Being mentioned by name wins over the
// random pool, but only on the first beat of the speaker's turn — leaning
// in for the whole line reads as looming.
func reaction(gaze scenes.Gaze, mentioned bool, random *rand.Rand, duration time.Duration) scenes.Segment {
	segment := scenes.Segment{
		Animation: scenes.AnimationIdle,
		Duration:  duration,
		Pose:      scenes.Pose{Gaze: gaze},
	}

	if mentioned {
		segment.Animation = scenes.AnimationLeanForward
		segment.Pose.Mouth = scenes.MouthSmile
		return segment
	}

	switch roll := random.Float64(); {
	case roll < nodProbability:
		segment.Animation = scenes.AnimationNod
	case roll < nodProbability+smileProbability:
		segment.Animation = scenes.AnimationSmile
	}
	return segment
}

func reactionDuration(random *rand.Rand) time.Duration {
	spread := int64(maxReactionDuration - minReactionDuration)
	return minReactionDuration + time.Duration(random.Int63n(spread+1))
}

func seatOf(character string, participants []scenes.Participant) int {
	for i, participant := range participants {
		if participant.ID == character {
			return i
		}
	}
	return -1
}

// gazeToward resolves a look direction from relative seating, not raw
// identifiers: whoever sits earlier in the order is to the listener's left.
func gazeToward(listenerSeat, speakerSeat int) scenes.Gaze {
	switch {
	case speakerSeat < 0 || speakerSeat == listenerSeat:
		return scenes.GazeCenter
	case speakerSeat < listenerSeat:
		return scenes.GazeLeft
	default:
		return scenes.GazeRight
	}
}

// mentionsListener reports whether the speaker's text names the listener.
func mentionsListener(content string, listener scenes.Participant) bool {
	name := strings.TrimSpace(listener.Name)
	if name == "" {
		name = listener.ID
	}
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(name))
}
