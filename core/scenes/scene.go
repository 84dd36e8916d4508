package scenes

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Scene is the unit handed to playback: every character timeline for one
// generated turn plus the synthesized non-speaker tracks.
//
// A scene is immutable once handed to playback. Gap filling returns an
// augmented copy rather than mutating in place.
type Scene struct {
	ID string

	Timelines []Timeline

	// Duration is the overall scene length, at least the end time of the
	// latest timeline.
	Duration time.Duration

	// NonSpeakers maps participant ID to its synthesized listening track.
	// The segments carry no text and span the whole scene duration.
	NonSpeakers map[string][]Segment
}

// NewScene assembles a scene from timelines, sorts them by start delay and
// extends declared to cover the latest timeline if it falls short.
func NewScene(timelines []Timeline, declared time.Duration) *Scene {
	scene := &Scene{
		ID:          uuid.NewString(),
		Timelines:   timelines,
		Duration:    declared,
		NonSpeakers: map[string][]Segment{},
	}

	sort.SliceStable(scene.Timelines, func(i, j int) bool {
		return scene.Timelines[i].StartDelay < scene.Timelines[j].StartDelay
	})

	if end := scene.End(); end > scene.Duration {
		scene.Duration = end
	}
	return scene
}

// End returns the end time of the latest timeline.
func (s *Scene) End() time.Duration {
	var end time.Duration
	for i := range s.Timelines {
		if timelineEnd := s.Timelines[i].End(); timelineEnd > end {
			end = timelineEnd
		}
	}
	return end
}

// TimelinesFor returns the character's timelines in episode order. The
// returned slice aliases the scene's timelines and must not be modified.
func (s *Scene) TimelinesFor(character string) []*Timeline {
	var episodes []*Timeline
	for i := range s.Timelines {
		if s.Timelines[i].Character == character {
			episodes = append(episodes, &s.Timelines[i])
		}
	}
	return episodes
}

// Speakers returns the distinct characters owning at least one timeline, in
// first-appearance order.
func (s *Scene) Speakers() []string {
	var speakers []string
	seen := map[string]bool{}
	for i := range s.Timelines {
		if character := s.Timelines[i].Character; !seen[character] {
			seen[character] = true
			speakers = append(speakers, character)
		}
	}
	return speakers
}

// ContentFor returns the concatenated utterance text of the character's
// episodes, or "" when the character does not speak in the scene.
func (s *Scene) ContentFor(character string) string {
	content := ""
	for i := range s.Timelines {
		if s.Timelines[i].Character == character {
			if content != "" {
				content += " "
			}
			content += s.Timelines[i].Content
		}
	}
	return content
}
