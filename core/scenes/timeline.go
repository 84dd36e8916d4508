package scenes

import "time"

// Participant identifies one character that can appear in a scene. ID is the
// stable identifier the application tracks characters by; Name is the
// display name the generator (and its text) refers to them with.
//
// The order participants are listed in is their seating order on screen,
// which gap filling uses to resolve look directions.
type Participant struct {
	ID   string
	Name string
}

// Timeline is one character's ordered segments for one turn.
type Timeline struct {
	// Character is the owning participant's ID.
	Character string

	// Content is the full utterance text revealed over the timeline.
	Content string

	// StartDelay is the offset from scene start at which this timeline
	// begins.
	StartDelay time.Duration

	// Duration is the total play time, always the exact sum of segment
	// durations. Use Recalculate after touching Segments.
	Duration time.Duration

	Segments []Segment
}

// Recalculate restores the Duration invariant from the current segments.
func (t *Timeline) Recalculate() {
	var total time.Duration
	for _, segment := range t.Segments {
		total += segment.Duration
	}
	t.Duration = total
}

// End returns the scene-relative time at which the timeline finishes.
func (t *Timeline) End() time.Duration {
	return t.StartDelay + t.Duration
}

// SegmentAt finds the segment containing the timeline-relative elapsed time,
// together with the elapsed time inside that segment. Returns nil once
// elapsed reaches or passes the timeline's duration.
func (t *Timeline) SegmentAt(elapsed time.Duration) (*Segment, time.Duration) {
	if elapsed < 0 || len(t.Segments) == 0 {
		return nil, 0
	}

	var cumulative time.Duration
	for i := range t.Segments {
		segmentEnd := cumulative + t.Segments[i].Duration
		if elapsed < segmentEnd {
			return &t.Segments[i], elapsed - cumulative
		}
		cumulative = segmentEnd
	}
	return nil, 0
}

// TalkingSegments returns the indices of talking segments in timeline order.
func (t *Timeline) TalkingSegments() []int {
	var indices []int
	for i := range t.Segments {
		if t.Segments[i].IsTalking {
			indices = append(indices, i)
		}
	}
	return indices
}
