// Package scripted supplies the canned scenes playback falls back on when
// a response cannot be parsed at all. The lines are deliberately generic
// and clearly non-custom; the one thing they guarantee is that the user
// never sees a crash or a frozen stage.
package scripted

import (
	"sync/atomic"

	"github.com/koscakluka/scene-core/core/scenes"
)

var fallbackLines = []string{
	"Hm, give me a moment to collect my thoughts...",
	"Sorry, I lost my train of thought. Where were we?",
	"Let me think about that for a second.",
}

var nextLine atomic.Uint64

// Fallback builds a short scripted scene for the given participants. The
// first participant delivers one of the canned lines, rotating through the
// pool so back-to-back failures do not repeat; everyone else is left for
// gap filling. Returns a scene that immediately completes when no
// participants are known.
func Fallback(participants []scenes.Participant) *scenes.Scene {
	if len(participants) == 0 {
		return scenes.NewScene(nil, 0)
	}

	line := fallbackLines[nextLine.Add(1)%uint64(len(fallbackLines))]
	timeline := scenes.SynthesizeTimeline(participants[0].ID, line, 0)
	return scenes.NewScene([]scenes.Timeline{timeline}, 0)
}
