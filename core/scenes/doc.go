// Package scenes defines the data model shared by response parsing, gap
// filling and playback.
//
// Vocabulary used across the package:
//
//   - Segment: one atomic timed animation instruction for one character.
//   - Timeline: one character's ordered segments for one turn, with the
//     full utterance text and a start delay relative to scene start.
//   - Scene: the unit handed to playback, holding every timeline plus the
//     synthesized non-speaker tracks.
//   - Episode: when a character owns more than one timeline in a scene,
//     the timelines are ordered by start delay and treated as sequential
//     episodes for that character.
//   - CharacterState: the derived per-tick read model. Recomputed, never
//     persisted.
//
// Text-reveal ranges are half-open [Start, End) index pairs into the
// owning timeline's content, measured in UTF-16 code units because that is
// what the upstream generator counts in.
package scenes
