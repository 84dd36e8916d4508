package scenes

// CharacterState is the derived per-tick read model for one character.
// Playback recomputes it every tick and reuses the backing instance, so
// consumers must treat it as valid only until the next tick.
type CharacterState struct {
	Character string

	Animation Animation
	Pose      Pose
	IsTalking bool

	// RevealedText is the prefix of the character's utterance revealed so
	// far, across all of its episodes.
	RevealedText string

	// HasStarted reports whether the character's first timeline has begun.
	HasStarted bool
	// IsComplete reports whether the character's last timeline has finished.
	IsComplete bool
}
