// Package orchestration drives scene playback: given a parsed scene and a
// frame clock, it answers "what is every character doing right now" and
// "how much of each character's text is revealed".
//
// The engine is single-threaded by design. It is driven cooperatively by a
// periodic Tick from whatever owns the rendering loop; nothing inside it
// blocks, spawns, or locks. The scene reference is owned exclusively by
// the engine while playing; consumers only read derived state through the
// query methods.
package orchestration

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/scene-core/core/scenes"
	"github.com/koscakluka/scene-core/core/voice"
)

// Status is the engine's playback state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

const (
	// notifyInterval throttles subscriber updates to a ~60fps budget no
	// matter how fast the driving clock ticks.
	notifyInterval = 16 * time.Millisecond

	// minTickDelta skips recomputation entirely when the driving clock
	// ticks again before the wall clock has meaningfully moved.
	minTickDelta = time.Millisecond
)

// Engine is the playback scheduler. Construct with NewEngine and pass by
// reference to whatever owns the UI lifecycle; one engine plays at most
// one scene at a time.
type Engine struct {
	status Status
	scene  *scenes.Scene

	clock     func() time.Time
	random    *rand.Rand
	baselines map[string]*scenes.VoiceDirective

	startedAt     time.Time
	pausedElapsed time.Duration

	// states is mutated and reused across ticks rather than reallocated.
	states map[string]*scenes.CharacterState
	voices map[string]scenes.VoiceDirective

	// postSpeech caches the expression picked when a character's speech
	// completes, so repeated ticks do not flicker through the pool.
	postSpeech map[string]scenes.Animation

	// revealed carries each character's high-water reveal boundary so
	// reveal never moves backwards within an episode.
	revealed map[string]revealMark

	subscribers subscriberSet

	lastTickAt   time.Time
	lastNotifyAt time.Time
}

type revealMark struct {
	episode  int
	boundary int
}

type EngineOption func(*Engine)

// WithClock replaces the wall clock, so tests can drive elapsed time
// deterministically.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithRand injects the random source used for the post-speech expression
// pick.
func WithRand(random *rand.Rand) EngineOption {
	return func(e *Engine) {
		if random != nil {
			e.random = random
		}
	}
}

// WithBaselineVoice sets a character's baseline vocal profile. Segment
// directives win over it field-by-field; it wins over the neutral default.
func WithBaselineVoice(character string, directive scenes.VoiceDirective) EngineOption {
	return func(e *Engine) {
		e.baselines[character] = &directive
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	engine := &Engine{
		status:     StatusIdle,
		clock:      time.Now,
		random:     rand.New(rand.NewSource(time.Now().UnixNano())),
		baselines:  map[string]*scenes.VoiceDirective{},
		states:     map[string]*scenes.CharacterState{},
		voices:     map[string]scenes.VoiceDirective{},
		postSpeech: map[string]scenes.Animation{},
		revealed:   map[string]revealMark{},
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Play starts the scene, stopping any prior playback first so two scenes
// never overlap. A scene with nothing to play completes immediately.
func (e *Engine) Play(ctx context.Context, scene *scenes.Scene) {
	_, span := tracer.Start(ctx, "play scene", trace.WithAttributes(
		attribute.String("scene.id", scene.ID),
		attribute.Int("scene.timelines", len(scene.Timelines)),
		attribute.Int64("scene.duration_ms", scene.Duration.Milliseconds()),
	))
	defer span.End()

	e.Stop()

	e.scene = scene
	e.startedAt = e.clock()
	e.pausedElapsed = 0
	e.lastTickAt = time.Time{}
	e.lastNotifyAt = time.Time{}
	e.status = StatusPlaying

	if len(scene.Timelines) == 0 && len(scene.NonSpeakers) == 0 {
		e.status = StatusComplete
		e.notify()
		return
	}

	e.computeStates(0)
	e.notify()
}

// Pause freezes elapsed-time bookkeeping. Pausing while not playing is a
// no-op, since UI races make that call ordering routine.
func (e *Engine) Pause() {
	if e.status != StatusPlaying {
		return
	}
	e.pausedElapsed = e.clock().Sub(e.startedAt)
	e.status = StatusPaused
	e.notify()
}

// Resume continues from the paused offset, however much real time passed
// in between. Resuming while not paused is a no-op.
func (e *Engine) Resume() {
	if e.status != StatusPaused {
		return
	}
	e.startedAt = e.clock().Add(-e.pausedElapsed)
	e.status = StatusPlaying
	e.notify()
}

// Stop discards the scene and all derived caches and reports an idle state
// to subscribers. Safe to call from any state, idempotent.
func (e *Engine) Stop() {
	if e.status == StatusIdle && e.scene == nil {
		return
	}

	e.scene = nil
	e.pausedElapsed = 0
	clear(e.states)
	clear(e.voices)
	clear(e.postSpeech)
	clear(e.revealed)
	e.status = StatusIdle
	e.notify()
}

// Status returns the current playback state.
func (e *Engine) Status() Status {
	return e.status
}

// Elapsed returns the current playback offset into the scene.
func (e *Engine) Elapsed() time.Duration {
	switch e.status {
	case StatusPlaying:
		return e.clock().Sub(e.startedAt)
	case StatusPaused:
		return e.pausedElapsed
	case StatusComplete:
		if e.scene != nil {
			return e.scene.Duration
		}
	}
	return 0
}

// CurrentStates returns the per-character derived states for the last
// computed tick. The map and its entries are reused across ticks; callers
// must read, not hold or mutate.
func (e *Engine) CurrentStates() map[string]*scenes.CharacterState {
	return e.states
}

// RevealedText returns the portion of the character's text revealed so
// far, or "" for characters that do not speak in the scene.
func (e *Engine) RevealedText(character string) string {
	if state, ok := e.states[character]; ok {
		return state.RevealedText
	}
	return ""
}

// FullText returns the character's complete utterance text for the current
// scene.
func (e *Engine) FullText(character string) string {
	if e.scene == nil {
		return ""
	}
	return e.scene.ContentFor(character)
}

// CurrentVoice returns the character's effective voice directive at the
// last computed tick, bottoming out on the baseline merge when the
// character has no active segment.
func (e *Engine) CurrentVoice(character string) scenes.VoiceDirective {
	if directive, ok := e.voices[character]; ok {
		return directive
	}
	return voice.Merge(nil, e.baselines[character])
}
