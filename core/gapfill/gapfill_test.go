package gapfill

import (
	"math/rand"
	"testing"
	"time"

	"github.com/koscakluka/scene-core/core/scenes"
)

var participants = []scenes.Participant{
	{ID: "mira", Name: "Mira"},
	{ID: "lena", Name: "Lena"},
	{ID: "tomas", Name: "Tomas"},
}

func testScene(content string) *scenes.Scene {
	timeline := scenes.SynthesizeTimeline("mira", content, 2*time.Second)
	return scenes.NewScene([]scenes.Timeline{timeline}, 12*time.Second)
}

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func trackDuration(track []scenes.Segment) time.Duration {
	var total time.Duration
	for _, segment := range track {
		total += segment.Duration
	}
	return total
}

func TestFillCoversEveryNonSpeakerForTheWholeScene(t *testing.T) {
	scene := testScene("Just a line.")

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	if _, speaking := filled.NonSpeakers["mira"]; speaking {
		t.Fatal("expected the speaker to get no listening track")
	}
	for _, listener := range []string{"lena", "tomas"} {
		track, ok := filled.NonSpeakers[listener]
		if !ok {
			t.Fatalf("expected a track for %s", listener)
		}
		if got := trackDuration(track); got != scene.Duration {
			t.Fatalf("expected %s's track to span %v, got %v", listener, scene.Duration, got)
		}
	}
}

func TestFillDoesNotMutateTheInputScene(t *testing.T) {
	scene := testScene("Just a line.")

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	if len(scene.NonSpeakers) != 0 {
		t.Fatalf("expected input scene untouched, found %d tracks", len(scene.NonSpeakers))
	}
	if len(filled.NonSpeakers) != 2 {
		t.Fatalf("expected 2 tracks on the copy, got %d", len(filled.NonSpeakers))
	}
	if filled.ID != scene.ID {
		t.Fatal("expected the augmented copy to keep the scene id")
	}
}

func TestListenersFaceTheSpeakerBySeatingOrder(t *testing.T) {
	scene := testScene("Just a line.")

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	// Mira sits first; both listeners sit after her, so both look left.
	for _, listener := range []string{"lena", "tomas"} {
		track := filled.NonSpeakers[listener]
		facing := false
		for _, segment := range track {
			if segment.Pose.Gaze == scenes.GazeLeft {
				facing = true
			}
			if segment.Pose.Gaze == scenes.GazeRight {
				t.Fatalf("%s sits right of the speaker and should never look right at them", listener)
			}
		}
		if !facing {
			t.Fatalf("expected %s to face the speaker at some point", listener)
		}
	}
}

func TestMentionedListenerLeansInAtTurnStart(t *testing.T) {
	scene := testScene("Lena, you need to hear this.")

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	track := filled.NonSpeakers["lena"]
	var firstReaction *scenes.Segment
	for i := range track {
		if track[i].Pose.Gaze != "" {
			firstReaction = &track[i]
			break
		}
	}
	if firstReaction == nil {
		t.Fatal("expected at least one reaction segment")
	}
	if firstReaction.Animation != scenes.AnimationLeanForward {
		t.Fatalf("expected mentioned listener to lean forward, got %s", firstReaction.Animation)
	}
	if firstReaction.Pose.Mouth != scenes.MouthSmile {
		t.Fatalf("expected a smile with the lean, got %q", firstReaction.Pose.Mouth)
	}

	// Only the first beat of the turn leans in.
	leans := 0
	for _, segment := range track {
		if segment.Animation == scenes.AnimationLeanForward {
			leans++
		}
	}
	if leans != 1 {
		t.Fatalf("expected exactly one lean-forward beat, got %d", leans)
	}

	// Tomas is not mentioned and must not lean in.
	for _, segment := range filled.NonSpeakers["tomas"] {
		if segment.Animation == scenes.AnimationLeanForward {
			t.Fatal("expected unmentioned listener not to lean forward")
		}
	}
}

func TestReactionBeatsStayWithinBounds(t *testing.T) {
	scene := testScene("A fairly long line of dialogue so several reaction beats fit in.")

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	for _, segment := range filled.NonSpeakers["lena"] {
		if segment.Pose.Gaze == "" {
			continue // gap or trailing idle
		}
		if segment.Duration > maxReactionDuration {
			t.Fatalf("expected reaction beats of at most %v, got %v", maxReactionDuration, segment.Duration)
		}
	}
}

func TestDeterministicWithFixedSeed(t *testing.T) {
	scene := testScene("Just a line.")

	first := FillNonSpeakers(scene, participants, WithRand(fixedRand()))
	second := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	for _, listener := range []string{"lena", "tomas"} {
		a, b := first.NonSpeakers[listener], second.NonSpeakers[listener]
		if len(a) != len(b) {
			t.Fatalf("expected identical tracks for %s, got %d vs %d segments", listener, len(a), len(b))
		}
		for i := range a {
			if a[i].Animation != b[i].Animation || a[i].Duration != b[i].Duration {
				t.Fatalf("expected identical segment %d for %s", i, listener)
			}
		}
	}
}

func TestSceneWithNoSpeakersGetsIdleTracks(t *testing.T) {
	scene := scenes.NewScene(nil, 5*time.Second)

	filled := FillNonSpeakers(scene, participants, WithRand(fixedRand()))

	for _, participant := range participants {
		track := filled.NonSpeakers[participant.ID]
		if got := trackDuration(track); got != 5*time.Second {
			t.Fatalf("expected %s's idle track to span the scene, got %v", participant.ID, got)
		}
	}
}
