package orchestration

import (
	"testing"
	"time"
)

func TestNewSessionRequiresChannel(t *testing.T) {
	if _, err := NewSession(nil); err == nil {
		t.Fatalf("expected a session without a channel to be rejected")
	}
}

func TestNewSessionDefaults(t *testing.T) {
	session, err := NewSession(newScriptedChannel())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	if session.ID == "" {
		t.Fatalf("expected a generated session id")
	}
	if session.interruptPolicy != InterruptAlways {
		t.Fatalf("expected the always policy by default, got %q", session.interruptPolicy)
	}
	if !session.listening.Load() {
		t.Fatalf("expected sessions to start listening")
	}
	if session.historyLimit != defaultHistoryLimit {
		t.Fatalf("expected history limit %d, got %d", defaultHistoryLimit, session.historyLimit)
	}
	if session.config.dialogueTimeout != defaultDialogueTimeout {
		t.Fatalf("expected dialogue timeout %s, got %s", defaultDialogueTimeout, session.config.dialogueTimeout)
	}
	if session.config.chunkCapacity != defaultChunkCapacity {
		t.Fatalf("expected chunk capacity %d, got %d", defaultChunkCapacity, session.config.chunkCapacity)
	}
}

func TestSessionOptionsOverrideDefaults(t *testing.T) {
	session, err := NewSession(newScriptedChannel(),
		WithSessionID("gallery-kiosk-1"),
		WithInterruptPolicy(InterruptNever),
		WithHistoryLimit(4),
		WithDialogueTimeout(time.Second),
		WithStallTimeout(2*time.Second),
		WithChunkBufferCapacity(3),
		WithSegmentBufferCapacity(5),
		WithSynthesisFailureLimit(1),
		WithFrameRate(30),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	if session.ID != "gallery-kiosk-1" {
		t.Fatalf("expected the configured id, got %q", session.ID)
	}
	if session.interruptPolicy != InterruptNever {
		t.Fatalf("expected the never policy, got %q", session.interruptPolicy)
	}
	if session.historyLimit != 4 {
		t.Fatalf("expected history limit 4, got %d", session.historyLimit)
	}
	if session.config.dialogueTimeout != time.Second {
		t.Fatalf("expected dialogue timeout 1s, got %s", session.config.dialogueTimeout)
	}
	if session.config.stallTimeout != 2*time.Second {
		t.Fatalf("expected stall timeout 2s, got %s", session.config.stallTimeout)
	}
	if session.config.chunkCapacity != 3 || session.config.segmentCapacity != 5 {
		t.Fatalf("expected buffer capacities 3 and 5, got %d and %d",
			session.config.chunkCapacity, session.config.segmentCapacity)
	}
	if session.config.maxSynthesisFailures != 1 {
		t.Fatalf("expected synthesis failure limit 1, got %d", session.config.maxSynthesisFailures)
	}
	if session.config.frameRate != 30 {
		t.Fatalf("expected frame rate 30, got %d", session.config.frameRate)
	}
}

func TestHistoryLimitAppliesToConversation(t *testing.T) {
	session, err := NewSession(newScriptedChannel(), WithHistoryLimit(2))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	defer session.Close()

	if session.conversation.maxTurns != 2 {
		t.Fatalf("expected the conversation to carry the configured limit, got %d", session.conversation.maxTurns)
	}
}
