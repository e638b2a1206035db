package orchestration

import (
	"testing"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
)

func TestConversationAppendsCompletedExchange(t *testing.T) {
	conversation := newConversation(8)

	turn := newActiveTurn("how are you")
	if err := conversation.startTurn(turn); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.finishTurn(turn, "how are you", "doing great")

	if got := conversation.currentTurn(); got != nil {
		t.Fatalf("expected no active turn after finishing, got %v", got)
	}

	history := conversation.History()
	if len(history) != 2 {
		t.Fatalf("expected both halves of the exchange, got %d entries", len(history))
	}
	if history[0].Role != dialogue.RoleUser || history[0].Text != "how are you" {
		t.Fatalf("unexpected user entry: %+v", history[0])
	}
	if history[1].Role != dialogue.RoleAgent || history[1].Text != "doing great" {
		t.Fatalf("unexpected agent entry: %+v", history[1])
	}
	if conversation.turnCount() != 2 {
		t.Fatalf("expected turn count 2, got %d", conversation.turnCount())
	}
}

func TestConversationRejectsSecondActiveTurn(t *testing.T) {
	conversation := newConversation(8)

	first := newActiveTurn("first")
	if err := conversation.startTurn(first); err != nil {
		t.Fatalf("expected first turn to start, got %v", err)
	}

	second := newActiveTurn("second")
	if err := conversation.startTurn(second); err == nil {
		t.Fatalf("expected a second active turn to be rejected")
	}

	conversation.finishTurn(first, "first", "done")
	if err := conversation.startTurn(second); err != nil {
		t.Fatalf("expected the turn to start once the first finished, got %v", err)
	}
}

func TestConversationDirectSpeechAppendsAgentOnly(t *testing.T) {
	conversation := newConversation(8)

	turn := newActiveTurn("Welcome!")
	if err := conversation.startTurn(turn); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.finishTurn(turn, "", "Welcome!")

	history := conversation.History()
	if len(history) != 1 || history[0].Role != dialogue.RoleAgent || history[0].Text != "Welcome!" {
		t.Fatalf("expected a lone agent entry, got %v", history)
	}
}

func TestConversationExchangeWithoutReplyAppendsNothing(t *testing.T) {
	conversation := newConversation(8)

	turn := newActiveTurn("interrupted immediately")
	if err := conversation.startTurn(turn); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.finishTurn(turn, "interrupted immediately", "")

	if got := conversation.History(); len(got) != 0 {
		t.Fatalf("expected history to stay empty, got %v", got)
	}
}

func TestConversationAbandonLeavesHistoryUntouched(t *testing.T) {
	conversation := newConversation(8)

	turn := newActiveTurn("seed")
	if err := conversation.startTurn(turn); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.finishTurn(turn, "seed", "seeded")

	failing := newActiveTurn("explode")
	if err := conversation.startTurn(failing); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.abandonTurn(failing)

	if got := conversation.currentTurn(); got != nil {
		t.Fatalf("expected no active turn after abandoning, got %v", got)
	}
	if got := conversation.History(); len(got) != 2 {
		t.Fatalf("expected the earlier exchange to survive, got %v", got)
	}
}

func TestConversationTrimsOldestBeyondLimit(t *testing.T) {
	conversation := newConversation(4)

	for _, exchange := range []struct{ prompt, reply string }{
		{"one", "1"}, {"two", "2"}, {"three", "3"},
	} {
		turn := newActiveTurn(exchange.prompt)
		if err := conversation.startTurn(turn); err != nil {
			t.Fatalf("expected turn to start, got %v", err)
		}
		conversation.finishTurn(turn, exchange.prompt, exchange.reply)
	}

	history := conversation.History()
	if len(history) != 4 {
		t.Fatalf("expected history trimmed to 4 entries, got %d", len(history))
	}
	wantTexts := []string{"two", "2", "three", "3"}
	for i, want := range wantTexts {
		if history[i].Text != want {
			t.Fatalf("expected entry %d to be %q, got %q", i, want, history[i].Text)
		}
	}
}

func TestConversationUnboundedWhenLimitDisabled(t *testing.T) {
	conversation := newConversation(0)

	for i := 0; i < 10; i++ {
		turn := newActiveTurn("prompt")
		if err := conversation.startTurn(turn); err != nil {
			t.Fatalf("expected turn to start, got %v", err)
		}
		conversation.finishTurn(turn, "prompt", "reply")
	}

	if got := conversation.turnCount(); got != 20 {
		t.Fatalf("expected all 20 entries kept, got %d", got)
	}
}

func TestConversationHistoryIsACopy(t *testing.T) {
	conversation := newConversation(8)

	turn := newActiveTurn("original")
	if err := conversation.startTurn(turn); err != nil {
		t.Fatalf("expected turn to start, got %v", err)
	}
	conversation.finishTurn(turn, "original", "reply")

	history := conversation.History()
	history[0].Text = "tampered"

	if got := conversation.History(); got[0].Text != "original" {
		t.Fatalf("expected internal history to be isolated from callers, got %q", got[0].Text)
	}
}
