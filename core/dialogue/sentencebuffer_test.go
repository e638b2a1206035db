package dialogue

import "testing"

func TestSentenceBufferReleasesOnPunctuation(t *testing.T) {
	buffer := NewSentenceBuffer()

	if piece := buffer.Add("Hello there"); piece != "" {
		t.Fatalf("expected no piece before punctuation, got %q", piece)
	}
	if piece := buffer.Add(", how are you?"); piece != "Hello there, how are you?" {
		t.Fatalf("expected full sentence on punctuation, got %q", piece)
	}
	if piece := buffer.Flush(); piece != "" {
		t.Fatalf("expected empty buffer after punctuation release, got %q", piece)
	}
}

func TestSentenceBufferKeepsRemainderAfterPunctuation(t *testing.T) {
	buffer := NewSentenceBuffer()

	piece := buffer.Add("Sure. Let me")
	if piece != "Sure." {
		t.Fatalf("expected piece up to punctuation, got %q", piece)
	}
	if remainder := buffer.Flush(); remainder != "Let me" {
		t.Fatalf("expected remainder to stay buffered, got %q", remainder)
	}
}

func TestSentenceBufferReleasesOnWordThreshold(t *testing.T) {
	buffer := NewSentenceBuffer()

	if piece := buffer.Add("one two three four five six seven eight"); piece != "" {
		t.Fatalf("expected buffering without boundary confirmation, got %q", piece)
	}
	piece := buffer.Add(" nine")
	if piece != "one two three four five six seven eight" {
		t.Fatalf("expected threshold release at word boundary, got %q", piece)
	}
	if remainder := buffer.Flush(); remainder != "nine" {
		t.Fatalf("expected new word to stay buffered, got %q", remainder)
	}
}

func TestSentenceBufferResetDropsText(t *testing.T) {
	buffer := NewSentenceBuffer()
	buffer.Add("about to be dropped")
	buffer.Reset()

	if piece := buffer.Flush(); piece != "" {
		t.Fatalf("expected nothing after reset, got %q", piece)
	}
}

func TestParseActionTags(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
		actions  []Action
	}{
		{name: "gesture only", text: "[wave] Hello!", expected: "Hello!", actions: []Action{{Name: "wave"}}},
		{name: "gesture and emotion", text: "Great to see you [nod|happy] again.", expected: "Great to see you again.", actions: []Action{{Name: "nod", Emotion: "happy"}}},
		{name: "emotion only", text: "[|concerned] That sounds rough.", expected: "That sounds rough.", actions: []Action{{Name: "", Emotion: "concerned"}}},
		{name: "prose brackets kept", text: "See [the docs] for details.", expected: "See [the docs] for details.", actions: nil},
		{name: "unterminated bracket kept", text: "An open [bracket", expected: "An open [bracket", actions: nil},
		{name: "multiple cues", text: "[wave] Hi [|happy] there.", expected: "Hi there.", actions: []Action{{Name: "wave"}, {Name: "", Emotion: "happy"}}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			text, actions := ParseActionTags(testCase.text)
			if text != testCase.expected {
				t.Fatalf("expected text %q, got %q", testCase.expected, text)
			}
			if len(actions) != len(testCase.actions) {
				t.Fatalf("expected %d actions, got %d", len(testCase.actions), len(actions))
			}
			for i := range actions {
				if actions[i] != testCase.actions[i] {
					t.Fatalf("expected action %d to be %+v, got %+v", i, testCase.actions[i], actions[i])
				}
			}
		})
	}
}
