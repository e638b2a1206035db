package dialogue

import (
	"strings"
	"sync"
)

// SentenceBuffer accumulates streamed text deltas and releases them in
// sentence-sized pieces suitable for incremental synthesis. A piece is
// released on sentence-ending punctuation, or at a word boundary once the
// buffered text passes the word threshold.
type SentenceBuffer struct {
	mu          sync.Mutex
	text        strings.Builder
	minWords    int
	punctuation string
}

const sentenceBufferMinWords = 8

func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{
		minWords:    sentenceBufferMinWords,
		punctuation: ".!?;",
	}
}

// Add appends a delta and returns a completed sentence piece, or an empty
// string while more text should be buffered.
func (b *SentenceBuffer) Add(delta string) string {
	if delta == "" {
		return ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	startsWithSpace := delta[0] == ' ' || delta[0] == '\n'
	prevContent := b.text.String()
	prevWordCount := len(strings.Fields(prevContent))

	b.text.WriteString(delta)
	content := b.text.String()

	if strings.ContainsAny(delta, b.punctuation) {
		lastPunct := strings.LastIndexAny(content, b.punctuation)
		if lastPunct >= 0 {
			piece := strings.TrimSpace(content[:lastPunct+1])
			remainder := strings.TrimSpace(content[lastPunct+1:])
			b.text.Reset()
			if remainder != "" {
				b.text.WriteString(remainder)
			}
			return piece
		}
	}

	if prevWordCount >= b.minWords && startsWithSpace {
		piece := strings.TrimSpace(prevContent)
		b.text.Reset()
		b.text.WriteString(strings.TrimLeft(delta, " \n"))
		return piece
	}

	return ""
}

// Flush returns any remaining buffered text and resets the buffer. Call it
// when the upstream stream ends.
func (b *SentenceBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	piece := strings.TrimSpace(b.text.String())
	b.text.Reset()
	return piece
}

// Reset drops buffered text without returning it.
func (b *SentenceBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.Reset()
}
