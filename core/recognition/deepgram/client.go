package deepgram

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TranscriptionClient streams audio to deepgram over a websocket and
// surfaces utterance-scoped transcripts through the configured callbacks.
// The zero value is usable; Transcribe opens the stream.
type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	accumulatedTranscript string
	lowestConfidence      float64
	unendedSegment        bool
	utteranceID           string
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{}
}

// currentUtteranceID returns the id of the utterance being recognized,
// minting one when a new utterance starts. Interim and final transcripts of
// the same utterance share the id so later results supersede earlier ones.
func (s *TranscriptionClient) currentUtteranceID() string {
	if s.utteranceID == "" {
		s.utteranceID = uuid.NewString()
		s.lowestConfidence = 1
	}
	return s.utteranceID
}

func (s *TranscriptionClient) resetUtterance() {
	s.utteranceID = ""
	s.accumulatedTranscript = ""
	s.lowestConfidence = 0
}
