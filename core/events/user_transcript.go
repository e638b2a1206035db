package events

const (
	// KindTranscriptInterim identifies a mutable interim transcript snapshot.
	KindTranscriptInterim Kind = "user_transcript.interim"
	// KindTranscriptFinal identifies the terminal transcript for an utterance.
	KindTranscriptFinal Kind = "user_transcript.final"
)

// TranscriptInterim carries an interim transcript snapshot. Later interims
// for the same utterance supersede earlier ones.
type TranscriptInterim struct {
	Base
	UtteranceID string
	Transcript  string
	Confidence  float64
}

// NewTranscriptInterim creates an interim transcript event.
func NewTranscriptInterim(utteranceID, transcript string, confidence float64) TranscriptInterim {
	return TranscriptInterim{
		Base:        NewBase(KindTranscriptInterim),
		UtteranceID: utteranceID,
		Transcript:  transcript,
		Confidence:  confidence,
	}
}

// TranscriptFinal carries the single final transcript for an utterance.
type TranscriptFinal struct {
	Base
	UtteranceID string
	Transcript  string
	Confidence  float64
}

// NewTranscriptFinal creates a final transcript event.
func NewTranscriptFinal(utteranceID, transcript string, confidence float64) TranscriptFinal {
	return TranscriptFinal{
		Base:        NewBase(KindTranscriptFinal),
		UtteranceID: utteranceID,
		Transcript:  transcript,
		Confidence:  confidence,
	}
}
