package deepgram

import (
	"context"
	"testing"

	"github.com/C32-SoundTech/SoundTech-DH/core/recognition"
)

func TestProcessMessageAccumulatesUtterance(t *testing.T) {
	client := NewTranscriptionClient()

	interims := []recognition.Transcript{}
	finals := []recognition.Transcript{}
	speechStarted := 0
	speechEnded := 0

	options := recognition.TranscriptionOptions{
		InterimTranscriptCallback: func(transcript recognition.Transcript) { interims = append(interims, transcript) },
		FinalTranscriptCallback:   func(transcript recognition.Transcript) { finals = append(finals, transcript) },
		SpeechStartedCallback:     func() { speechStarted++ },
		SpeechEndedCallback:       func() { speechEnded++ },
	}

	ctx := context.Background()
	client.processMessage(ctx, []byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hello","confidence":0.5}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hello there","confidence":0.9}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"general kenobi","confidence":0.8}]}}`), options)

	if speechStarted != 1 {
		t.Fatalf("expected one speech start, got %d", speechStarted)
	}
	if speechEnded != 1 {
		t.Fatalf("expected one speech end, got %d", speechEnded)
	}

	if len(interims) != 3 {
		t.Fatalf("expected 3 interim transcripts, got %d", len(interims))
	}
	if interims[0].Text != "hello" {
		t.Fatalf("unexpected first interim text: %q", interims[0].Text)
	}
	if interims[1].Text != "hello there" {
		t.Fatalf("unexpected second interim text: %q", interims[1].Text)
	}
	if interims[2].Text != "hello there general kenobi" {
		t.Fatalf("unexpected third interim text: %q", interims[2].Text)
	}
	for i, interim := range interims {
		if interim.Final {
			t.Fatalf("interim %d marked final", i)
		}
		if interim.UtteranceID != interims[0].UtteranceID {
			t.Fatalf("interim %d changed utterance id", i)
		}
	}

	if len(finals) != 1 {
		t.Fatalf("expected a single final transcript, got %d", len(finals))
	}
	if finals[0].Text != "hello there general kenobi" {
		t.Fatalf("unexpected final text: %q", finals[0].Text)
	}
	if !finals[0].Final {
		t.Fatalf("final transcript not marked final")
	}
	if finals[0].UtteranceID != interims[0].UtteranceID {
		t.Fatalf("final transcript changed utterance id")
	}
	if finals[0].Confidence != 0.8 {
		t.Fatalf("expected lowest segment confidence 0.8, got %f", finals[0].Confidence)
	}
}

func TestProcessMessageMintsNewUtteranceAfterFinal(t *testing.T) {
	client := NewTranscriptionClient()

	finals := []recognition.Transcript{}
	options := recognition.TranscriptionOptions{
		FinalTranscriptCallback: func(transcript recognition.Transcript) { finals = append(finals, transcript) },
	}

	ctx := context.Background()
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"first","confidence":1}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"second","confidence":1}]}}`), options)

	if len(finals) != 2 {
		t.Fatalf("expected 2 final transcripts, got %d", len(finals))
	}
	if finals[0].UtteranceID == finals[1].UtteranceID {
		t.Fatalf("expected a fresh utterance id after a final transcript")
	}
}

func TestProcessMessageDeliversNothingForSilence(t *testing.T) {
	client := NewTranscriptionClient()

	calls := 0
	options := recognition.TranscriptionOptions{
		InterimTranscriptCallback: func(recognition.Transcript) { calls++ },
		FinalTranscriptCallback:   func(recognition.Transcript) { calls++ },
	}

	ctx := context.Background()
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"","confidence":0}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"  ","confidence":0}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"UtteranceEnd"}`), options)

	if calls != 0 {
		t.Fatalf("expected no transcripts for silence, got %d callbacks", calls)
	}
}

func TestUtteranceEndClosesUnendedSegment(t *testing.T) {
	client := NewTranscriptionClient()

	finals := []recognition.Transcript{}
	options := recognition.TranscriptionOptions{
		FinalTranscriptCallback: func(transcript recognition.Transcript) { finals = append(finals, transcript) },
	}

	ctx := context.Background()
	client.processMessage(ctx, []byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage(ctx, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"trailing words","confidence":0.7}]}}`), options)
	client.processMessage(ctx, []byte(`{"type":"UtteranceEnd"}`), options)

	if len(finals) != 1 {
		t.Fatalf("expected utterance end to force a final transcript, got %d", len(finals))
	}
	if finals[0].Text != "trailing words" {
		t.Fatalf("unexpected final text: %q", finals[0].Text)
	}
}
