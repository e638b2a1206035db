package deepgram

import (
	"fmt"
	"slices"
)

// SynthesisClient produces speech through deepgram's streaming TTS API. One
// client can open any number of speech generators, each backed by its own
// websocket.
type SynthesisClient struct {
	voice deepgramVoice
}

func NewSynthesisClient(voice deepgramVoice) (*SynthesisClient, error) {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return &SynthesisClient{voice: voice}, nil
}

func (c *SynthesisClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}
