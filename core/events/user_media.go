package events

const (
	// KindUserAudioFrame identifies raw inbound user audio.
	KindUserAudioFrame Kind = "user_media.audio_frame"
	// KindUserSpeechStarted identifies the start of user speech activity.
	KindUserSpeechStarted Kind = "user_media.speech_started"
	// KindUserSpeechEnded identifies the end of user speech activity.
	KindUserSpeechEnded Kind = "user_media.speech_ended"
)

// UserAudioFrame carries one raw inbound audio frame.
type UserAudioFrame struct {
	Base
	Seq   uint64
	Audio []byte
}

// NewUserAudioFrame creates a user audio frame event.
func NewUserAudioFrame(seq uint64, audio []byte) UserAudioFrame {
	return UserAudioFrame{Base: NewBase(KindUserAudioFrame), Seq: seq, Audio: audio}
}

// UserSpeechStarted marks the start of user speech activity.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks the end of user speech activity.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}
