package orchestration

import events "github.com/C32-SoundTech/SoundTech-DH/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts RunOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(PipelineState(typedEvent.From), PipelineState(typedEvent.To))
			}
		case events.UserAudioFrame:
			if opts.onInputAudio != nil {
				opts.onInputAudio(typedEvent.Audio)
			}
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.TranscriptInterim:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.TranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.ReplySegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.ReplyAction:
			if opts.onAction != nil {
				opts.onAction(typedEvent.Action, typedEvent.Emotion)
			}
		case events.ReplyFinal:
			if opts.onResponseEnd != nil {
				opts.onResponseEnd()
			}
		case events.SpeechSegment:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		case events.RenderFrames:
			if opts.onRenderedFrames != nil {
				opts.onRenderedFrames(typedEvent.SegmentSeq, typedEvent.Frames)
			}
		case events.RenderDegraded:
			if opts.onRenderDegraded != nil {
				opts.onRenderDegraded(typedEvent.Reason)
			}
		case events.TurnStarted:
			if opts.onTurnStarted != nil {
				opts.onTurnStarted(typedEvent.TurnID)
			}
		case events.TurnCompleted:
			if opts.onTurnCompleted != nil {
				opts.onTurnCompleted(typedEvent.TurnID)
			}
		case events.TurnFailed:
			if opts.onTurnFailed != nil {
				opts.onTurnFailed(typedEvent.TurnID, typedEvent.Reason)
			}
		case events.TurnCancelled:
			if opts.onCancellation != nil {
				opts.onCancellation()
			}
		case events.ClientNotified:
			if opts.onNotification != nil {
				opts.onNotification(typedEvent.Code, typedEvent.Message, typedEvent.Retry)
			}
		}

		if opts.onEvent != nil {
			opts.onEvent(event)
		}
	}
}
