// Package events defines the typed event contract crossing the session
// pipeline boundary.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_media.*
//   - user_transcript.*
//   - agent_reply.*
//   - agent_speech.*
//   - agent_render.*
//   - pipeline.*
//   - control.*
//   - notification.*
//
// Semantics used across the package:
//
//   - Frame: binary audio/video payload.
//   - Segment: append-only piece emitted in stream order.
//   - Interim: mutable point-in-time snapshot superseded by later interims.
//   - Final: terminal immutable text/state for the current stream phase.
//
// user_media events
//
//   - UserAudioFrame (user_media.audio_frame): raw inbound audio frame.
//   - UserSpeechStarted (user_media.speech_started): speech activity began.
//   - UserSpeechEnded (user_media.speech_ended): speech activity ended.
//
// user_transcript events
//
//   - TranscriptInterim (user_transcript.interim): mutable interim
//     transcript snapshot for the current utterance.
//   - TranscriptFinal (user_transcript.final): the single terminal
//     transcript for the utterance.
//
// agent_reply events
//
//   - ReplySegment (agent_reply.segment): streamed reply chunk text.
//   - ReplyAction (agent_reply.action): structured action/emotion metadata
//     attached to a reply chunk.
//   - ReplyFinal (agent_reply.final): the reply chunk stream is complete.
//
// agent_speech / agent_render events
//
//   - SpeechSegment (agent_speech.segment): synthesized audio segment.
//   - SpeechSkipped (agent_speech.skipped): synthesis for one chunk failed
//     and was skipped.
//   - RenderFrames (agent_render.frames): rendered frame batch for one
//     audio segment.
//   - RenderDegraded (agent_render.degraded): rendering failed, the turn
//     continues audio-only.
//
// pipeline events
//
//   - StateChanged (pipeline.state_changed): the session state machine
//     moved between states.
//   - TurnStarted (pipeline.turn_started): a dialogue turn entered flight.
//   - TurnCompleted (pipeline.turn_completed): the turn finished delivering.
//   - TurnFailed (pipeline.turn_failed): the turn failed.
//   - TurnCancelled (pipeline.turn_cancelled): the turn was cancelled.
//
// control events
//
//   - StartListening (control.start_listening)
//   - Interrupt (control.interrupt)
//   - Disconnect (control.disconnect)
//
// notification events
//
//   - ClientNotified (notification.sent): a client-visible notification
//     left the session.
package events
