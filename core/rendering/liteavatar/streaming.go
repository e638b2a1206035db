package liteavatar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/rendering"
	"github.com/gorilla/websocket"
)

type renderRequest struct {
	ws *websocket.Conn
	mu sync.Mutex

	segmentQueue   []uint64
	segmentQueueMu sync.Mutex

	options rendering.RenderOptions

	audioComplete bool
	cancelled     bool
	closed        bool

	report rendering.RenderEndedReport
}

func (c *RenderClient) NewFrameGenerator(ctx context.Context, opts ...rendering.RenderOption) (rendering.FrameGenerator, error) {
	req := &renderRequest{
		options: rendering.RenderOptions{
			FrameCallback:           func(uint64, []byte) {},
			SegmentRenderedCallback: func(uint64) {},
			RenderEndedCallback:     func(rendering.RenderEndedReport) {},
			ErrorCallback:           func(error) {},

			EncodingInfo: media.GetDefaultEncodingInfo(),
			FrameRate:    defaultFrameRate,
		},
	}

	for _, opt := range opts {
		opt(&req.options)
	}

	ws, err := connectWebsocket(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	req.ws = ws

	if err := req.sendWebsocketMessage(startMsg(c.avatarID, req.options.EncodingInfo.SampleRate, req.options.FrameRate)); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("failed to start render stream: %w", err)
	}

	go req.processIncomingMessages(ctx)

	return req, nil
}

func connectWebsocket(serviceUrl string) (*websocket.Conn, error) {
	parsedUrl, err := url.Parse(serviceUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid lite-avatar service url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(parsedUrl.String(), http.Header{})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to lite-avatar service: %w", err)
	}

	return conn, nil
}

func (r *renderRequest) processIncomingMessages(ctx context.Context) {
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" && ctx.Err() == nil {
				log.Printf("Websocket read error: %v", err)
				r.options.ErrorCallback(err)
			}
			if err := r.Cancel(); err != nil {
				_ = r.Close() // Ignored on purpose
				return
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			func() { // Grouped for defer
				r.segmentQueueMu.Lock()
				defer r.segmentQueueMu.Unlock()
				if len(r.segmentQueue) == 0 {
					// frame for a segment we no longer track, likely after
					// a clear
					return
				}
				r.report.Frames++
				r.options.FrameCallback(r.segmentQueue[0], msg)
			}()
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			switch parsedMsg.Type {
			case "Rendered":
				func() { // Grouped for defer
					r.segmentQueueMu.Lock()
					defer r.segmentQueueMu.Unlock()
					if len(r.segmentQueue) > 0 {
						r.report.Segments++
						r.options.SegmentRenderedCallback(r.segmentQueue[0])
						r.segmentQueue = r.segmentQueue[1:]
					}

					if len(r.segmentQueue) == 0 && r.audioComplete {
						r.options.RenderEndedCallback(r.report)
						_ = r.Close()
					}
				}()
			case "Error":
				var errMsg struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(msg, &errMsg); err != nil {
					continue
				}
				r.options.ErrorCallback(fmt.Errorf("lite-avatar render error: %s", errMsg.Message))
			}
		}
	}
}

func (r *renderRequest) SendAudio(segmentSeq uint64, audio []byte) error {
	if r.closed {
		return fmt.Errorf("render request closed")
	} else if r.cancelled {
		return fmt.Errorf("render request cancelled")
	} else if r.audioComplete {
		return fmt.Errorf("render request audio already completed")
	}

	r.segmentQueueMu.Lock()
	defer r.segmentQueueMu.Unlock()

	if err := r.sendWebsocketMessage(audioMsg(segmentSeq, audio)); err != nil {
		return fmt.Errorf("failed to send websocket audio message: %w", err)
	}
	r.segmentQueue = append(r.segmentQueue, segmentSeq)
	return nil
}

func (r *renderRequest) SendAction(name string, emotion string) error {
	if r.closed {
		return fmt.Errorf("render request closed")
	} else if r.cancelled {
		return fmt.Errorf("render request cancelled")
	} else if r.audioComplete {
		return fmt.Errorf("render request audio already completed")
	}

	if err := r.sendWebsocketMessage(actionMsg(name, emotion)); err != nil {
		return fmt.Errorf("failed to send websocket action message: %w", err)
	}
	return nil
}

func (r *renderRequest) EndOfAudio() error {
	if r.closed {
		return fmt.Errorf("render request closed")
	} else if r.cancelled {
		return fmt.Errorf("render request cancelled")
	}
	r.segmentQueueMu.Lock()
	defer r.segmentQueueMu.Unlock()

	r.audioComplete = true
	if len(r.segmentQueue) == 0 {
		r.options.RenderEndedCallback(r.report)
		_ = r.Close()
	}

	return nil
}

func (r *renderRequest) Cancel() error {
	if r.closed {
		return fmt.Errorf("render request closed")
	}

	r.cancelled = true
	func() {
		r.segmentQueueMu.Lock()
		defer r.segmentQueueMu.Unlock()
		r.segmentQueue = nil
	}()
	if err := r.sendWebsocketMessage(clearMsg); err != nil {
		return fmt.Errorf("failed to send websocket clear message: %w", err)
	}

	_ = r.Close()
	return nil
}

func (r *renderRequest) Close() error {
	r.closed = true
	if err := r.sendWebsocketMessage(closeMsg); err != nil {
		if aggressiveCloseErr := r.ws.Close(); aggressiveCloseErr != nil {
			return fmt.Errorf("failed to close websocket: %w", errors.Join(err, aggressiveCloseErr))
		}
	}
	return nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

var (
	startMsg = func(avatarID string, sampleRate int, frameRate int) struct {
		Type       string `json:"type"`
		AvatarID   string `json:"avatar_id,omitempty"`
		SampleRate int    `json:"sample_rate"`
		FrameRate  int    `json:"frame_rate"`
	} {
		return struct {
			Type       string `json:"type"`
			AvatarID   string `json:"avatar_id,omitempty"`
			SampleRate int    `json:"sample_rate"`
			FrameRate  int    `json:"frame_rate"`
		}{Type: "Start", AvatarID: avatarID, SampleRate: sampleRate, FrameRate: frameRate}
	}
	audioMsg = func(seq uint64, audio []byte) struct {
		Type  string `json:"type"`
		Seq   uint64 `json:"seq"`
		Audio []byte `json:"audio"`
	} {
		return struct {
			Type  string `json:"type"`
			Seq   uint64 `json:"seq"`
			Audio []byte `json:"audio"`
		}{Type: "Audio", Seq: seq, Audio: audio}
	}
	actionMsg = func(name string, emotion string) struct {
		Type    string `json:"type"`
		Name    string `json:"name,omitempty"`
		Emotion string `json:"emotion,omitempty"`
	} {
		return struct {
			Type    string `json:"type"`
			Name    string `json:"name,omitempty"`
			Emotion string `json:"emotion,omitempty"`
		}{Type: "Action", Name: name, Emotion: emotion}
	}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (r *renderRequest) sendWebsocketMessage(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
