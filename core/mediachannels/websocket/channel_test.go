package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/media"
	"github.com/C32-SoundTech/SoundTech-DH/core/mediachannels"
	gorilla "github.com/gorilla/websocket"
)

func newTestChannel(t *testing.T, opts ...ChannelOption) (*Channel, *gorilla.Conn) {
	t.Helper()

	upgrader := gorilla.Upgrader{}
	channels := make(chan *Channel, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade websocket: %v", err)
			return
		}
		channels <- NewChannel(conn, opts...)
	}))
	t.Cleanup(server.Close)

	clientConn, _, err := gorilla.DefaultDialer.Dial(strings.Replace(server.URL, "http", "ws", 1), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	select {
	case channel := <-channels:
		t.Cleanup(func() { channel.Close() })
		return channel, clientConn
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for channel")
		return nil, nil
	}
}

func TestChannelDeliversInboundFrames(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	if err := clientConn.WriteMessage(gorilla.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := clientConn.WriteMessage(gorilla.BinaryMessage, []byte{4, 5, 6}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := channel.NextInboundFrame(ctx)
	if err != nil {
		t.Fatalf("next inbound frame: %v", err)
	}
	second, err := channel.NextInboundFrame(ctx)
	if err != nil {
		t.Fatalf("next inbound frame: %v", err)
	}

	if string(first.Samples) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected first frame samples: %v", first.Samples)
	}
	if second.Seq != first.Seq+1 {
		t.Fatalf("expected consecutive sequence numbers, got %d then %d", first.Seq, second.Seq)
	}
}

func TestChannelDeliversSignals(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	if err := clientConn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"interrupt"}`)); err != nil {
		t.Fatalf("write signal: %v", err)
	}
	if err := clientConn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"submit-text","text":"hello"}`)); err != nil {
		t.Fatalf("write signal: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	signal, err := channel.NextSignal(ctx)
	if err != nil {
		t.Fatalf("next signal: %v", err)
	}
	if signal.Control != mediachannels.ControlInterrupt {
		t.Fatalf("unexpected control: %s", signal.Control)
	}

	signal, err = channel.NextSignal(ctx)
	if err != nil {
		t.Fatalf("next signal: %v", err)
	}
	if signal.Control != mediachannels.ControlSubmitText || signal.Text != "hello" {
		t.Fatalf("unexpected signal: %+v", signal)
	}
}

func TestChannelIgnoresUnknownSignals(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	if err := clientConn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"mystery"}`)); err != nil {
		t.Fatalf("write signal: %v", err)
	}
	if err := clientConn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"interrupt"}`)); err != nil {
		t.Fatalf("write signal: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	signal, err := channel.NextSignal(ctx)
	if err != nil {
		t.Fatalf("next signal: %v", err)
	}
	if signal.Control != mediachannels.ControlInterrupt {
		t.Fatalf("expected the unknown signal to be dropped, got %s", signal.Control)
	}
}

func TestChannelSendOutboundReachesClient(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	frame := media.OutboundFrame{
		TurnID:    "turn-42",
		Kind:      media.FrameKindAudio,
		Seq:       3,
		Timestamp: time.Now(),
		Payload:   []byte{9, 8, 7},
	}
	if err := channel.SendOutbound(frame); err != nil {
		t.Fatalf("send outbound: %v", err)
	}

	_ = clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, msg, err := clientConn.ReadMessage()
	if err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if msgType != gorilla.BinaryMessage {
		t.Fatalf("expected binary message, got %d", msgType)
	}

	var received media.OutboundFrame
	if err := received.UnmarshalBinary(msg); err != nil {
		t.Fatalf("unmarshal outbound frame: %v", err)
	}
	if received.TurnID != frame.TurnID || received.Seq != frame.Seq {
		t.Fatalf("unexpected outbound frame: %+v", received)
	}
}

func TestChannelNotifyReachesClient(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	if err := channel.Notify(mediachannels.Notification{
		Code:    "recognition_error",
		Message: "recognition failed, please repeat",
		Retry:   true,
	}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	_ = clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, msg, err := clientConn.ReadMessage()
	if err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if msgType != gorilla.TextMessage {
		t.Fatalf("expected text message, got %d", msgType)
	}

	var parsed struct {
		Type  string `json:"type"`
		Code  string `json:"code"`
		Retry bool   `json:"retry"`
	}
	if err := json.Unmarshal(msg, &parsed); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if parsed.Type != "notification" || parsed.Code != "recognition_error" || !parsed.Retry {
		t.Fatalf("unexpected notification: %+v", parsed)
	}
}

func TestChannelCloseUnblocksReaders(t *testing.T) {
	channel, _ := newTestChannel(t)

	done := make(chan error, 1)
	go func() {
		_, err := channel.NextInboundFrame(context.Background())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	channel.Close()

	select {
	case err := <-done:
		if !errors.Is(err, media.ErrChannelClosed) {
			t.Fatalf("expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reader to unblock")
	}
}

func TestChannelReadTimeout(t *testing.T) {
	channel, _ := newTestChannel(t, WithReadTimeout(50*time.Millisecond))

	_, err := channel.NextInboundFrame(context.Background())
	if !errors.Is(err, media.ErrReadTimeout) {
		t.Fatalf("expected ErrReadTimeout, got %v", err)
	}

	if err := channel.SendOutbound(media.OutboundFrame{TurnID: "t", Kind: media.FrameKindAudio}); err != nil {
		t.Fatalf("channel should stay usable after a read timeout: %v", err)
	}
}

func TestChannelPeerDisconnectClosesChannel(t *testing.T) {
	channel, clientConn := newTestChannel(t)

	clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := channel.NextInboundFrame(ctx); !errors.Is(err, media.ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed after peer disconnect, got %v", err)
	}
}
