// Package liteavatar renders avatar frames through a lite-avatar service
// speaking its websocket protocol. Audio segments go out as JSON messages,
// rendered frames come back as binary messages followed by a per-segment
// confirmation.
package liteavatar

import (
	"fmt"
	"os"
)

const defaultFrameRate = 25

// RenderClient opens frame generators against one lite-avatar service. One
// client can open any number of generators, each backed by its own
// websocket.
type RenderClient struct {
	url      string
	avatarID string
}

type ClientOption func(*RenderClient)

// WithServiceURL overrides the websocket endpoint of the lite-avatar
// service.
func WithServiceURL(url string) ClientOption {
	return func(c *RenderClient) { c.url = url }
}

// WithAvatarID selects the avatar identity the service should animate.
func WithAvatarID(avatarID string) ClientOption {
	return func(c *RenderClient) { c.avatarID = avatarID }
}

func NewRenderClient(opts ...ClientOption) (*RenderClient, error) {
	client := &RenderClient{url: os.Getenv("LITEAVATAR_WS_URL")}
	for _, opt := range opts {
		opt(client)
	}

	if client.url == "" {
		return nil, fmt.Errorf("lite-avatar service url not found")
	}

	return client, nil
}
