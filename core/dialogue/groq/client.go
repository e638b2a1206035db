package groq

import (
	"context"
	"os"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"github.com/jinzhu/copier"
)

const (
	url = "https://api.groq.com/openai/v1/chat/completions"

	endMessage  = "[DONE]"
	chunkPrefix = "data:"

	defaultModel = "llama-3.3-70b-versatile"
)

// Client speaks the Groq chat-completions API. The zero value is not
// usable; construct with NewClient.
type Client struct {
	apiKey       string
	model        string
	instructions string
}

type ClientOption func(*Client)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithInstructions sets the default system prompt used when a request does
// not carry its own.
func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		apiKey: os.Getenv("GROQ_API_KEY"),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// RespondWithStream starts one streamed completion for the prompt. The
// request is not sent until the returned stream is iterated.
func (c *Client) RespondWithStream(ctx context.Context, prompt string, opts ...dialogue.PromptOption) dialogue.Stream {
	options := dialogue.PromptOptions{Instructions: c.instructions}
	for _, opt := range opts {
		opt(&options)
	}

	var history []dialogue.Turn
	if options.History != nil {
		copier.Copy(&history, options.History)
	}

	messages := toMessages(options.Instructions, history)
	messages = append(messages, message{
		Role:    messageRoleUser,
		Content: prompt,
	})

	return &Stream{
		apiKey:   c.apiKey,
		model:    c.model,
		messages: messages,
	}
}
