package dialogue

type PromptOptions struct {
	Instructions string
	History      []Turn
}

type PromptOption func(*PromptOptions)

// WithInstructions sets the system prompt for the request.
func WithInstructions(instructions string) PromptOption {
	return func(o *PromptOptions) {
		o.Instructions = instructions
	}
}

// WithHistory passes the bounded recent conversation history for context.
func WithHistory(history ...Turn) PromptOption {
	return func(o *PromptOptions) {
		o.History = history
	}
}
