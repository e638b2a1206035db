package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/C32-SoundTech/SoundTech-DH/core/dialogue"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stream is one pending streamed completion. Generated text is regrouped
// into sentence-sized reply chunks with inline action cues parsed out, and
// the chunk sequence is closed with an explicit end marker.
type Stream struct {
	apiKey string

	model    string
	messages []message
}

func (s *Stream) Chunks(ctx context.Context) func(func(dialogue.ReplyChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(dialogue.ReplyChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "respond with stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		reqBody := requestBody{
			Model:    s.model,
			Messages: s.messages,
			Stream:   true,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(dialogue.ReplyChunk{}, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(dialogue.ReplyChunk{}, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(dialogue.ReplyChunk{}, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				err = fmt.Errorf("error reading error body: %w", err)
				span.RecordError(err)
				span.SetAttributes(attribute.String("error", err.Error()))
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(dialogue.ReplyChunk{}, err)
			return
		}

		yieldPiece := func(piece string) bool {
			text, actions := dialogue.ParseActionTags(piece)
			if text == "" && len(actions) == 0 {
				return true
			}

			if text == "" {
				for _, action := range actions {
					action := action
					if !yield(dialogue.ReplyChunk{Action: &action}, nil) {
						return false
					}
				}
				return true
			}

			// Sentence pieces arrive trimmed; keep a separator so joined
			// reply text stays readable.
			chunk := dialogue.ReplyChunk{Text: text + " "}
			if len(actions) > 0 {
				chunk.Action = &actions[0]
				for _, action := range actions[1:] {
					action := action
					if !yield(dialogue.ReplyChunk{Action: &action}, nil) {
						return false
					}
				}
			}
			return yield(chunk, nil)
		}

		sentences := dialogue.NewSentenceBuffer()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			err := json.Unmarshal([]byte(chunk), &responseBody)
			if err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(dialogue.ReplyChunk{}, err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) > 0 {
				delta := responseBody.Choices[0].Delta

				if delta.Content != "" {
					if piece := sentences.Add(delta.Content); piece != "" {
						if !yieldPiece(piece) {
							return
						}
					}
				}
			}

			if responseBody.Usage != nil {
				span.SetAttributes(attribute.Int("usage.input", responseBody.Usage.PromptTokens))
				span.SetAttributes(attribute.Int("usage.output", responseBody.Usage.CompletionTokens))
				span.SetAttributes(attribute.Int("usage.total", responseBody.Usage.TotalTokens))

				span.SetAttributes(attribute.Float64("usage.queue_time", responseBody.Usage.QueueTime))
				span.SetAttributes(attribute.Float64("usage.prompt_time", responseBody.Usage.PromptTime))
				span.SetAttributes(attribute.Float64("usage.completion_time", responseBody.Usage.CompletionTime))
				span.SetAttributes(attribute.Float64("usage.total_time", responseBody.Usage.TotalTime))
			}
		}

		if err := scanner.Err(); err != nil {
			yield(dialogue.ReplyChunk{}, fmt.Errorf("error reading streamed response: %w", err))
			return
		}

		if piece := sentences.Flush(); piece != "" {
			if !yieldPiece(piece) {
				return
			}
		}

		yield(dialogue.ReplyChunk{End: true}, nil)
	}
}
