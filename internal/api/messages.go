package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/d1mk9/aiproxy/internal/utils"
)

const (
	defaultAPIBaseURL = "https://api.anthropic.com"
	messagesPath      = "/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// MessagesOptions configures the Anthropic Messages API backend.
type MessagesOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	SystemPrompt string
	HTTPClient   *http.Client
}

// MessagesClient streams completions from the Messages API and exposes every
// server-sent event as a Message.
type MessagesClient struct {
	opts   MessagesOptions
	client *http.Client
}

func NewMessagesClient(opts MessagesOptions) *MessagesClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultAPIBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	client := opts.HTTPClient
	if client == nil {
		// No client timeout: the request context bounds the call.
		client = &http.Client{}
	}
	return &MessagesClient{opts: opts, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
}

type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Model string `json:"model"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *MessagesClient) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	requestBody, err := json.Marshal(messagesRequest{
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
		System:    c.opts.SystemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "messages api: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+messagesPath, bytes.NewReader(requestBody))
	if err != nil {
		return nil, errors.Wrap(err, "messages api: build request")
	}
	req.Header.Set("x-api-key", c.opts.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	return req, nil
}

// Query sends prompt with stream=true and yields one Message per event.
func (c *MessagesClient) Query(ctx context.Context, prompt string) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		req, err := c.newRequest(ctx, prompt)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := c.client.Do(req)
		if err != nil {
			yield(nil, errors.Wrap(err, "messages api: request failed"))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield(nil, errors.Errorf("API error: %d %s, response: %s",
				resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(bodyBytes))))
			return
		}

		var model string
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), maxStreamLine)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" {
				continue
			}

			var ev streamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				yield(nil, errors.Wrapf(err, "messages api: decode event %q", utils.Truncate(data, 200)))
				return
			}
			msg, err := eventMessage(ev, &model)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(msg, nil) {
				return
			}
			if ev.Type == "message_stop" {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, errors.Wrap(err, "messages api: read stream"))
			return
		}
		yield(nil, errors.New("messages api: stream ended before message_stop"))
	}
}

// eventMessage maps a stream event onto a Message; model carries the model
// name announced by message_start to later deltas.
func eventMessage(ev streamEvent, model *string) (Message, error) {
	switch ev.Type {
	case "error":
		if ev.Error != nil {
			return nil, errors.Errorf("messages api: %s: %s", ev.Error.Type, ev.Error.Message)
		}
		return nil, errors.New("messages api: stream error")
	case "message_start":
		if ev.Message != nil {
			*model = ev.Message.Model
		}
		return OtherMessage{Type: ev.Type}, nil
	case "content_block_delta":
		if ev.Delta == nil {
			return OtherMessage{Type: ev.Type}, nil
		}
		if ev.Delta.Type == "text_delta" {
			return AssistantMessage{Model: *model, Content: []Block{TextBlock{Text: ev.Delta.Text}}}, nil
		}
		return AssistantMessage{Model: *model, Content: []Block{OtherBlock{Type: ev.Delta.Type}}}, nil
	default:
		return OtherMessage{Type: ev.Type}, nil
	}
}
