package api

import (
	"context"
	"iter"
	"strings"
)

// Querier is the external AI query capability. Query returns a lazy, finite
// sequence of messages; the sequence is not restartable and stops at the
// first error.
type Querier interface {
	Query(ctx context.Context, prompt string) iter.Seq2[Message, error]
}

// Message is one structured message produced by a query. The set of
// implementations is closed: AssistantMessage and OtherMessage.
type Message interface {
	isMessage()
}

// AssistantMessage is output authored by the AI responder.
type AssistantMessage struct {
	Model   string
	Content []Block
}

// OtherMessage is any non-assistant message (user echo, system, result, stream bookkeeping).
type OtherMessage struct {
	Type string
}

func (AssistantMessage) isMessage() {}
func (OtherMessage) isMessage()     {}

// Block is a content fragment of a message: TextBlock or OtherBlock.
type Block interface {
	isBlock()
}

// TextBlock carries plain text output.
type TextBlock struct {
	Text string
}

// OtherBlock is any non-text content (tool use, thinking, tool results).
type OtherBlock struct {
	Type string
}

func (TextBlock) isBlock()  {}
func (OtherBlock) isBlock() {}

// CollectText drains seq and concatenates, in arrival order, the text blocks
// of assistant messages. The first error aborts collection.
func CollectText(seq iter.Seq2[Message, error]) (string, error) {
	var sb strings.Builder
	for msg, err := range seq {
		if err != nil {
			return "", err
		}
		switch m := msg.(type) {
		case AssistantMessage:
			for _, block := range m.Content {
				switch b := block.(type) {
				case TextBlock:
					sb.WriteString(b.Text)
				case OtherBlock:
				}
			}
		case OtherMessage:
		}
	}
	return sb.String(), nil
}
