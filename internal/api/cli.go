package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"os/exec"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/d1mk9/aiproxy/internal/utils"
)

// maxStreamLine bounds a single stream-json line; tool results can be large.
const maxStreamLine = 16 << 20

// cliWaitDelay bounds how long Wait blocks on output pipes after cancellation.
const cliWaitDelay = 2 * time.Second

// CLIOptions configures the Claude Code CLI backend.
type CLIOptions struct {
	Bin          string
	Model        string
	WorkDir      string
	SystemPrompt string
}

// CLIQuerier runs the Claude Code CLI in print mode and decodes its
// line-delimited stream-json output.
type CLIQuerier struct {
	opts CLIOptions
}

func NewCLIQuerier(opts CLIOptions) *CLIQuerier {
	if opts.Bin == "" {
		opts.Bin = "claude"
	}
	return &CLIQuerier{opts: opts}
}

func (q *CLIQuerier) args() []string {
	args := []string{"--print", "--output-format", "stream-json", "--verbose"}
	if q.opts.Model != "" {
		args = append(args, "--model", q.opts.Model)
	}
	if q.opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", q.opts.SystemPrompt)
	}
	return args
}

// Query starts one CLI process per call. The prompt is passed on stdin so it
// can never be mistaken for a flag.
func (q *CLIQuerier) Query(ctx context.Context, prompt string) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		cmd := exec.CommandContext(ctx, q.opts.Bin, q.args()...)
		cmd.Stdin = strings.NewReader(prompt)
		if q.opts.WorkDir != "" {
			cmd.Dir = q.opts.WorkDir
		}
		startGroup(cmd)
		cmd.WaitDelay = cliWaitDelay
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(nil, errors.Wrap(err, "claude cli: stdout pipe"))
			return
		}
		if err := cmd.Start(); err != nil {
			yield(nil, errors.Wrapf(err, "claude cli: start %s", q.opts.Bin))
			return
		}
		log.WithFields(log.Fields{
			"pid":    cmd.Process.Pid,
			"prompt": utils.Truncate(utils.SingleLine(prompt), 80),
		}).Debug("claude.cli.start")

		abort := func() {
			_ = killGroup(cmd)
			_ = cmd.Wait()
		}

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxStreamLine)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg, err := decodeStreamLine(line)
			if err != nil {
				abort()
				yield(nil, err)
				return
			}
			if !yield(msg, nil) {
				abort()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			abort()
			yield(nil, errors.Wrap(err, "claude cli: read output"))
			return
		}
		if err := cmd.Wait(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(nil, errors.Wrap(ctxErr, "claude cli"))
				return
			}
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				yield(nil, errors.Wrap(err, "claude cli"))
				return
			}
			yield(nil, errors.Wrapf(err, "claude cli: %s", utils.Truncate(detail, 1000)))
		}
	}
}

type streamLine struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Result  string          `json:"result,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

type streamMessage struct {
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// decodeStreamLine maps one stream-json line onto a Message. A result line
// flagged as an error becomes an error.
func decodeStreamLine(line []byte) (Message, error) {
	var sl streamLine
	if err := json.Unmarshal(line, &sl); err != nil {
		return nil, errors.Wrapf(err, "claude cli: decode %q", utils.Truncate(string(line), 200))
	}
	switch sl.Type {
	case "assistant":
		var sm streamMessage
		if len(sl.Message) > 0 {
			if err := json.Unmarshal(sl.Message, &sm); err != nil {
				return nil, errors.Wrap(err, "claude cli: decode assistant message")
			}
		}
		return AssistantMessage{Model: sm.Model, Content: toBlocks(sm.Content)}, nil
	case "result":
		if sl.IsError || strings.HasPrefix(sl.Subtype, "error") {
			msg := sl.Result
			if msg == "" {
				msg = sl.Subtype
			}
			return nil, errors.Errorf("claude cli: query failed: %s", msg)
		}
		return OtherMessage{Type: sl.Type}, nil
	case "":
		return nil, errors.Errorf("claude cli: message without type: %s", utils.Truncate(string(line), 200))
	default:
		return OtherMessage{Type: sl.Type}, nil
	}
}

func toBlocks(content []contentBlock) []Block {
	blocks := make([]Block, 0, len(content))
	for _, c := range content {
		if c.Type == "text" {
			blocks = append(blocks, TextBlock{Text: c.Text})
			continue
		}
		blocks = append(blocks, OtherBlock{Type: c.Type})
	}
	return blocks
}
