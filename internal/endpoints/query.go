package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/apex/log"

	"github.com/d1mk9/aiproxy/internal/api"
	"github.com/d1mk9/aiproxy/internal/metrics"
	"github.com/d1mk9/aiproxy/internal/models"
	"github.com/d1mk9/aiproxy/internal/utils"
)

// Client-facing messages for rejected query bodies.
const (
	MsgInvalidJSON    = "Invalid JSON in request body"
	MsgMissingPrompt  = "Missing required parameter: prompt"
	MsgPromptNotText  = "Invalid parameter: prompt must be a string"
	msgInternalPrefix = "Internal server error: "
)

// Notifier receives every successful query. Implementations must not block.
type Notifier interface {
	Notify(prompt, response string)
}

// QueryEndpoint forwards prompts to the query capability.
type QueryEndpoint struct {
	querier  api.Querier
	notifier Notifier
	timeout  time.Duration
	info     models.StatusInfo
}

func NewQueryEndpoint(q api.Querier, n Notifier, timeout time.Duration) *QueryEndpoint {
	return &QueryEndpoint{
		querier:  q,
		notifier: n,
		timeout:  timeout,
		info:     queryStatus(),
	}
}

func (e *QueryEndpoint) Serve(ctx context.Context, method string, body []byte) Reply {
	switch method {
	case http.MethodGet:
		return JSON(http.StatusOK, e.info)
	case http.MethodPost:
		return e.handlePost(ctx, body)
	case http.MethodOptions:
		return Preflight()
	default:
		return MethodNotAllowed()
	}
}

func (e *QueryEndpoint) handlePost(ctx context.Context, body []byte) Reply {
	prompt, msg := parsePrompt(body)
	if msg != "" {
		metrics.QueriesTotal.WithLabelValues("bad_request").Inc()
		return Error(http.StatusBadRequest, msg)
	}

	response, err := e.query(ctx, prompt)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return Error(http.StatusInternalServerError, msgInternalPrefix+err.Error())
	}
	metrics.QueriesTotal.WithLabelValues("success").Inc()

	if e.notifier != nil {
		e.notifier.Notify(prompt, response)
	}

	return JSON(http.StatusOK, models.FormattedResponse{
		Status:    models.StatusSuccess,
		Prompt:    prompt,
		Response:  response,
		Timestamp: utils.Timestamp(),
	})
}

// parsePrompt extracts the prompt; a non-empty msg means the body is rejected.
// null and "" count as absent.
func parsePrompt(body []byte) (prompt string, msg string) {
	if !json.Valid(body) {
		return "", MsgInvalidJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", MsgMissingPrompt
	}
	raw, ok := fields["prompt"]
	if !ok || string(raw) == "null" {
		return "", MsgMissingPrompt
	}
	if err := json.Unmarshal(raw, &prompt); err != nil {
		return "", MsgPromptNotText
	}
	if prompt == "" {
		return "", MsgMissingPrompt
	}
	return prompt, ""
}

// query blocks until the query capability's sequence is drained.
func (e *QueryEndpoint) query(ctx context.Context, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := api.CollectText(e.querier.Query(ctx, prompt))
	dur := time.Since(start)
	metrics.QueryDurationSeconds.Observe(dur.Seconds())

	fields := log.Fields{
		"prompt":      utils.Truncate(utils.SingleLine(prompt), 80),
		"duration_ms": dur.Milliseconds(),
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("query.failed")
		log.Errorf("query trace:\n%+v", err)
		return "", err
	}
	fields["response_chars"] = len([]rune(response))
	log.WithFields(fields).Info("query.success")
	return response, nil
}
