package transport

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1mk9/aiproxy/internal/api"
	"github.com/d1mk9/aiproxy/internal/endpoints"
)

type echoQuerier struct{}

func (echoQuerier) Query(_ context.Context, prompt string) iter.Seq2[api.Message, error] {
	return func(yield func(api.Message, error) bool) {
		yield(api.AssistantMessage{Content: []api.Block{api.TextBlock{Text: "echo: " + prompt}}}, nil)
	}
}

func newTestServer(opts ServerOptions) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(endpoints.NewRouter(echoQuerier{}, nil, endpoints.Options{}), opts)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Query(t *testing.T) {
	s := newTestServer(ServerOptions{})

	w := serve(s, http.MethodPost, endpoints.ClaudePath, `{"prompt":"ping"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "echo: ping", body["response"])
}

func TestServer_BadJSON(t *testing.T) {
	s := newTestServer(ServerOptions{})

	w := serve(s, http.MethodPost, endpoints.ClaudePath, `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), endpoints.MsgInvalidJSON)
}

func TestServer_Preflight(t *testing.T) {
	s := newTestServer(ServerOptions{})

	for _, path := range []string{endpoints.HelloPath, endpoints.ClaudePath} {
		w := serve(s, http.MethodOptions, path, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestServer_Hello(t *testing.T) {
	s := newTestServer(ServerOptions{})

	w := serve(s, http.MethodGet, endpoints.HelloPath, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"endpoint":"/api/hello"`)
}

func TestServer_TrailingSlash(t *testing.T) {
	s := newTestServer(ServerOptions{RateLimitPerMin: 1})

	w := serve(s, http.MethodPost, endpoints.ClaudePath+"/", `{"prompt":"ping"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "echo: ping")

	w = serve(s, http.MethodPost, endpoints.ClaudePath, `{"prompt":"ping"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestServer_NotFound(t *testing.T) {
	s := newTestServer(ServerOptions{})

	w := serve(s, http.MethodGet, "/api/unknown", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestServer_BodyTooLarge(t *testing.T) {
	s := newTestServer(ServerOptions{MaxBodyBytes: 16})

	w := serve(s, http.MethodPost, endpoints.ClaudePath, `{"prompt":"this prompt is far too long"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(ServerOptions{MetricsEnabled: true})
	serve(s, http.MethodPost, endpoints.ClaudePath, `{"prompt":"ping"}`)

	w := serve(s, http.MethodGet, MetricsPath, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aiproxy_queries_total")
}

func TestServer_MetricsDisabled(t *testing.T) {
	s := newTestServer(ServerOptions{})

	w := serve(s, http.MethodGet, MetricsPath, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_RateLimit(t *testing.T) {
	s := newTestServer(ServerOptions{RateLimitPerMin: 1})

	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, endpoints.HelloPath, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, http.MethodGet, endpoints.HelloPath, "").Code)
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(ServerOptions{Addr: "127.0.0.1:0"})

	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))
}
