package endpoints

import (
	"context"
	"net/http"
	"runtime"

	"github.com/d1mk9/aiproxy/internal/models"
)

// Version is reported by every status check.
const Version = "1.0.0"

// StatusEndpoint answers read-only health checks with static metadata.
type StatusEndpoint struct {
	info models.StatusInfo
}

func NewStatusEndpoint() *StatusEndpoint {
	return &StatusEndpoint{info: models.StatusInfo{
		Status:   models.StatusSuccess,
		Message:  "Hello from Go API!",
		Endpoint: HelloPath,
		Version:  Version,
		Methods:  []string{http.MethodGet},
	}}
}

func queryStatus() models.StatusInfo {
	return models.StatusInfo{
		Status:    models.StatusSuccess,
		Message:   "AI query API is running",
		Endpoint:  ClaudePath,
		Version:   Version,
		GoVersion: runtime.Version(),
		Methods:   []string{http.MethodGet, http.MethodPost},
	}
}

func (e *StatusEndpoint) Serve(_ context.Context, method string, _ []byte) Reply {
	switch method {
	case http.MethodGet:
		return JSON(http.StatusOK, e.info)
	case http.MethodOptions:
		return Preflight()
	default:
		return MethodNotAllowed()
	}
}
