package endpoints

import (
	"net/http"

	"github.com/apex/log"

	"github.com/d1mk9/aiproxy/internal/models"
	"github.com/d1mk9/aiproxy/internal/utils"
)

// Reply is a transport-neutral HTTP response.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// corsHeader returns the permissive cross-origin headers every reply carries.
func corsHeader() http.Header {
	h := make(http.Header)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	return h
}

// JSON encodes v as the reply body.
func JSON(status int, v any) Reply {
	body, err := utils.MarshalJSON(v)
	if err != nil {
		log.WithError(err).Error("reply.marshal.failed")
		status = http.StatusInternalServerError
		body = []byte(`{"status":"error","message":"Internal server error"}`)
	}
	h := corsHeader()
	h.Set("Content-Type", "application/json")
	return Reply{Status: status, Header: h, Body: body}
}

// Error builds the error envelope.
func Error(status int, message string) Reply {
	return JSON(status, models.ErrorResponse{
		Status:    models.StatusError,
		Message:   message,
		Timestamp: utils.Timestamp(),
	})
}

// Preflight answers OPTIONS with CORS headers and no body.
func Preflight() Reply {
	return Reply{Status: http.StatusOK, Header: corsHeader()}
}

// MethodNotAllowed is returned for verbs an endpoint does not serve.
func MethodNotAllowed() Reply {
	return Error(http.StatusMethodNotAllowed, "Method not allowed")
}
