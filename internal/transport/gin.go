package transport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d1mk9/aiproxy/internal/endpoints"
)

// GinHandler adapts the router to gin. Bodies above maxBody are rejected
// with 413.
func GinHandler(router *endpoints.Router, maxBody int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			b, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeReply(c, endpoints.Error(http.StatusRequestEntityTooLarge, "Request body too large"))
					return
				}
				writeReply(c, endpoints.Error(http.StatusBadRequest, "Could not read request body"))
				return
			}
			body = b
		}

		reply := router.Dispatch(c.Request.Context(), endpoints.Request{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Body:   body,
		})
		writeReply(c, reply)
	}
}

func writeReply(c *gin.Context, reply endpoints.Reply) {
	h := c.Writer.Header()
	for k, vs := range reply.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	c.Status(reply.Status)
	c.Writer.WriteHeaderNow()
	if len(reply.Body) > 0 {
		_, _ = c.Writer.Write(reply.Body)
	}
}
