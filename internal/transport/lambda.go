package transport

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/d1mk9/aiproxy/internal/endpoints"
)

// LambdaHandler adapts the router to API Gateway proxy integrations.
func LambdaHandler(router *endpoints.Router) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return proxyResponse(endpoints.Error(http.StatusBadRequest, "Could not read request body")), nil
			}
			body = decoded
		}

		reply := router.Dispatch(ctx, endpoints.Request{
			Method: req.HTTPMethod,
			Path:   req.Path,
			Body:   body,
		})
		return proxyResponse(reply), nil
	}
}

func proxyResponse(reply endpoints.Reply) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(reply.Header))
	for k := range reply.Header {
		headers[k] = reply.Header.Get(k)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: reply.Status,
		Headers:    headers,
		Body:       string(reply.Body),
	}
}
