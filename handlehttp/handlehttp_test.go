package handlehttp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHandler(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rc := RequestContextFromContext(r.Context())

		w.Header().Set("Content-Type", "text/plain")
		w.Header().Add("X-Seen", r.URL.Query().Get("q"))
		w.Header().Add("X-Seen", rc.RequestID)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(r.Method + " " + r.URL.Path + " " + string(body) + " " + r.Header.Get("Content-Type")))
	})

	payload, _ := json.Marshal(map[string]any{
		"version":        "2.0",
		"rawPath":        "/api/decode",
		"rawQueryString": "q=1",
		"headers":        map[string]string{"host": "example.com", "content-type": "application/json"},
		"requestContext": map[string]any{
			"requestId": "req-9",
			"http":      map[string]string{"method": "POST", "sourceIp": "203.0.113.9"},
		},
		"body":            base64.StdEncoding.EncodeToString([]byte(`{}`)),
		"isBase64Encoded": true,
	})

	out, err := WrapHandler(h).Invoke(context.Background(), payload)
	require.NoError(t, err)

	res := events.APIGatewayV2HTTPResponse{}
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, "1,req-9", res.Headers["X-Seen"])
	assert.True(t, res.IsBase64Encoded)

	body, err := base64.StdEncoding.DecodeString(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "POST /api/decode {} application/json", string(body))
}

func TestWrapHandlerHeaders(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept")
		w.Header().Add("Vary", "Origin")
		w.Header().Set("X-Cookies", fmt.Sprint(len(r.Cookies())))
		w.Header().Set("X-Remote", r.RemoteAddr)
	})

	payload, _ := json.Marshal(map[string]any{
		"version": "2.0",
		"rawPath": "/",
		"headers": map[string]string{"host": "example.com"},
		"cookies": []string{"a=1", "b=2"},
		"requestContext": map[string]any{
			"http": map[string]string{"method": "GET", "sourceIp": "198.51.100.4"},
		},
	})

	out, err := WrapHandler(h).Invoke(context.Background(), payload)
	require.NoError(t, err)

	res := events.APIGatewayV2HTTPResponse{}
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, "Accept,Origin", res.Headers["Vary"])
	assert.Equal(t, "2", res.Headers["X-Cookies"])
	assert.Equal(t, "198.51.100.4", res.Headers["X-Remote"])
}

func TestWrapHandlerRejectsOldPayloads(t *testing.T) {
	_, err := WrapHandler(http.NotFoundHandler()).Invoke(context.Background(), []byte(`{"version":"1.0"}`))
	assert.ErrorContains(t, err, "not 2.0")

	_, err = WrapHandler(http.NotFoundHandler()).Invoke(context.Background(), []byte(`nope`))
	assert.Error(t, err)
}

func TestRequestContextMissing(t *testing.T) {
	assert.Nil(t, RequestContextFromContext(context.Background()))
}
