// Package testutil provides common test utilities for handler and router tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the response body of the information API. Information and
// Person stay raw so callers decode them into whatever shape they assert on.
type Envelope struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	Information json.RawMessage `json:"information"`
	Person      json.RawMessage `json:"person"`
}

// NewJSONRequest creates an HTTP request with JSON body.
// The body is marshaled to JSON automatically; a nil body sends none.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequestWithBody creates an HTTP request with a raw string body, for
// malformed JSON or values a map[string]string cannot carry.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeEnvelope unmarshals the response body as an Envelope.
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "failed to unmarshal envelope: %s", rr.Body.String())
	return env
}

// DecodeInto unmarshals a raw envelope field into T.
func DecodeInto[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NotEmpty(t, raw, "expected a payload")
	require.NoError(t, json.Unmarshal(raw, &out), "failed to unmarshal payload")
	return out
}

// AssertOK asserts HTTP 200 with status "OK" and returns the envelope.
func AssertOK(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	assert.Equal(t, http.StatusOK, rr.Code, "unexpected status code")
	env := DecodeEnvelope(t, rr)
	assert.Equal(t, "OK", env.Status, "unexpected envelope status (message %q)", env.Message)
	return env
}

// AssertEnvelopeError asserts the HTTP status and an "ERROR" envelope
// carrying message.
func AssertEnvelopeError(t *testing.T, rr *httptest.ResponseRecorder, httpStatus int, message string) {
	t.Helper()
	assert.Equal(t, httpStatus, rr.Code, "unexpected status code")
	env := DecodeEnvelope(t, rr)
	assert.Equal(t, "ERROR", env.Status)
	assert.Equal(t, message, env.Message)
	assert.Empty(t, env.Information)
	assert.Empty(t, env.Person)
}
