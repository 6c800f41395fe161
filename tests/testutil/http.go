// HTTP helpers for exercising handlers through a fully routed gin engine.

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PerformJSON serves a JSON request through the router and returns the
// response recorder. A nil body sends an empty request.
func PerformJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope parses the recorded response body as the API envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "Failed to parse response body")
	return envelope
}

// DecodeDataAs parses the envelope's data field into the provided type.
func DecodeDataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "Failed to parse response body")
	return envelope.Data
}

// AssertEnvelopeSuccess asserts the status code and a successful envelope,
// returning the decoded body for further checks.
func AssertEnvelopeSuccess(t *testing.T, w *httptest.ResponseRecorder, wantStatus int) map[string]interface{} {
	t.Helper()

	assert.Equal(t, wantStatus, w.Code, "Unexpected status code")
	envelope := DecodeEnvelope(t, w)
	success, _ := envelope["success"].(bool)
	assert.True(t, success, "Expected success envelope")
	assert.Nil(t, envelope["error"], "Expected no error in envelope")
	return envelope
}

// AssertEnvelopeError asserts the status code and the error code carried by
// the envelope.
func AssertEnvelopeError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) map[string]interface{} {
	t.Helper()

	assert.Equal(t, wantStatus, w.Code, "Unexpected status code")
	envelope := DecodeEnvelope(t, w)
	success, _ := envelope["success"].(bool)
	assert.False(t, success, "Expected error envelope")
	errObj, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok, "Expected error object in envelope")
	assert.Equal(t, wantCode, errObj["code"], "Unexpected error code")
	return envelope
}
