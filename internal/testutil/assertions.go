package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and that the body mentions expectedMessage
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertFieldError verifies a 400 with {"field": ["message"]}
func AssertFieldError(t *testing.T, resp *http.Response, field, expectedMessage string) {
	t.Helper()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "unexpected status code")

	var body map[string][]string
	AssertJSONResponse(t, resp, &body)
	require.Contains(t, body, field, "missing error for %s: %v", field, body)
	assert.Contains(t, body[field], expectedMessage)
}

// AssertBearerChallenge verifies a 401 carrying a Bearer challenge
func AssertBearerChallenge(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "unexpected status code")
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}
