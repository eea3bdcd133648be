package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors dto.Response with the data left raw for typed decoding.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// APIClient sends authenticated JSON requests to an in-process handler.
type APIClient struct {
	Handler http.Handler
	Token   string
	Headers map[string]string
}

// NewAPIClient creates a client that signs its requests with a token for the
// given tenant and user.
func NewAPIClient(t *testing.T, h http.Handler, jwt *auth.JWTService, tenantID, userID uuid.UUID, perms ...string) *APIClient {
	t.Helper()
	token, _, err := jwt.GenerateAccessToken(auth.TokenInput{
		TenantID:    tenantID,
		UserID:      userID,
		Username:    "tester",
		Permissions: perms,
	})
	require.NoError(t, err)
	return &APIClient{Handler: h, Token: token}
}

// Do sends body as JSON and returns the recorded response.
func (c *APIClient) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope parses the response envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DecodeData requires the expected status and parses the data field as T.
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())

	var out T
	env := DecodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// ErrorCode requires the expected status and returns the error code.
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())

	env := DecodeEnvelope(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}
