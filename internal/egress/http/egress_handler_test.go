package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereignos/guard/internal/egress"
	"github.com/sovereignos/guard/internal/egress/http/dto"
)

func setupEgressTestHandler(t *testing.T) *EgressHandler {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	guard := egress.NewGuard(egress.Policy{
		AllowedHosts: []string{"api.example.com"},
		BlockedHosts: []string{"internal.example.com"},
	})

	return NewEgressHandler(guard, logger)
}

func createTestContext(body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/egress/check", bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func TestEgressHandler_CheckHandler(t *testing.T) {
	t.Run("AllowedURL", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{URL: "https://api.example.com/v1/chat"})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.CheckEgressResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Allowed)
		assert.Equal(t, "https://api.example.com/v1/chat", response.URL)
	})

	t.Run("BlockedHost_403", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{URL: "https://internal.example.com/admin"})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "forbidden", response["error"])
	})

	t.Run("PrivateAddress_403", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{URL: "http://169.254.169.254/latest/meta-data/"})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DisallowedScheme_403", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{URL: "file:///etc/passwd"})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("MalformedURL_422", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{URL: "not a url at all"})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("MissingURL_422", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(dto.CheckEgressRequest{})

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler := setupEgressTestHandler(t)

		c, w := createTestContext(nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.CheckHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
