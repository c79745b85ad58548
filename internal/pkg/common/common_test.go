package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeList(t *testing.T) {
	assert.Equal(t, []string{"Thai", "Mediterranean"}, NormalizeList([]string{" Thai ", "", "Mediterranean", "Thai"}))
	assert.Equal(t, []string{}, NormalizeList(nil))
}

func TestRandomAlphanumeric(t *testing.T) {
	s := RandomAlphanumeric(9)
	assert.Regexp(t, `^[0-9a-z]{9}$`, s)
}

func TestGenerateUUID(t *testing.T) {
	assert.Regexp(t, `^[0-9a-f-]{36}$`, GenerateUUID())
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1}  "))
}

func TestParseJSON(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, ParseJSON(`{"prep_time_min": 30}`, &v))
	assert.Equal(t, json.Number("30"), v["prep_time_min"])

	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
	assert.Error(t, ParseJSON(`{"a":`, &v))
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", JoinList(nil))
	assert.Equal(t, "Vegan, Halal", JoinList([]string{"Vegan", "Halal"}))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "sk-1...wxyz", MaskSecret("sk-1234567890wxyz"))
}

func TestFilterFieldsDropsCredentials(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("api_key", "sk"),
		zap.String("Authorization", "Bearer x"),
		zap.String("relay_token", "anon"),
		zap.String("model", "deepseek-chat"),
	})
	require.Len(t, fields, 1)
	assert.Equal(t, "model", fields[0].Key)
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	WriteError(c, ErrGenerationFailed.Wrap(assert.AnError), true)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GENERATION_FAILED", resp.Code)
	assert.Equal(t, "Failed to generate recipes. Please try again.", resp.Message)
	assert.Equal(t, assert.AnError.Error(), resp.Details)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	WriteError(c, ErrGenerationFailed.Wrap(assert.AnError), false)
	assert.NotContains(t, w.Body.String(), "details")
}

func TestPredefinedErrorStatus(t *testing.T) {
	tests := []struct {
		err    *CustomError
		code   string
		status int
	}{
		{ErrInvalidRequest, ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrUnauthorized, ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrNotFound, ErrCodeNotFound, http.StatusNotFound},
		{ErrTooManyRequests, ErrCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrInternalError, ErrCodeInternalError, http.StatusInternalServerError},
		{ErrGatewayTimeout, ErrCodeGatewayTimeout, http.StatusGatewayTimeout},
		{ErrGenerationInProgress, "GENERATION_IN_PROGRESS", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			WriteError(c, tt.err, false)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
