package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseJSON(t *testing.T) {
	var out map[string]any
	require.NoError(t, ParseJSON(`{"servings": 4}`, &out))
	assert.Equal(t, json.Number("4"), out["servings"])

	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &out))
	assert.Error(t, ParseJSON(`{"a":1} null`, &out))
	assert.Error(t, ParseJSON(`{"a":`, &out))

	var list []any
	require.NoError(t, DecodeJSON(strings.NewReader(" [1, \"x\"] \n"), &list))
	assert.Len(t, list, 2)
}

func TestCustomErrorIs(t *testing.T) {
	wrapped := ErrNotFound.Wrap(errors.New("record not found"))

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
	assert.True(t, errors.Is(fmt.Errorf("loading: %w", wrapped), ErrNotFound))
	assert.Equal(t, "resource not found: record not found", wrapped.Error())
	assert.Nil(t, ErrNotFound.Err)
}

func TestValidationError(t *testing.T) {
	err := NewFieldValidationError(map[string]string{
		"title":    "this field is required",
		"servings": "ensure this value is greater than or equal to 1",
	})

	assert.True(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidationError(ErrNotFound))
	assert.Equal(t, "invalid payload (servings: ensure this value is greater than or equal to 1; title: this field is required)", err.Error())
	assert.Equal(t, "Ingredient is required", NewValidationError("Ingredient is required").Error())
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	respond := func(err error) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		RespondError(c, err)
		return w
	}

	t.Run("field validation", func(t *testing.T) {
		w := respond(NewFieldValidationError(map[string]string{"title": "this field is required"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"title":"this field is required"}`, w.Body.String())
	})

	t.Run("message validation", func(t *testing.T) {
		w := respond(NewValidationError("Ingredient is required"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Ingredient is required"}`, w.Body.String())
	})

	t.Run("custom error", func(t *testing.T) {
		w := respond(ErrProviderFailure.Wrap(errors.New("upstream 500")))
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, ErrCodeAIService, body.Code)
		assert.Equal(t, "AI provider request failed", body.Message)
	})

	t.Run("unknown error", func(t *testing.T) {
		w := respond(errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), ErrCodeInternalError)
	})
}

func TestFilterFields(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("groq_api_key", "gsk_secret"),
		zap.String("Authorization", "Bearer x"),
		zap.String("model", "llama"),
	})

	require.Len(t, fields, 1)
	assert.Equal(t, "model", fields[0].Key)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
