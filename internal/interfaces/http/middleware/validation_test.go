package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type receiptLine struct {
		ProductID string  `json:"product_id" binding:"required,uuid"`
		Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	}

	SetupValidator()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req receiptLine
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns field details for invalid input", func(t *testing.T) {
		body := strings.NewReader(`{"product_id": "not-a-uuid", "quantity": 0}`)
		req := httptest.NewRequest("POST", "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "product_id", resp.Error.Details[0].Field)
	})

	t.Run("passes valid input through", func(t *testing.T) {
		body := strings.NewReader(`{"product_id": "a3bb189e-8bf9-3888-9912-ace4e6543002", "quantity": 5}`)
		req := httptest.NewRequest("POST", "/test", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		UUID     string `validate:"omitempty,uuid"`
		OneOf    string `validate:"omitempty,oneof=good damaged expired"`
		GT       int    `validate:"omitempty,gt=0"`
	}

	v := validator.New()

	tests := []struct {
		field    string
		obj      input
		expected string
	}{
		{"Required", input{}, "This field is required"},
		{"Min", input{Required: "x", Min: "ab"}, "Must be at least 5 characters"},
		{"UUID", input{Required: "x", Min: "abcde", UUID: "nope"}, "Invalid UUID format"},
		{"OneOf", input{Required: "x", Min: "abcde", OneOf: "broken"}, "Must be one of: good damaged expired"},
		{"GT", input{Required: "x", Min: "abcde", GT: -1}, "Must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			err := v.Struct(tt.obj)
			require.Error(t, err)
			validationErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			for _, e := range validationErrs {
				if e.StructField() == tt.field {
					assert.Equal(t, tt.expected, getValidationMessage(e))
					return
				}
			}
			t.Fatalf("no validation error produced for field %s", tt.field)
		})
	}
}
