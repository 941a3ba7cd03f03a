package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

func recordWith(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperrors.NotFound("clinic", nil), http.StatusNotFound, "clinic not found"},
		{"conflict", apperrors.Conflict("slug already taken", nil), http.StatusConflict, "slug already taken"},
		{"plain error hides details", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := recordWith(func(c *gin.Context) { RespondWithError(c, tt.err) })

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.status, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestRespondWithPagination(t *testing.T) {
	w := recordWith(func(c *gin.Context) {
		RespondWithPagination(c, []string{"a", "b"}, 2, 2, 5)
	})

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Data       []string   `json:"data"`
			Pagination Pagination `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data.Data)
	assert.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, TotalPage: 3}, resp.Data.Pagination)
}

func TestRespondWithSuccessOmitsError(t *testing.T) {
	w := recordWith(func(c *gin.Context) { RespondWithCreated(c, map[string]string{"id": "x"}) })

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"x"}}`, w.Body.String())
}
