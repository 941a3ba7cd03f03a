package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/beauty-api/internal/model"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, target, body string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestParamUUID(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")
	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	got, ok := ParamUUID(c, "id")
	require.True(t, ok)
	assert.Equal(t, id, got)

	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, ok = ParamUUID(c, "id")
	assert.False(t, ok)
	require.Len(t, c.Errors, 1)
	assert.True(t, apperrors.IsKind(c.Errors.Last().Err, apperrors.KindValidation))
}

func TestBindJSON(t *testing.T) {
	var req model.CancelAppointmentRequest

	c := newContext(http.MethodPost, "/", `{"reason":"sick"}`)
	require.True(t, BindJSON(c, &req))
	assert.Equal(t, "sick", req.Reason)

	c = newContext(http.MethodPost, "/", `{"reason":`)
	assert.False(t, BindJSON(c, &req))
	assert.True(t, apperrors.IsKind(c.Errors.Last().Err, apperrors.KindValidation))
}

func TestQueryHelpers(t *testing.T) {
	c := newContext(http.MethodGet, "/?active=false&page=3&page_size=500&clinic_id=bad", "")

	active, ok := QueryBool(c, "active", true)
	require.True(t, ok)
	assert.False(t, active)

	p, ok := Pagination(c)
	require.True(t, ok)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, model.MaxPageSize, p.PageSize)

	_, ok = QueryUUID(c, "clinic_id")
	assert.False(t, ok)

	missing, ok := QueryUUID(c, "professional_id")
	assert.True(t, ok)
	assert.Nil(t, missing)
}
