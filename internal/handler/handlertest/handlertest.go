// Package handlertest wires entity handlers onto a bare gin engine for tests.
package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/validator"
)

// Registrar is implemented by every entity handler
type Registrar interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// NewRouter mounts h the way the router does, with principal standing in
// for a verified token. A nil principal makes protected routes answer 401.
func NewRouter(t *testing.T, h Registrar, principal *model.Principal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterWithGin())

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	public := r.Group("/api/v1")
	protected := r.Group("/api/v1", func(c *gin.Context) {
		if principal == nil {
			_ = c.Error(apperrors.Unauthorized("missing authorization header", nil))
			c.Abort()
			return
		}
		c.Set(middleware.ContextPrincipal, principal)
		c.Next()
	})
	h.RegisterRoutes(public, protected)
	return r
}

// Do sends a request with an optional JSON body
func Do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Envelope mirrors the response envelope with the payload left raw
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Fields  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
}

// Decode parses the envelope and, when out is non-nil, its data
func Decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func User(id uuid.UUID) *model.Principal {
	return &model.Principal{
		ID:   id,
		Kind: auth.SubjectUser,
		User: &model.User{Base: model.Base{ID: id}, FirstName: "Ana"},
	}
}

func Clinic(id uuid.UUID) *model.Principal {
	return &model.Principal{
		ID:       id,
		Kind:     auth.SubjectClinic,
		ClinicID: &id,
		Clinic:   &model.Clinic{Base: model.Base{ID: id}, Name: "Glow"},
	}
}

func Professional(id, clinicID uuid.UUID) *model.Principal {
	return &model.Principal{
		ID:           id,
		Kind:         auth.SubjectProfessional,
		ClinicID:     &clinicID,
		Professional: &model.Professional{Base: model.Base{ID: id}, ClinicID: clinicID},
	}
}
