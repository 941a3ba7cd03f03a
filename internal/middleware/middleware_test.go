package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	err error
}

func (r stubResolver) Resolve(_ context.Context, subject auth.Subject) (*model.Principal, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &model.Principal{ID: subject.ID, Kind: subject.Kind}, nil
}

func newIssuer(t *testing.T, now time.Time) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return issuer.WithClock(func() time.Time { return now })
}

func newRouter(m *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	handlers := append([]gin.HandlerFunc{m.Authenticate()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p := CurrentPrincipal(c)
		httputil.RespondWithSuccess(c, gin.H{"id": p.ID, "kind": p.Kind})
	})
	r.GET("/me", handlers...)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	now := time.Now()
	issuer := newIssuer(t, now)
	subject := auth.Subject{ID: uuid.New(), Kind: auth.SubjectUser}
	pair, err := issuer.Issue(subject)
	require.NoError(t, err)

	expired, err := newIssuer(t, now.Add(-2*time.Hour)).Issue(subject)
	require.NoError(t, err)

	router := newRouter(NewAuthMiddleware(issuer, stubResolver{}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid", header: "Bearer " + pair.AccessToken, status: http.StatusOK},
		{name: "missing header", status: http.StatusUnauthorized, message: "missing authorization header"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, message: "invalid authorization format"},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized, message: "invalid authorization format"},
		{name: "garbage", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, message: "invalid token"},
		{name: "refresh token", header: "Bearer " + pair.RefreshToken, status: http.StatusUnauthorized, message: "invalid token"},
		{name: "expired", header: "Bearer " + expired.AccessToken, status: http.StatusUnauthorized, message: "token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.header)
			assert.Equal(t, tt.status, w.Code)

			resp := decode(t, w)
			if tt.status == http.StatusOK {
				assert.True(t, resp.Success)
				return
			}
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.status, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestAuthenticateInactiveSubject(t *testing.T) {
	issuer := newIssuer(t, time.Now())
	pair, err := issuer.Issue(auth.Subject{ID: uuid.New(), Kind: auth.SubjectClinic})
	require.NoError(t, err)

	router := newRouter(NewAuthMiddleware(issuer, stubResolver{err: apperrors.Unauthorized("account is inactive", nil)}))
	w := get(router, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "account is inactive", decode(t, w).Error.Message)
}

func TestRequireKind(t *testing.T) {
	issuer := newIssuer(t, time.Now())
	router := newRouter(NewAuthMiddleware(issuer, stubResolver{}), RequireKind(auth.SubjectClinic, auth.SubjectProfessional))

	user, err := issuer.Issue(auth.Subject{ID: uuid.New(), Kind: auth.SubjectUser})
	require.NoError(t, err)
	w := get(router, "Bearer "+user.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	clinic, err := issuer.Issue(auth.Subject{ID: uuid.New(), Kind: auth.SubjectClinic})
	require.NoError(t, err)
	w = get(router, "Bearer "+clinic.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: apperrors.NotFound("clinic", nil), status: http.StatusNotFound, message: "clinic not found"},
		{name: "conflict", err: apperrors.Conflict("slot taken", nil), status: http.StatusConflict, message: "slot taken"},
		{name: "validation", err: apperrors.Validation("bad date", nil), status: http.StatusBadRequest, message: "bad date"},
		{name: "forbidden", err: apperrors.Forbidden(""), status: http.StatusForbidden, message: "forbidden"},
		{name: "unknown", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), ErrorHandler())
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestErrorHandlerValidationFields(t *testing.T) {
	type body struct {
		Email string `json:"email" binding:"required,email"`
	}
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/bind", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			_ = c.Error(err)
			return
		}
		httputil.RespondWithSuccess(c, b)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bind", jsonBody(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "invalid email format", resp.Error.Fields[0].Message)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Error.Message)
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})
	r := gin.New()
	r.Use(ErrorHandler(), limiter.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com"}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"a":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequireClinicAccess(t *testing.T) {
	issuer := newIssuer(t, time.Now())
	clinicID := uuid.New()
	resolver := clinicResolver{clinicID: clinicID}

	r := gin.New()
	r.Use(ErrorHandler())
	m := NewAuthMiddleware(issuer, resolver)
	r.PUT("/clinics/:id", m.Authenticate(), RequireClinicAccess("id"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	call := func(kind auth.SubjectKind, path string) int {
		pair, err := issuer.Issue(auth.Subject{ID: uuid.New(), Kind: kind})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPut, path, nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call(auth.SubjectClinic, "/clinics/"+clinicID.String()))
	assert.Equal(t, http.StatusNoContent, call(auth.SubjectProfessional, "/clinics/"+clinicID.String()))
	assert.Equal(t, http.StatusForbidden, call(auth.SubjectUser, "/clinics/"+clinicID.String()))
	assert.Equal(t, http.StatusForbidden, call(auth.SubjectClinic, "/clinics/"+uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, call(auth.SubjectClinic, "/clinics/not-a-uuid"))
}

// clinicResolver attaches every subject to one clinic
type clinicResolver struct {
	clinicID uuid.UUID
}

func (r clinicResolver) Resolve(_ context.Context, subject auth.Subject) (*model.Principal, error) {
	id := r.clinicID
	return &model.Principal{ID: subject.ID, Kind: subject.Kind, ClinicID: &id}, nil
}
