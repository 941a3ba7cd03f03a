package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

const ContextPrincipal = "principal"

// SubjectResolver loads the account a verified token points at
type SubjectResolver interface {
	Resolve(ctx context.Context, subject auth.Subject) (*model.Principal, error)
}

type AuthMiddleware struct {
	tokens   auth.JWTService
	resolver SubjectResolver
}

func NewAuthMiddleware(tokens auth.JWTService, resolver SubjectResolver) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		resolver: resolver,
	}
}

// Authenticate verifies the bearer access token and attaches the principal
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperrors.Unauthorized("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, apperrors.Unauthorized("invalid authorization format", nil))
			return
		}

		claims, err := m.tokens.VerifyAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			abort(c, apperrors.Unauthorized(msg, err))
			return
		}

		subject, err := claims.Subject()
		if err != nil {
			abort(c, apperrors.Unauthorized("invalid token", err))
			return
		}

		principal, err := m.resolver.Resolve(c.Request.Context(), subject)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// RequireKind rejects principals of any other subject kind
func RequireKind(kinds ...auth.SubjectKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			abort(c, apperrors.Unauthorized("", nil))
			return
		}
		for _, k := range kinds {
			if p.Kind == k {
				c.Next()
				return
			}
		}
		abort(c, apperrors.Forbidden("not allowed for "+string(p.Kind)+" accounts"))
	}
}

// RequireClinicAccess lets through clinics and professionals acting for the
// clinic named by the path parameter.
func RequireClinicAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, err := uuid.Parse(c.Param(param))
		if err != nil {
			abort(c, apperrors.Validation("invalid clinic id", err))
			return
		}
		if !CurrentPrincipal(c).CanManageClinic(clinicID) {
			abort(c, apperrors.Forbidden("no access to this clinic"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated caller, nil on public routes
func CurrentPrincipal(c *gin.Context) *model.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*model.Principal)
	return p
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
