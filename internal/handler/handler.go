// Package handler holds the request helpers shared by the entity handlers.
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/model"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

// ParamUUID parses a path parameter. On failure the error is pushed and the
// handler should return.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional query parameter
func QueryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+name, err))
		return nil, false
	}
	return &id, true
}

// QueryBool reads an optional boolean query parameter
func QueryBool(c *gin.Context, name string, def bool) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+name, err))
		return false, false
	}
	return v, true
}

// BindJSON decodes and validates the body. Field validation errors are
// forwarded as is so the error middleware can list them.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			_ = c.Error(err)
		} else {
			_ = c.Error(apperrors.Validation("invalid request body", err))
		}
		return false
	}
	return true
}

// Pagination reads page and page_size from the query string
func Pagination(c *gin.Context) (model.Pagination, bool) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(apperrors.Validation("invalid pagination", err))
		return p, false
	}
	return p.Normalize(), true
}
