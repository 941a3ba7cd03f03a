// Package service holds helpers shared by the domain services.
package service

import (
	"errors"

	"github.com/jwalitptl/beauty-api/internal/repository"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
)

// RepoError translates repository sentinels into application errors
func RepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict(resource+" already exists or was modified", err)
	default:
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return apperrors.Internal(err)
	}
}
