package service

import (
	"errors"

	"github.com/noah-isme/epiviu-api/internal/repository"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

// reportCachePattern matches every cached report range.
const reportCachePattern = "reports:*"

// storeError maps a repository failure onto the domain taxonomy. Callers
// handle the failure classes they can give a specific meaning to first.
func storeError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrUnavailable):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrForeignKey):
		return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
