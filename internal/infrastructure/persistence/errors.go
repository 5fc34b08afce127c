package persistence

import (
	"errors"

	"github.com/flowershop/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors to domain errors. Anything unknown is
// returned unchanged.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}
