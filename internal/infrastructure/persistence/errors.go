package persistence

import (
	"errors"

	"github.com/tradeledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// notFoundOr maps gorm's record-not-found to a domain NotFound error and
// returns any other error unchanged.
func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}

func staleWrite(resource string) error {
	return shared.NewConflictError("the " + resource + " record has been modified by another transaction")
}
