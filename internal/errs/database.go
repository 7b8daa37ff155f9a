package errs

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// FromDB translates a storage error into the taxonomy. Messages are matched as a
// fallback for drivers that do not support gorm's TranslateError.
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: entity + " not found", Cause: err}
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"):
		return &Error{Kind: KindConflict, Message: entity + " already exists", Cause: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "violates foreign key"):
		return &Error{Kind: KindConflict, Message: entity + " is referenced by other records", Cause: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated),
		strings.Contains(msg, "check constraint"):
		return &Error{Kind: KindValidation, Message: entity + " violates a constraint", Cause: err}
	}
	return &Error{Kind: KindInternal, Message: "failed to access " + entity, Cause: err}
}

// IsUniqueViolation reports whether err comes from a unique index
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
