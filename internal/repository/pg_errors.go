package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// ErrReferenceNotFound is returned when an insert points at a row that does not exist.
var ErrReferenceNotFound = errors.New("referenced row not found")

// ErrDuplicate is returned when an insert collides with a unique key.
var ErrDuplicate = errors.New("duplicate row")

// ErrValueOutOfRange is returned when a value fails a CHECK constraint or does
// not fit its numeric column.
var ErrValueOutOfRange = errors.New("value out of range")

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// classifyPgError maps constraint violations onto repository sentinels and keeps
// every other error untouched.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case pgerrcode.ForeignKeyViolation:
		return errors.Join(ErrReferenceNotFound, err)
	case pgerrcode.UniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
		return errors.Join(ErrValueOutOfRange, err)
	}
	return err
}
