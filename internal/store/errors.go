package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// CodeDuplicateHumanID means a write collided with an existing human ID
	// of the same kind.
	CodeDuplicateHumanID ErrorCode = "DUPLICATE_HUMAN_ID"

	// CodeStorage means the database rejected or failed a statement.
	CodeStorage ErrorCode = "STORAGE"

	// CodeInvalidRecord means the record cannot be stored as given.
	CodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error is returned for failures the caller may want to tell apart.
type Error struct {
	Code ErrorCode

	// Op names the failed operation and its table, e.g. "insert person".
	Op string

	// Key is the handle, human ID or metadata key involved, if any.
	Key string

	Err error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDuplicateHumanID reports whether err is a human ID collision.
func IsDuplicateHumanID(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeDuplicateHumanID
}

// IsStorageFailure reports whether err came from the database.
func IsStorageFailure(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeStorage
}

// IsInvalidRecord reports whether err rejected a malformed record.
func IsInvalidRecord(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeInvalidRecord
}

// storageError wraps a driver error, promoting unique human ID violations.
func storageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	code := CodeStorage
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		code = CodeDuplicateHumanID
	}
	return &Error{Code: code, Op: op, Key: key, Err: err}
}
