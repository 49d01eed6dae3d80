package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername indicates the username unique index was violated.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail indicates the email unique index was violated.
	ErrDuplicateEmail = errors.New("email already registered")
)

const mysqlDuplicateEntry = 1062

// translateUserError maps driver-level failures onto the store error taxonomy.
// Uniqueness is enforced by the database indexes, so concurrent registrations
// surface here rather than in handler logic.
func translateUserError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		// Attribution must look at the index name only. The message also
		// carries the duplicated value, and a username like "myemail" would
		// otherwise be blamed on the wrong column.
		key := strings.ToLower(duplicateKeyName(mysqlErr.Message))
		if strings.Contains(key, "email") {
			return ErrDuplicateEmail
		}
		if strings.Contains(key, "username") {
			return ErrDuplicateUsername
		}
		// Duplicate on an index we cannot attribute; report the username
		// variant so callers still see a uniqueness failure.
		return ErrDuplicateUsername
	}
	return err
}

// duplicateKeyName extracts the index name from a MySQL duplicate-entry
// message, e.g. "Duplicate entry 'x' for key 'users.idx_users_email'".
func duplicateKeyName(msg string) string {
	const marker = " for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexByte(rest, '\''); j >= 0 {
		return rest[:j]
	}
	return rest
}

func translateLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
