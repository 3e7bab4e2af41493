package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies a store error so the HTTP layer can pick a status code without
// knowing about every individual error value.
type Kind int

const (
	KindInternal   Kind = iota // Storage failure or bug; never shown to the user verbatim
	KindValidation             // Bad input; nothing was written
	KindConflict               // The request collides with current state (already joined, full, taken)
	KindNotFound               // Unknown id, or not a member when leaving
	KindForbidden              // Authenticated but not allowed to act on this resource
)

// Error is a domain error with a user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	// Err is the underlying cause, kept for logs and errors.As. It is never shown to users.
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	ErrNotFound = newErr(KindNotFound, "not found")

	ErrUsernameTaken = newErr(KindConflict, "username already registered")
	ErrEmailTaken    = newErr(KindConflict, "email already registered")

	ErrInvalidCoordinates = newErr(KindValidation, "lat must be within [-90, 90] and lng within [-180, 180]")
	ErrInvalidRadius      = newErr(KindValidation, "radius must be a positive number of kilometers")

	ErrGameInPast          = newErr(KindValidation, "game time must be in the future")
	ErrInvalidCapacity     = newErr(KindValidation, "max_players must be at least 1")
	ErrCapacityBelowRoster = newErr(KindConflict, "max_players cannot be lower than the current roster")
	ErrNotHost             = newErr(KindForbidden, "only the host can change this game")

	ErrAlreadyJoined = newErr(KindConflict, "already in this game")
	ErrGameFull      = newErr(KindConflict, "game is full")
	ErrNotInGame     = newErr(KindNotFound, "not in this game")

	ErrNotRosterMember = newErr(KindForbidden, "only players in this game can do that")
	ErrInvalidStat     = newErr(KindValidation, "points, rebounds and assists must be whole numbers of at least 0")

	ErrSelfRating       = newErr(KindValidation, "you cannot rate yourself")
	ErrRatingOutOfRange = newErr(KindValidation, "rating must be between 1 and 5")
	ErrRateeNotInGame   = newErr(KindValidation, "that player was not in this game")

	ErrTryAgain = newErr(KindConflict, "another change to this game got there first; please try again")

	errConstraint = newErr(KindValidation, "value rejected by a database constraint")
)

// KindOf returns the Kind of err, or KindInternal for anything that isn't a store *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Postgres SQLSTATE codes we translate. See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// The tests run on SQLite, which reports constraint failures only through the message text.
const (
	sqliteUnique     = "UNIQUE constraint failed"
	sqliteForeignKey = "FOREIGN KEY constraint failed"
	sqliteCheck      = "CHECK constraint failed"
)

func pgCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if code, ok := pgCode(err); ok {
		return code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), sqliteUnique)
}

func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	if code, ok := pgCode(err); ok {
		return code == pgCheckViolation
	}
	return strings.Contains(err.Error(), sqliteCheck)
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	if code, ok := pgCode(err); ok {
		return code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), sqliteForeignKey)
}

// isRetryable reports whether an upsert attempt lost a race and should simply run again.
func isRetryable(err error) bool {
	if isUniqueViolation(err) {
		return true
	}
	code, ok := pgCode(err)
	return ok && (code == pgSerializationFailure || code == pgDeadlockDetected)
}

// violatedConstraint returns the constraint (Postgres) or column list (SQLite) named by a
// unique violation, for telling a taken username apart from a taken email.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	msg := err.Error()
	if i := strings.Index(msg, sqliteUnique); i >= 0 {
		return strings.TrimSpace(strings.TrimPrefix(msg[i+len(sqliteUnique):], ":"))
	}
	return ""
}

// translate maps storage errors onto domain errors. Domain errors pass through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case KindOf(err) != KindInternal:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isForeignKeyViolation(err):
		return ErrNotFound
	case isCheckViolation(err):
		return errConstraint
	}
	return err
}
