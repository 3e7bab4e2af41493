// Package store is the repository layer: every query the application runs lives here,
// expressed as explicit functions over foreign keys. Handlers never touch *gorm.DB directly.
//
// Each mutating operation runs inside a single database transaction, so a failure part way
// through leaves nothing behind. Storage errors are translated into the domain errors in
// errors.go before they leave the package.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxUpsertAttempts bounds how often an upsert is re-run after losing a race on its unique key.
const maxUpsertAttempts = 3

// Store wraps the GORM handle plus the few ambient things queries need.
type Store struct {
	db  *gorm.DB
	log logrus.FieldLogger
	now func() time.Time
}

// New returns a Store that uses db for all queries and log for warnings.
func New(db *gorm.DB, log logrus.FieldLogger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

// WithClock returns a copy of the store that reads the current time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// Now is the store's notion of the current time, in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// tx runs fn inside a transaction bound to ctx and translates whatever it returns.
// Returning an error from fn rolls the transaction back; nil commits it.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return translate(s.db.WithContext(ctx).Transaction(fn))
}

// withRetry re-runs an upsert when it loses a race on its unique key (or hits a
// serialization failure), up to maxUpsertAttempts times. When every attempt loses, the
// result is a conflict carrying ErrTryAgain's message, with the last storage error wrapped.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.WithError(err).WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
		}).Warn("upsert lost a race; retrying")
	}
	return &Error{
		Kind: ErrTryAgain.Kind,
		Msg:  ErrTryAgain.Msg,
		Err:  fmt.Errorf("%s: gave up after %d attempts: %w", op, maxUpsertAttempts, err),
	}
}

// lockGame loads a game row and, on databases that support it, locks it for the rest of the
// transaction. Roster changes serialise on this lock so two joins can't both take the last spot.
func lockGame(tx *gorm.DB, gameID uint) (models.Game, error) {
	var game models.Game
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", gameID).
		Take(&game).Error
	if err != nil {
		return game, notFound("game", gameID, err)
	}
	return game, nil
}

// notFound wraps gorm.ErrRecordNotFound as ErrNotFound naming the entity; other errors pass through.
func notFound(entity string, id uint, err error) error {
	if translate(err) == ErrNotFound {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return err
}
