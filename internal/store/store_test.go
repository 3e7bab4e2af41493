package store

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is the fixed "current time" every store test runs at.
var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// newTestStore opens a private in-memory SQLite database with the full schema.
// One connection is enough; queries inside a transaction only ever use the tx handle.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(db, log).WithClock(func() time.Time { return testNow })
}

func mustUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, name+"@example.com", "hash")
	require.NoError(t, err)
	return u
}

func mustCourt(t *testing.T, s *Store, owner uint, name string, lat, lng float64) *models.Court {
	t.Helper()
	c, err := s.CreateCourt(context.Background(), CourtInput{
		Name: name, Address: name + " St", Lat: lat, Lng: lng, CreatedBy: owner,
	})
	require.NoError(t, err)
	return c
}

func mustGame(t *testing.T, s *Store, courtID, hostID uint, at time.Time, max int) *models.Game {
	t.Helper()
	g, err := s.CreateGame(context.Background(), GameInput{
		CourtID: courtID, HostID: hostID, Time: at, MaxPlayers: max,
	})
	require.NoError(t, err)
	return g
}

// insertPastGame bypasses CreateGame's future-time check.
func insertPastGame(t *testing.T, s *Store, courtID, hostID uint, at time.Time) *models.Game {
	t.Helper()
	g := models.Game{CourtID: courtID, HostID: hostID, Time: at.UTC(), MaxPlayers: models.DefaultMaxPlayers}
	require.NoError(t, s.db.Create(&g).Error)
	return &g
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "jordan", "jordan@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "jordan", "other@example.com", "hash")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.CreateUser(ctx, "pippen", "jordan@example.com", "hash")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCourtValidatesCoordinates(t *testing.T) {
	s := newTestStore(t)
	u := mustUser(t, s, "owner")

	for _, tc := range []struct{ lat, lng float64 }{{91, 0}, {-90.5, 0}, {0, 180.1}, {0, -181}} {
		_, err := s.CreateCourt(context.Background(), CourtInput{
			Name: "Bad", Address: "Nowhere", Lat: tc.lat, Lng: tc.lng, CreatedBy: u.ID,
		})
		assert.ErrorIs(t, err, ErrInvalidCoordinates, "lat=%v lng=%v", tc.lat, tc.lng)
	}

	c := mustCourt(t, s, u.ID, "Rucker", 40.8296, -73.9362)
	got, err := s.GetCourt(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rucker", got.Name)

	courts, err := s.ListCourts(context.Background())
	require.NoError(t, err)
	assert.Len(t, courts, 1)
}

func TestCreateGame(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	host := mustUser(t, s, "host")
	court := mustCourt(t, s, host.ID, "Court", 40, -75)

	g := mustGame(t, s, court.ID, host.ID, testNow.Add(time.Hour), 0)
	assert.Equal(t, models.DefaultMaxPlayers, g.MaxPlayers)

	roster, err := s.GetRoster(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, roster.CurrentPlayers(), "a new game starts with an empty roster")

	_, err = s.CreateGame(ctx, GameInput{CourtID: court.ID, HostID: host.ID, Time: testNow.Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrGameInPast)

	_, err = s.CreateGame(ctx, GameInput{CourtID: court.ID, HostID: host.ID, Time: testNow.Add(time.Hour), MaxPlayers: -2})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = s.CreateGame(ctx, GameInput{CourtID: 999, HostID: host.ID, Time: testNow.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsernamesByID(t *testing.T) {
	s := newTestStore(t)
	a := mustUser(t, s, "alice")
	b := mustUser(t, s, "bob")

	names, err := s.UsernamesByID(context.Background(), []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[uint]string{a.ID: "alice", b.ID: "bob"}, names)

	names, err = s.UsernamesByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}
