package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trentd187/pickup-run/internal/models"
)

type fixture struct {
	s     *Store
	host  *models.User
	guest *models.User
	game  *models.Game
}

// newFixture sets up a game with host and guest on the roster.
func newFixture(t *testing.T) fixture {
	t.Helper()
	s := newTestStore(t)
	host := mustUser(t, s, "host")
	guest := mustUser(t, s, "guest")
	court := mustCourt(t, s, host.ID, "Court", 40, -75)
	game := mustGame(t, s, court.ID, host.ID, testNow.Add(time.Hour), 10)
	for _, u := range []uint{host.ID, guest.ID} {
		_, err := s.JoinGame(context.Background(), game.ID, u)
		require.NoError(t, err)
	}
	return fixture{s: s, host: host, guest: guest, game: game}
}

func countRows(t *testing.T, s *Store, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestSubmitStatsTwiceKeepsOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.s.SubmitStats(ctx, StatsInput{GameID: f.game.ID, UserID: f.guest.ID, Points: 12, Rebounds: 4, Assists: 3})
	require.NoError(t, err)
	assert.Equal(t, 12, first.Points)

	second, err := f.s.SubmitStats(ctx, StatsInput{GameID: f.game.ID, UserID: f.guest.ID, Points: 20, Rebounds: 0, Assists: 7})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 20, second.Points)
	assert.Equal(t, 0, second.Rebounds)
	assert.Equal(t, 7, second.Assists)
	assert.Equal(t, int64(1), countRows(t, f.s, &models.PlayerStats{}))

	stats, err := f.s.ListStats(ctx, f.game.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 20, stats[0].Points)
}

func TestSubmitStatsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outsider := mustUser(t, f.s, "outsider")

	_, err := f.s.SubmitStats(ctx, StatsInput{GameID: f.game.ID, UserID: f.guest.ID, Points: -1})
	assert.ErrorIs(t, err, ErrInvalidStat)

	_, err = f.s.SubmitStats(ctx, StatsInput{GameID: f.game.ID, UserID: outsider.ID, Points: 10})
	assert.ErrorIs(t, err, ErrNotRosterMember)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.s.SubmitStats(ctx, StatsInput{GameID: 999, UserID: f.guest.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int64(0), countRows(t, f.s, &models.PlayerStats{}), "rejected submissions must not write")
}

func TestSubmitRatingBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bad := range []int{0, 6, -3, 100} {
		_, err := f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.host.ID, ToUserID: f.guest.ID, Rating: bad})
		assert.ErrorIs(t, err, ErrRatingOutOfRange, "rating %d", bad)
	}
	for _, good := range []int{1, 5} {
		r, err := f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.host.ID, ToUserID: f.guest.ID, Rating: good})
		require.NoError(t, err, "rating %d", good)
		assert.Equal(t, good, r.Rating)
	}
	assert.Equal(t, int64(1), countRows(t, f.s, &models.PlayerRating{}), "re-rating updates in place")
}

func TestSubmitRatingRejectsSelf(t *testing.T) {
	f := newFixture(t)

	for _, rating := range []int{0, 1, 3, 5, 6} {
		_, err := f.s.SubmitRating(context.Background(), RatingInput{
			GameID: f.game.ID, FromUserID: f.host.ID, ToUserID: f.host.ID, Rating: rating,
		})
		assert.ErrorIs(t, err, ErrSelfRating, "rating %d", rating)
	}
	assert.Equal(t, int64(0), countRows(t, f.s, &models.PlayerRating{}))
}

func TestSubmitRatingRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	outsider := mustUser(t, f.s, "outsider")

	_, err := f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: outsider.ID, ToUserID: f.guest.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrNotRosterMember)

	_, err = f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.guest.ID, ToUserID: outsider.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrRateeNotInGame)
}

func TestRatingCommentAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.host.ID, ToUserID: f.guest.ID, Rating: 4, Comment: "  great passer "})
	require.NoError(t, err)
	require.NotNil(t, r.Comment)
	assert.Equal(t, "great passer", *r.Comment)

	r, err = f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.host.ID, ToUserID: f.guest.ID, Rating: 2})
	require.NoError(t, err)
	assert.Nil(t, r.Comment, "the latest submission replaces the comment too")

	_, err = f.s.SubmitRating(ctx, RatingInput{GameID: f.game.ID, FromUserID: f.guest.ID, ToUserID: f.host.ID, Rating: 5})
	require.NoError(t, err)

	ratings, err := f.s.ListRatingsForUser(ctx, f.guest.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 2, ratings[0].Rating)

	summary, err := f.s.AverageRating(ctx, f.guest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
	assert.InDelta(t, 2.0, summary.Average, 1e-9)

	none := mustUser(t, f.s, "unrated")
	summary, err = f.s.AverageRating(ctx, none.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Count)
	assert.Equal(t, 0.0, summary.Average)
}
