package store

import (
	"context"
	"strings"

	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ratings are whole numbers from MinRating to MaxRating inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingInput is one player rating another after a game.
type RatingInput struct {
	GameID     uint
	FromUserID uint
	ToUserID   uint
	Rating     int
	Comment    string
}

// RatingSummary is the aggregate shown on a player's profile.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// SubmitRating records in.FromUserID's rating of in.ToUserID for one game, replacing any
// earlier rating by the same pair for that game. Self-ratings and out-of-range values are
// rejected before anything touches the database; both players must be on the roster.
func (s *Store) SubmitRating(ctx context.Context, in RatingInput) (*models.PlayerRating, error) {
	if in.FromUserID == in.ToUserID {
		return nil, ErrSelfRating
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, ErrRatingOutOfRange
	}
	var comment *string
	if c := strings.TrimSpace(in.Comment); c != "" {
		comment = &c
	}

	var out models.PlayerRating
	err := s.withRetry(ctx, "submit rating", func() error {
		return s.tx(ctx, func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", in.GameID).Take(&models.Game{}).Error; err != nil {
				return notFound("game", in.GameID, err)
			}
			member, err := isMember(tx, in.GameID, in.FromUserID)
			if err != nil {
				return err
			}
			if !member {
				return ErrNotRosterMember
			}
			member, err = isMember(tx, in.GameID, in.ToUserID)
			if err != nil {
				return err
			}
			if !member {
				return ErrRateeNotInGame
			}

			row := models.PlayerRating{
				GameID:     in.GameID,
				FromUserID: in.FromUserID,
				ToUserID:   in.ToUserID,
				Rating:     in.Rating,
				Comment:    comment,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "game_id"}, {Name: "from_user_id"}, {Name: "to_user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
			return tx.Where("game_id = ? AND from_user_id = ? AND to_user_id = ?",
				in.GameID, in.FromUserID, in.ToUserID).Take(&out).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRatingsForUser returns the ratings a user has received, newest first.
func (s *Store) ListRatingsForUser(ctx context.Context, userID uint) ([]models.PlayerRating, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", userID).Take(&models.User{}).Error; err != nil {
		return nil, notFound("user", userID, err)
	}
	ratings := []models.PlayerRating{}
	if err := db.Where("to_user_id = ?", userID).Order("updated_at DESC, id DESC").Find(&ratings).Error; err != nil {
		return nil, translate(err)
	}
	return ratings, nil
}

// AverageRating summarises the ratings a user has received. No ratings means zero/zero.
func (s *Store) AverageRating(ctx context.Context, userID uint) (RatingSummary, error) {
	var summary RatingSummary
	err := s.db.WithContext(ctx).Model(&models.PlayerRating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("to_user_id = ?", userID).
		Scan(&summary).Error
	return summary, translate(err)
}
