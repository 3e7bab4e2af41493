package store

import (
	"context"

	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsInput is one player's box score submission.
type StatsInput struct {
	GameID   uint
	UserID   uint
	Points   int
	Rebounds int
	Assists  int
}

// SubmitStats records in.UserID's stats for in.GameID, replacing any earlier submission.
//
// The write is a single INSERT ... ON CONFLICT (game_id, user_id) DO UPDATE, so two
// concurrent submissions can never leave two rows. The submitter must be on the roster;
// the middleware checks this too, but the store refuses non-members on its own.
func (s *Store) SubmitStats(ctx context.Context, in StatsInput) (*models.PlayerStats, error) {
	if in.Points < 0 || in.Rebounds < 0 || in.Assists < 0 {
		return nil, ErrInvalidStat
	}

	var out models.PlayerStats
	err := s.withRetry(ctx, "submit stats", func() error {
		return s.tx(ctx, func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", in.GameID).Take(&models.Game{}).Error; err != nil {
				return notFound("game", in.GameID, err)
			}
			member, err := isMember(tx, in.GameID, in.UserID)
			if err != nil {
				return err
			}
			if !member {
				return ErrNotRosterMember
			}

			row := models.PlayerStats{
				GameID:   in.GameID,
				UserID:   in.UserID,
				Points:   in.Points,
				Rebounds: in.Rebounds,
				Assists:  in.Assists,
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"points", "rebounds", "assists", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
			return tx.Where("game_id = ? AND user_id = ?", in.GameID, in.UserID).Take(&out).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStats returns every stats row for a game, top scorers first.
func (s *Store) ListStats(ctx context.Context, gameID uint) ([]models.PlayerStats, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", gameID).Take(&models.Game{}).Error; err != nil {
		return nil, notFound("game", gameID, err)
	}
	stats := []models.PlayerStats{}
	if err := db.Where("game_id = ?", gameID).Order("points DESC, user_id").Find(&stats).Error; err != nil {
		return nil, translate(err)
	}
	return stats, nil
}
