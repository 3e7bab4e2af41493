package store

import (
	"context"
	"errors"
	"time"

	"github.com/trentd187/pickup-run/internal/models"
	"gorm.io/gorm"
)

// GameInput is what a host supplies when posting a game.
// MaxPlayers 0 means "use the default".
type GameInput struct {
	CourtID    uint
	HostID     uint
	Time       time.Time
	MaxPlayers int
}

// CreateGame posts a game at an existing court. The roster starts empty; hosts join their
// own game like anyone else.
func (s *Store) CreateGame(ctx context.Context, in GameInput) (*models.Game, error) {
	if in.MaxPlayers == 0 {
		in.MaxPlayers = models.DefaultMaxPlayers
	}
	if in.MaxPlayers < 1 {
		return nil, ErrInvalidCapacity
	}
	if !in.Time.After(s.Now()) {
		return nil, ErrGameInPast
	}

	game := models.Game{
		CourtID:    in.CourtID,
		HostID:     in.HostID,
		Time:       in.Time.UTC(),
		MaxPlayers: in.MaxPlayers,
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", in.CourtID).Take(&models.Court{}).Error; err != nil {
			return notFound("court", in.CourtID, err)
		}
		if err := tx.Where("id = ?", in.HostID).Take(&models.User{}).Error; err != nil {
			return notFound("user", in.HostID, err)
		}
		return tx.Create(&game).Error
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetGame looks a game up by id.
func (s *Store) GetGame(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&game).Error; err != nil {
		return nil, notFound("game", id, err)
	}
	return &game, nil
}

// GetRoster returns a game with its current players in join order.
func (s *Store) GetRoster(ctx context.Context, gameID uint) (models.Roster, error) {
	var roster models.Roster
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", gameID).Take(&roster.Game).Error; err != nil {
			return notFound("game", gameID, err)
		}
		var err error
		roster.Players, err = loadPlayers(tx, gameID)
		return err
	})
	return roster, translate(err)
}

func loadPlayers(tx *gorm.DB, gameID uint) ([]models.GamePlayer, error) {
	players := []models.GamePlayer{}
	err := tx.Where("game_id = ?", gameID).Order("joined_at, user_id").Find(&players).Error
	return players, err
}

// JoinGame adds userID to the roster if Roster.CanJoin allows it.
// The game row is locked first so concurrent joins are decided one at a time; the
// (game_id, user_id) primary key still backs up the membership check.
func (s *Store) JoinGame(ctx context.Context, gameID, userID uint) (models.Roster, error) {
	var roster models.Roster
	err := s.tx(ctx, func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		players, err := loadPlayers(tx, gameID)
		if err != nil {
			return err
		}
		roster = models.Roster{Game: game, Players: players}

		if roster.Contains(userID) {
			return ErrAlreadyJoined
		}
		if !roster.CanJoin(userID) {
			return ErrGameFull
		}

		row := models.GamePlayer{GameID: gameID, UserID: userID, JoinedAt: s.Now()}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyJoined
			}
			return err
		}
		roster.Players = append(roster.Players, row)
		return nil
	})
	if err != nil {
		return models.Roster{}, err
	}
	return roster, nil
}

// LeaveGame removes userID from the roster. Leaving a game you aren't in is reported as
// ErrNotInGame rather than treated as a failure of the store.
func (s *Store) LeaveGame(ctx context.Context, gameID, userID uint) (models.Roster, error) {
	var roster models.Roster
	err := s.tx(ctx, func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		res := tx.Where("game_id = ? AND user_id = ?", gameID, userID).Delete(&models.GamePlayer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotInGame
		}
		players, err := loadPlayers(tx, gameID)
		roster = models.Roster{Game: game, Players: players}
		return err
	})
	if err != nil {
		return models.Roster{}, err
	}
	return roster, nil
}

// UpdateMaxPlayers lets the host change capacity. Capacity may never drop below the
// current roster size, so spots_available never goes negative.
func (s *Store) UpdateMaxPlayers(ctx context.Context, gameID, actingUserID uint, maxPlayers int) (models.Roster, error) {
	if maxPlayers < 1 {
		return models.Roster{}, ErrInvalidCapacity
	}
	var roster models.Roster
	err := s.tx(ctx, func(tx *gorm.DB) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.HostID != actingUserID {
			return ErrNotHost
		}
		players, err := loadPlayers(tx, gameID)
		if err != nil {
			return err
		}
		if maxPlayers < len(players) {
			return ErrCapacityBelowRoster
		}
		if err := tx.Model(&game).Update("max_players", maxPlayers).Error; err != nil {
			return err
		}
		game.MaxPlayers = maxPlayers
		roster = models.Roster{Game: game, Players: players}
		return nil
	})
	if err != nil {
		return models.Roster{}, err
	}
	return roster, nil
}

// IsRosterMember reports whether userID is on gameID's roster.
// An unknown game is ErrNotFound rather than "not a member".
func (s *Store) IsRosterMember(ctx context.Context, gameID, userID uint) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := db.Where("id = ?", gameID).Take(&models.Game{}).Error; err != nil {
		return false, notFound("game", gameID, err)
	}
	return isMember(db, gameID, userID)
}

func isMember(tx *gorm.DB, gameID, userID uint) (bool, error) {
	var row models.GamePlayer
	err := tx.Where("game_id = ? AND user_id = ?", gameID, userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListGamesForUser returns upcoming games the user hosts or has joined, soonest first.
func (s *Store) ListGamesForUser(ctx context.Context, userID uint) ([]models.Game, error) {
	games := []models.Game{}
	db := s.db.WithContext(ctx)
	err := db.
		Where("games.time >= ?", s.Now()).
		Where("games.host_id = ? OR games.id IN (?)", userID,
			db.Model(&models.GamePlayer{}).Select("game_id").Where("user_id = ?", userID)).
		Order("games.time, games.id").
		Find(&games).Error
	if err != nil {
		return nil, translate(err)
	}
	return games, nil
}
