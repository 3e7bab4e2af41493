// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a pickup-basketball platform where:
//   - Users create Courts (physical places with coordinates)
//   - Users host Games at Courts at a specific time
//   - Users join Games; the set of joined users is the game's roster
//   - Roster members record their own box score (PlayerStats) and rate each other (PlayerRating)
//
// Relationships are plain foreign-key columns. There are no preloaded object graphs here;
// the store package owns every query so nothing is loaded lazily behind the caller's back.
// The SQL migrations in migrations/ are the source of truth for the production schema; the
// tags below mirror them so tests can AutoMigrate an equivalent schema.
package models

import (
	// Every timestamp is a time.Time in UTC; database.Connect sets NowFunc so GORM's own
	// CreatedAt/UpdatedAt values are UTC too.
	"time"
)

// DefaultMaxPlayers is the capacity a game gets when the host doesn't pick one (5 on 5).
const DefaultMaxPlayers = 10

// User represents a registered person in the system.
// The password is only ever stored as a bcrypt hash; the json:"-" tag keeps it out of responses.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                         // Auto-incrementing; also the JWT subject
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"` // Login name, compared case-sensitively
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`   // Lowercased before insert so the unique index is case-insensitive in practice
	PasswordHash string    `gorm:"not null" json:"-"`                            // bcrypt output, never the plaintext
	CreatedAt    time.Time `json:"created_at"`
}

// Court is a physical location where games are played.
// Lat/Lng are decimal degrees; the check constraints keep them on the globe.
type Court struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`     // Display name, e.g. "Rucker Park"
	Address   string    `gorm:"size:120;not null" json:"address"` // Free text; never geocoded, the coordinates are what searches use
	Lat       float64   `gorm:"not null;check:chk_courts_lat,lat >= -90 AND lat <= 90" json:"lat"`
	Lng       float64   `gorm:"not null;check:chk_courts_lng,lng >= -180 AND lng <= 180" json:"lng"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"` // Foreign key: users.id
	CreatedAt time.Time `json:"created_at"`
}

// Game is a scheduled run at a court.
// Time is always stored in UTC so range filters compare like with like.
type Game struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourtID    uint      `gorm:"not null;index" json:"court_id"`                                                      // Foreign key: courts.id
	HostID     uint      `gorm:"not null;index" json:"host_id"`                                                       // Foreign key: users.id
	Time       time.Time `gorm:"not null;index" json:"time"`                                                          // Tip-off, UTC; indexed for the date filter on nearby searches
	MaxPlayers int       `gorm:"not null;default:10;check:chk_games_max_players,max_players >= 1" json:"max_players"` // Capacity; only the host can change it
	CreatedAt  time.Time `json:"created_at"`
}

// GamePlayer is the join table between Game and User.
// The composite primary key makes (game_id, user_id) unique, so the database itself
// refuses a second join by the same user.
type GamePlayer struct {
	GameID   uint      `gorm:"primaryKey;autoIncrement:false" json:"game_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"` // Roster order is by join time, ties broken by user id
}

// PlayerStats is one player's box score for one game.
// idx_player_stats_game_user is the upsert key: exactly one row per (game, user).
type PlayerStats struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    uint      `gorm:"not null;uniqueIndex:idx_player_stats_game_user" json:"game_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_player_stats_game_user" json:"user_id"`
	Points    int       `gorm:"not null;default:0;check:chk_player_stats_points,points >= 0" json:"points"`
	Rebounds  int       `gorm:"not null;default:0;check:chk_player_stats_rebounds,rebounds >= 0" json:"rebounds"`
	Assists   int       `gorm:"not null;default:0;check:chk_player_stats_assists,assists >= 0" json:"assists"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name; "stats" has no useful plural.
func (PlayerStats) TableName() string { return "player_stats" }

// PlayerRating is the score one roster member gives another for a single game.
// One rating per (game, from, to); re-rating replaces the earlier value.
type PlayerRating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GameID     uint      `gorm:"not null;uniqueIndex:idx_player_ratings_game_from_to" json:"game_id"`
	FromUserID uint      `gorm:"not null;uniqueIndex:idx_player_ratings_game_from_to;check:chk_player_ratings_not_self,from_user_id <> to_user_id" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;uniqueIndex:idx_player_ratings_game_from_to;index" json:"to_user_id"`
	Rating     int       `gorm:"not null;check:chk_player_ratings_range,rating >= 1 AND rating <= 5" json:"rating"`
	Comment    *string   `json:"comment"` // Optional; pointer = nullable; a blank comment is stored as NULL
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// All lists every model in dependency order, for AutoMigrate in tests and tooling.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Court{},
		&Game{},
		&GamePlayer{},
		&PlayerStats{},
		&PlayerRating{},
	}
}
