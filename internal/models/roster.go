package models

// Roster is a game together with the users currently joined to it.
// It is a plain value: the store loads it inside a transaction, asks it whether a join
// is allowed, and only then writes. Nothing here touches the database.
type Roster struct {
	Game    Game
	Players []GamePlayer
}

// CurrentPlayers is the roster size.
func (r Roster) CurrentPlayers() int {
	return len(r.Players)
}

// SpotsAvailable is max_players minus the roster size.
// It can only go negative if capacity was lowered below the roster, which the store refuses.
func (r Roster) SpotsAvailable() int {
	return r.Game.MaxPlayers - r.CurrentPlayers()
}

// Contains reports whether userID is on the roster.
func (r Roster) Contains(userID uint) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// CanJoin reports whether userID may join: there must be a free spot and the user must
// not already be on the roster. A false result is not an error; callers decide what to say.
func (r Roster) CanJoin(userID uint) bool {
	return r.CurrentPlayers() < r.Game.MaxPlayers && !r.Contains(userID)
}

// PlayerIDs returns the user ids on the roster in join order.
func (r Roster) PlayerIDs() []uint {
	ids := make([]uint, 0, len(r.Players))
	for _, p := range r.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}
