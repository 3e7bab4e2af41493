package store

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/trentd187/pickup-run/internal/geo"
	"github.com/trentd187/pickup-run/internal/models"
)

// DefaultRadiusKm is the search radius used when the caller doesn't give one.
const DefaultRadiusKm = 10.0

// NearbyQuery is the input to NearbyGames.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64    // <= 0 means DefaultRadiusKm
	Date     *time.Time // If set, only games on this calendar day (UTC); otherwise only future games
}

// NearbyGame is one search hit, flattened for the client.
type NearbyGame struct {
	GameID         uint    `json:"game_id"`
	CourtID        uint    `json:"court_id"`
	CourtName      string  `json:"court_name"`
	CourtAddress   string  `json:"court_address"`
	CourtLat       float64 `json:"court_lat"`
	CourtLng       float64 `json:"court_lng"`
	Time           string  `json:"time"` // RFC 3339, UTC
	MaxPlayers     int     `json:"max_players"`
	CurrentPlayers int     `json:"current_players"`
	SpotsAvailable int     `json:"spots_available"`
	DistanceKm     float64 `json:"distance_km"` // Rounded to 2 decimal places
	HostID         uint    `json:"host_id"`
}

// NearbyResult is the search response: the hits, nearest first, and how many there are.
type NearbyResult struct {
	Games []NearbyGame `json:"games"`
	Count int          `json:"count"`
}

// candidate is one (game, court) row from the search query before the distance check.
type candidate struct {
	GameID       uint
	CourtID      uint
	HostID       uint
	Time         time.Time
	MaxPlayers   int
	CourtName    string
	CourtAddress string
	CourtLat     float64
	CourtLng     float64
}

// rosterCount is one row of the grouped roster-size query.
type rosterCount struct {
	GameID  uint
	Players int
}

// NearbyGames finds games within q.RadiusKm of (q.Lat, q.Lng), nearest first.
//
//  1. Select games joined with their court, restricted to q.Date's calendar day if given,
//     else to games at or after now. A bounding box around the query point narrows the
//     scan in SQL when one can be drawn.
//  2. Compute the haversine distance to each court and keep those within the radius (inclusive).
//  3. Fetch roster sizes for the survivors in one grouped query.
//  4. Sort by distance; ties keep game id order.
func (s *Store) NearbyGames(ctx context.Context, q NearbyQuery) (NearbyResult, error) {
	if !geo.ValidCoordinates(q.Lat, q.Lng) {
		return NearbyResult{}, ErrInvalidCoordinates
	}
	radius := q.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return NearbyResult{}, ErrInvalidRadius
	}

	db := s.db.WithContext(ctx)
	query := db.Table("games").
		Select("games.id AS game_id, games.court_id, games.host_id, games.time, games.max_players, " +
			"courts.name AS court_name, courts.address AS court_address, courts.lat AS court_lat, courts.lng AS court_lng").
		Joins("JOIN courts ON courts.id = games.court_id")

	if q.Date != nil {
		day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
		query = query.Where("games.time >= ? AND games.time < ?", day, day.AddDate(0, 0, 1))
	} else {
		query = query.Where("games.time >= ?", s.Now())
	}

	if box, ok := geo.BoundingBox(q.Lat, q.Lng, radius); ok {
		query = query.Where("courts.lat BETWEEN ? AND ? AND courts.lng BETWEEN ? AND ?",
			box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	}

	var candidates []candidate
	if err := query.Order("games.id").Scan(&candidates).Error; err != nil {
		return NearbyResult{}, translate(err)
	}

	type hit struct {
		candidate
		distance float64
	}
	hits := make([]hit, 0, len(candidates))
	ids := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		d := geo.Distance(q.Lat, q.Lng, c.CourtLat, c.CourtLng)
		if d <= radius {
			hits = append(hits, hit{candidate: c, distance: d})
			ids = append(ids, c.GameID)
		}
	}

	counts := make(map[uint]int, len(ids))
	if len(ids) > 0 {
		var rows []rosterCount
		err := db.Model(&models.GamePlayer{}).
			Select("game_id, COUNT(*) AS players").
			Where("game_id IN ?", ids).
			Group("game_id").
			Scan(&rows).Error
		if err != nil {
			return NearbyResult{}, translate(err)
		}
		for _, r := range rows {
			counts[r.GameID] = r.Players
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	result := NearbyResult{Games: make([]NearbyGame, 0, len(hits))}
	for _, h := range hits {
		current := counts[h.GameID]
		result.Games = append(result.Games, NearbyGame{
			GameID:         h.GameID,
			CourtID:        h.CourtID,
			CourtName:      h.CourtName,
			CourtAddress:   h.CourtAddress,
			CourtLat:       h.CourtLat,
			CourtLng:       h.CourtLng,
			Time:           h.Time.UTC().Format(time.RFC3339),
			MaxPlayers:     h.MaxPlayers,
			CurrentPlayers: current,
			SpotsAvailable: h.MaxPlayers - current,
			DistanceKm:     geo.RoundKm(h.distance),
			HostID:         h.HostID,
		})
	}
	result.Count = len(result.Games)
	return result, nil
}
