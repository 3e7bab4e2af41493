package handlers

// games.go: posting games, the roster (join / leave / capacity) and the nearby search.
// Every roster change is also pushed to the game's websocket viewers.

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
	"github.com/trentd187/pickup-run/internal/websocket"
)

// rosterEvent is the websocket event type carrying a RosterResponse.
const rosterEvent = "roster"

// dateLayout is the format of the nearby search's date filter.
const dateLayout = "2006-01-02"

// PlayerResponse is one roster entry.
type PlayerResponse struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

// RosterResponse is a game with its current roster. The same shape is pushed over the websocket.
type RosterResponse struct {
	ID             uint             `json:"id"`
	CourtID        uint             `json:"court_id"`
	HostID         uint             `json:"host_id"`
	Time           string           `json:"time"`
	MaxPlayers     int              `json:"max_players"`
	CurrentPlayers int              `json:"current_players"`
	SpotsAvailable int              `json:"spots_available"`
	Players        []PlayerResponse `json:"players"`
}

// GameResponse is GET /api/v1/games/:id: the roster plus what the caller may do with it.
type GameResponse struct {
	RosterResponse
	Court   CourtResponse `json:"court"`
	CanJoin bool          `json:"can_join"`
	Joined  bool          `json:"joined"`
	IsHost  bool          `json:"is_host"`
}

func rosterResponse(ctx context.Context, st *store.Store, r models.Roster) (RosterResponse, error) {
	names, err := st.UsernamesByID(ctx, r.PlayerIDs())
	if err != nil {
		return RosterResponse{}, err
	}
	players := make([]PlayerResponse, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, PlayerResponse{
			UserID:   p.UserID,
			Username: names[p.UserID],
			JoinedAt: p.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	return RosterResponse{
		ID:             r.Game.ID,
		CourtID:        r.Game.CourtID,
		HostID:         r.Game.HostID,
		Time:           r.Game.Time.UTC().Format(time.RFC3339),
		MaxPlayers:     r.Game.MaxPlayers,
		CurrentPlayers: r.CurrentPlayers(),
		SpotsAvailable: r.SpotsAvailable(),
		Players:        players,
	}, nil
}

// publishRoster pushes the new roster to live viewers. A failed push never fails the request.
func publishRoster(hub *websocket.Hub, log logrus.FieldLogger, resp RosterResponse) {
	if hub == nil {
		return
	}
	if err := hub.Publish(resp.ID, rosterEvent, resp); err != nil {
		log.WithError(err).WithField("game_id", resp.ID).Warn("publish roster")
	}
}

// CreateGameRequest is the JSON body of POST /api/v1/games.
type CreateGameRequest struct {
	CourtID    uint   `json:"court_id" validate:"required"`
	Time       string `json:"time" validate:"required"`                       // RFC 3339
	MaxPlayers *int   `json:"max_players" validate:"omitempty,min=1,max=100"` // nil means models.DefaultMaxPlayers
}

var gameMessages = bindMessages{
	"court_id":    {"required": "court_id is required"},
	"time":        {"required": "time is required"},
	"max_players": {"min": "max_players must be at least 1", "max": "max_players must be at most 100"},
}

// UpdateGameRequest is the JSON body of PATCH /api/v1/games/:id.
type UpdateGameRequest struct {
	MaxPlayers *int `json:"max_players" validate:"required,min=1,max=100"`
}

var updateGameMessages = bindMessages{
	"max_players": {
		"required": "max_players is required",
		"min":      "max_players must be at least 1",
		"max":      "max_players must be at most 100",
	},
}

// CreateGame returns a handler for POST /api/v1/games. The caller becomes the host.
// The roster starts empty; the host joins like everyone else.
func CreateGame(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateGameRequest
		if err := bindJSON(c, &req, gameMessages, "invalid game"); err != nil {
			return err
		}
		at, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "time must be an RFC 3339 timestamp, e.g. 2026-10-18T18:00:00Z")
		}
		in := store.GameInput{
			CourtID: req.CourtID,
			HostID:  middleware.UserID(c),
			Time:    at,
		}
		if req.MaxPlayers != nil {
			in.MaxPlayers = *req.MaxPlayers
		}

		game, err := st.CreateGame(c.UserContext(), in)
		if err != nil {
			return err
		}
		resp, err := rosterResponse(c.UserContext(), st, models.Roster{Game: *game})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GetGame returns a handler for GET /api/v1/games/:id.
func GetGame(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		userID := middleware.UserID(c)

		roster, err := st.GetRoster(ctx, id)
		if err != nil {
			return err
		}
		court, err := st.GetCourt(ctx, roster.Game.CourtID)
		if err != nil {
			return err
		}
		resp, err := rosterResponse(ctx, st, roster)
		if err != nil {
			return err
		}
		return c.JSON(GameResponse{
			RosterResponse: resp,
			Court:          courtResponse(court),
			CanJoin:        roster.CanJoin(userID),
			Joined:         roster.Contains(userID),
			IsHost:         roster.Game.HostID == userID,
		})
	}
}

// UpdateGame returns a handler for PATCH /api/v1/games/:id. Only the host may change
// capacity, and never below the current roster size.
func UpdateGame(st *store.Store, hub *websocket.Hub, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var req UpdateGameRequest
		if err := bindJSON(c, &req, updateGameMessages, "invalid update"); err != nil {
			return err
		}

		roster, err := st.UpdateMaxPlayers(c.UserContext(), id, middleware.UserID(c), *req.MaxPlayers)
		if err != nil {
			return err
		}
		return respondRoster(c, st, hub, log, roster)
	}
}

// JoinGame returns a handler for POST /api/v1/games/:id/join.
// 409 when the caller is already in or the game is full.
func JoinGame(st *store.Store, hub *websocket.Hub, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		roster, err := st.JoinGame(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return respondRoster(c, st, hub, log, roster)
	}
}

// LeaveGame returns a handler for POST /api/v1/games/:id/leave.
// 404 when the caller wasn't on the roster.
func LeaveGame(st *store.Store, hub *websocket.Hub, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		roster, err := st.LeaveGame(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return respondRoster(c, st, hub, log, roster)
	}
}

func respondRoster(c *fiber.Ctx, st *store.Store, hub *websocket.Hub, log logrus.FieldLogger, roster models.Roster) error {
	resp, err := rosterResponse(c.UserContext(), st, roster)
	if err != nil {
		return err
	}
	publishRoster(hub, log, resp)
	return c.JSON(resp)
}

// NearbyGames returns a handler for GET /api/v1/games/nearby?lat=&lng=&radius=&date=.
//
//   - lat, lng: required decimal degrees
//   - radius:   optional kilometers, must be > 0 (default 10)
//   - date:     optional YYYY-MM-DD; restricts results to that UTC day instead of "upcoming"
func NearbyGames(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := ParseNearbyQuery(c.Query("lat"), c.Query("lng"), c.Query("radius"), c.Query("date"))
		if err != nil {
			return err
		}
		result, err := st.NearbyGames(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

// ParseNearbyQuery turns the raw query-string values of a nearby search into a store query.
// Every malformed value is a 400 *fiber.Error naming the parameter.
func ParseNearbyQuery(lat, lng, radius, date string) (store.NearbyQuery, error) {
	var q store.NearbyQuery
	var err error

	if q.Lat, err = parseFinite(lat); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat is required and must be a number")
	}
	if q.Lng, err = parseFinite(lng); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lng is required and must be a number")
	}
	if radius != "" {
		r, err := parseFinite(radius)
		if err != nil || r <= 0 {
			return q, fiber.NewError(fiber.StatusBadRequest, store.ErrInvalidRadius.Error())
		}
		q.RadiusKm = r
	}
	if date != "" {
		day, err := time.ParseInLocation(dateLayout, date, time.UTC)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
		}
		q.Date = &day
	}
	return q, nil
}

// parseFinite parses a float and refuses NaN and the infinities, which ParseFloat accepts.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
