package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
)

// StatsResponse is one player's box score.
type StatsResponse struct {
	GameID    uint   `json:"game_id"`
	UserID    uint   `json:"user_id"`
	Points    int    `json:"points"`
	Rebounds  int    `json:"rebounds"`
	Assists   int    `json:"assists"`
	UpdatedAt string `json:"updated_at"`
}

func statsResponse(s *models.PlayerStats) StatsResponse {
	return StatsResponse{
		GameID:    s.GameID,
		UserID:    s.UserID,
		Points:    s.Points,
		Rebounds:  s.Rebounds,
		Assists:   s.Assists,
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// StatsForm is a box score as submitted, before it is tied to a game and user.
type StatsForm struct {
	Points   int `json:"points"`
	Rebounds int `json:"rebounds"`
	Assists  int `json:"assists"`
}

// ParseStatsForm reads points, rebounds and assists from form values. A blank or missing
// field counts as 0; anything that is not a whole number is rejected, so "12.5" or "ten"
// never reach the store. Negative numbers are left for the store to refuse.
func ParseStatsForm(value func(key string) string) (StatsForm, error) {
	var form StatsForm
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"points", &form.Points},
		{"rebounds", &form.Rebounds},
		{"assists", &form.Assists},
	} {
		raw := strings.TrimSpace(value(f.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return StatsForm{}, fiber.NewError(fiber.StatusBadRequest, f.key+" must be a whole number")
		}
		*f.dst = n
	}
	return form, nil
}

// parseStatsBody accepts either a JSON body or a classic form post.
// JSON goes through the app's decoder; numbers with a fractional part fail to decode
// into int and are rejected the same way as bad form values.
func parseStatsBody(c *fiber.Ctx) (StatsForm, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var form StatsForm
		if err := c.BodyParser(&form); err != nil {
			return StatsForm{}, fiber.NewError(fiber.StatusBadRequest, store.ErrInvalidStat.Error())
		}
		return form, nil
	}
	return ParseStatsForm(func(key string) string { return c.FormValue(key) })
}

// SubmitStats returns a handler for POST /api/v1/games/:id/stats.
// Roster membership is checked by middleware.RequireRosterMember on the route; the caller
// can only ever submit their own line. Submitting again replaces the earlier numbers.
func SubmitStats(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		form, err := parseStatsBody(c)
		if err != nil {
			return err
		}

		stats, err := st.SubmitStats(c.UserContext(), store.StatsInput{
			GameID:   gameID,
			UserID:   middleware.UserID(c),
			Points:   form.Points,
			Rebounds: form.Rebounds,
			Assists:  form.Assists,
		})
		if err != nil {
			return err
		}
		return c.JSON(statsResponse(stats))
	}
}

// ListStats returns a handler for GET /api/v1/games/:id/stats, top scorers first.
func ListStats(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		stats, err := st.ListStats(c.UserContext(), gameID)
		if err != nil {
			return err
		}
		resp := make([]StatsResponse, 0, len(stats))
		for i := range stats {
			resp = append(resp, statsResponse(&stats[i]))
		}
		return c.JSON(resp)
	}
}
