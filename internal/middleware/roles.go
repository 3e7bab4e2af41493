package middleware

// roles.go: per-game access control.
// There are no global roles in pickup-run; what a user may do depends on whether they
// are on a particular game's roster.

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/store"
)

// RosterChecker answers whether a user is on a game's roster.
type RosterChecker interface {
	IsRosterMember(ctx context.Context, gameID, userID uint) (bool, error)
}

// RequireRosterMember only lets requests through when the caller is on the roster of the
// game named by the :id route parameter. It must run after Auth.
//
//	games.Post("/:id/stats", middleware.RequireRosterMember(st, log), handlers.SubmitStats(st))
func RequireRosterMember(members RosterChecker, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "not authenticated",
			})
		}

		gameID, err := c.ParamsInt("id")
		if err != nil || gameID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid game id",
			})
		}

		ok, err := members.IsRosterMember(c.UserContext(), uint(gameID), userID)
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "game not found",
			})
		}
		if err != nil {
			log.WithError(err).WithField("game_id", gameID).Error("roster check")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": store.ErrNotRosterMember.Error(),
			})
		}
		return c.Next()
	}
}
