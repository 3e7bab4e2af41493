// Package middleware contains the Fiber middleware shared by the pickup-run routes.
// Middleware sits between the HTTP server and the route handlers, so it is where
// cross-cutting concerns live: authentication, roster checks, and request logging.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/auth"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
)

// Keys under which Auth stores the caller in c.Locals.
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalClaims   = "claims"
)

// UserLookup is the part of the store Auth needs: confirming the token's user still exists.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Auth returns a Fiber middleware that:
//  1. Reads the access token from "Authorization: Bearer <token>"
//     (or from ?token= on a websocket upgrade, since browsers can't set headers there)
//  2. Verifies its signature and expiry
//  3. Refuses tokens that were revoked by logout
//  4. Confirms the user still exists, then stores the caller in c.Locals
//
// Every failure is 401 with the same vague message, so a caller can't probe which check failed.
func Auth(issuer *auth.Issuer, revoker auth.Revoker, users UserLookup, log logrus.FieldLogger) fiber.Handler {
	unauthorized := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing, invalid or expired token",
		})
	}

	return func(c *fiber.Ctx) error {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			return unauthorized(c)
		}

		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			return unauthorized(c)
		}

		ctx := c.UserContext()
		revoked, err := revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.WithError(err).Error("check token revocation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
		if revoked {
			return unauthorized(c)
		}

		userID, err := claims.UserID()
		if err != nil {
			return unauthorized(c)
		}
		user, err := users.GetUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its account.
			return unauthorized(c)
		}
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("load token user")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUsername, user.Username)
		c.Locals(LocalClaims, claims)

		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if websocket.IsWebSocketUpgrade(c) {
		return c.Query("token")
	}
	return ""
}

// UserID returns the authenticated caller's id, or 0 when Auth didn't run.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// TokenClaims returns the claims of the token that authenticated this request.
func TokenClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(LocalClaims).(*auth.Claims)
	return claims
}
