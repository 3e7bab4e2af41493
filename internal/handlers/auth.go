package handlers

// auth.go: registration, login, logout and the current-user endpoint.

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/pickup-run/internal/auth"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
)

// RegisterRequest is the JSON body of POST /api/v1/auth/register.
// bcrypt only looks at the first 72 bytes of a password, hence the upper bound.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"` // Letters and digits only, so it is safe in URLs and logs
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"` // bcrypt ignores bytes past 72
}

var registerMessages = bindMessages{
	"username": {
		"required": "username is required",
		"min":      "username must be 3 to 32 characters",
		"max":      "username must be 3 to 32 characters",
		"alphanum": "username may only contain letters and digits",
	},
	"email": {
		"required": "email is required",
		"email":    "email is not a valid address",
		"max":      "email is too long",
	},
	"password": {
		"required": "password is required",
		"min":      "password must be at least 8 characters",
		"max":      "password must be at most 72 characters",
	},
}

// LoginRequest is the JSON body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"` // RFC 3339
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a user. The password hash never leaves the server.
type UserResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"` // Only shown to the user themselves
	CreatedAt string `json:"created_at"`
}

func userResponse(u *models.User, withEmail bool) UserResponse {
	r := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withEmail {
		r.Email = u.Email
	}
	return r
}

func issueToken(issuer *auth.Issuer, u *models.User) (TokenResponse, error) {
	token, claims, err := issuer.Issue(u.ID, u.Username)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
		User:      userResponse(u, true),
	}, nil
}

// Register returns a handler for POST /api/v1/auth/register.
// It creates the account and logs the new user straight in.
func Register(st *store.Store, issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := bindJSON(c, &req, registerMessages, "invalid registration"); err != nil {
			return err
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return err
		}
		// Emails are compared case-insensitively in practice, so store them lowercased.
		user, err := st.CreateUser(c.UserContext(), req.Username, strings.ToLower(req.Email), hash)
		if err != nil {
			return err
		}

		resp, err := issueToken(issuer, user)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// Login returns a handler for POST /api/v1/auth/login.
// An unknown username and a wrong password get the same 401 so accounts can't be enumerated.
func Login(st *store.Store, issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := bindJSON(c, &req, nil, "username and password are required"); err != nil {
			return err
		}

		user, err := st.GetUserByUsername(c.UserContext(), req.Username)
		if errors.Is(err, store.ErrNotFound) {
			return auth.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			return err
		}

		resp, err := issueToken(issuer, user)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// Logout returns a handler for POST /api/v1/auth/logout.
// The token that authenticated the request is revoked until it would have expired.
func Logout(revoker auth.Revoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := middleware.TokenClaims(c)
		if claims == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		if err := revoker.Revoke(c.UserContext(), claims.ID, claims.ExpiresAt.Time); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeResponse is the body of GET /api/v1/me.
type MeResponse struct {
	User     UserResponse        `json:"user"`
	Rating   store.RatingSummary `json:"rating"`
	Upcoming []GameSummary       `json:"upcoming_games"`
}

// GameSummary is a game without its roster, for lists.
type GameSummary struct {
	ID         uint   `json:"id"`
	CourtID    uint   `json:"court_id"`
	HostID     uint   `json:"host_id"`
	Time       string `json:"time"`
	MaxPlayers int    `json:"max_players"`
}

func gameSummary(g models.Game) GameSummary {
	return GameSummary{
		ID:         g.ID,
		CourtID:    g.CourtID,
		HostID:     g.HostID,
		Time:       g.Time.UTC().Format(time.RFC3339),
		MaxPlayers: g.MaxPlayers,
	}
}

// Me returns a handler for GET /api/v1/me: the caller, their rating, and the upcoming
// games they host or have joined.
func Me(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		userID := middleware.UserID(c)

		user, err := st.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		summary, err := st.AverageRating(ctx, userID)
		if err != nil {
			return err
		}
		games, err := st.ListGamesForUser(ctx, userID)
		if err != nil {
			return err
		}

		upcoming := make([]GameSummary, 0, len(games))
		for _, g := range games {
			upcoming = append(upcoming, gameSummary(g))
		}
		return c.JSON(MeResponse{
			User:     userResponse(user, true),
			Rating:   summary,
			Upcoming: upcoming,
		})
	}
}
