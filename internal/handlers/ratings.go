package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
)

// RatingResponse is one rating as shown on a profile.
type RatingResponse struct {
	GameID     uint    `json:"game_id"`
	FromUserID uint    `json:"from_user_id"`
	ToUserID   uint    `json:"to_user_id"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment"`
	UpdatedAt  string  `json:"updated_at"`
}

func ratingResponse(r *models.PlayerRating) RatingResponse {
	return RatingResponse{
		GameID:     r.GameID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		UpdatedAt:  r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SubmitRatingRequest is the JSON body of POST /api/v1/games/:id/ratings.
// The range of rating is checked by the store so every client gets the same message.
type SubmitRatingRequest struct {
	ToUserID uint   `json:"to_user_id" validate:"required"`
	Rating   *int   `json:"rating" validate:"required"` // 1 to 5; range is checked by the store
	Comment  string `json:"comment" validate:"max=500"`
}

var ratingMessages = bindMessages{
	"to_user_id": {"required": "to_user_id is required"},
	"rating":     {"required": "rating is required"},
	"comment":    {"max": "comment must be at most 500 characters"},
}

// SubmitRating returns a handler for POST /api/v1/games/:id/ratings.
// The caller rates another player from the same game; rating them again replaces the
// earlier rating.
func SubmitRating(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		var req SubmitRatingRequest
		if err := bindJSON(c, &req, ratingMessages, "invalid rating"); err != nil {
			return err
		}

		rating, err := st.SubmitRating(c.UserContext(), store.RatingInput{
			GameID:     gameID,
			FromUserID: middleware.UserID(c),
			ToUserID:   req.ToUserID,
			Rating:     *req.Rating,
			Comment:    req.Comment,
		})
		if err != nil {
			return err
		}
		return c.JSON(ratingResponse(rating))
	}
}

// UserRatingsResponse is the body of GET /api/v1/users/:id/ratings.
type UserRatingsResponse struct {
	UserID  uint                `json:"user_id"`
	Summary store.RatingSummary `json:"summary"`
	Ratings []RatingResponse    `json:"ratings"`
}

// UserRatings returns a handler for GET /api/v1/users/:id/ratings: every rating the user
// has received, newest first, with the average.
func UserRatings(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := idParam(c, "id")
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		ratings, err := st.ListRatingsForUser(ctx, userID)
		if err != nil {
			return err
		}
		summary, err := st.AverageRating(ctx, userID)
		if err != nil {
			return err
		}

		resp := UserRatingsResponse{
			UserID:  userID,
			Summary: summary,
			Ratings: make([]RatingResponse, 0, len(ratings)),
		}
		for i := range ratings {
			resp.Ratings = append(resp.Ratings, ratingResponse(&ratings[i]))
		}
		return c.JSON(resp)
	}
}
