package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/models"
	"github.com/trentd187/pickup-run/internal/store"
)

// CourtResponse is the JSON shape of a court.
type CourtResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	CreatedBy uint    `json:"created_by"`
	CreatedAt string  `json:"created_at"`
}

func courtResponse(c *models.Court) CourtResponse {
	return CourtResponse{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Lat:       c.Lat,
		Lng:       c.Lng,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateCourtRequest is the JSON body of POST /api/v1/courts.
// Lat and Lng are pointers so that 0 (the equator, the prime meridian) counts as present.
type CreateCourtRequest struct {
	Name    string   `json:"name" validate:"required,max=64"`
	Address string   `json:"address" validate:"required,max=120"`
	Lat     *float64 `json:"lat" validate:"required"` // Pointer so an explicit 0 (the equator) is not "missing"
	Lng     *float64 `json:"lng" validate:"required"`
}

var courtMessages = bindMessages{
	"name":    {"required": "name is required", "max": "name must be at most 64 characters"},
	"address": {"required": "address is required", "max": "address must be at most 120 characters"},
	"lat":     {"required": "lat is required"},
	"lng":     {"required": "lng is required"},
}

// ListCourts returns a handler for GET /api/v1/courts.
func ListCourts(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		courts, err := st.ListCourts(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]CourtResponse, 0, len(courts))
		for i := range courts {
			resp = append(resp, courtResponse(&courts[i]))
		}
		return c.JSON(resp)
	}
}

// CreateCourt returns a handler for POST /api/v1/courts.
// Coordinates outside [-90, 90] / [-180, 180] are rejected by the store with a 400.
func CreateCourt(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateCourtRequest
		if err := bindJSON(c, &req, courtMessages, "invalid court"); err != nil {
			return err
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Address = strings.TrimSpace(req.Address)
		if req.Name == "" || req.Address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and address are required")
		}

		court, err := st.CreateCourt(c.UserContext(), store.CourtInput{
			Name:      req.Name,
			Address:   req.Address,
			Lat:       *req.Lat,
			Lng:       *req.Lng,
			CreatedBy: middleware.UserID(c),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(courtResponse(court))
	}
}

// GetCourt returns a handler for GET /api/v1/courts/:id.
func GetCourt(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		court, err := st.GetCourt(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(courtResponse(court))
	}
}
