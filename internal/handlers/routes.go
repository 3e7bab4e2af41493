package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/auth"
	"github.com/trentd187/pickup-run/internal/middleware"
	"github.com/trentd187/pickup-run/internal/store"
	"github.com/trentd187/pickup-run/internal/websocket"
)

// Deps is everything the routes need. main builds one; tests build one over SQLite.
type Deps struct {
	Store   *store.Store
	Issuer  *auth.Issuer
	Revoker auth.Revoker
	Hub     *websocket.Hub
	Log     logrus.FieldLogger
}

// NewApp builds the Fiber app with global middleware and every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Pickup Run API",
		ErrorHandler: ErrorHandler(d.Log),
	})

	// --- Global middleware ---
	// recover turns a panicking handler into a 500 instead of killing the process.
	app.Use(fiberrecover.New())
	app.Use(middleware.RequestLogger(d.Log))
	// Any origin may call the API; the browser client is served from a different host in development.
	app.Use(cors.New())

	Routes(app, d)
	return app
}

// Routes registers every endpoint on app.
func Routes(app *fiber.App, d Deps) {
	st, log := d.Store, d.Log
	requireAuth := middleware.Auth(d.Issuer, d.Revoker, st, log)
	rosterOnly := middleware.RequireRosterMember(st, log)

	// --- Public routes ---
	app.Get("/health", HealthCheck)
	app.Get("/health/ready", Ready(st))

	// Registered before the authenticated group so its middleware never runs for them.
	v1 := app.Group("/api/v1")
	v1.Post("/auth/register", Register(st, d.Issuer))
	v1.Post("/auth/login", Login(st, d.Issuer))

	// --- Authenticated routes ---
	// Everything registered on api requires a valid, unrevoked token.
	api := v1.Group("", requireAuth)
	api.Post("/auth/logout", Logout(d.Revoker))
	api.Get("/me", Me(st))

	api.Get("/courts", ListCourts(st))
	api.Post("/courts", CreateCourt(st))
	api.Get("/courts/:id", GetCourt(st))

	// /games/nearby is registered before /games/:id so "nearby" isn't taken for an id.
	api.Post("/games", CreateGame(st))
	api.Get("/games/nearby", NearbyGames(st))
	api.Get("/games/:id", GetGame(st))
	api.Patch("/games/:id", UpdateGame(st, d.Hub, log))
	api.Post("/games/:id/join", JoinGame(st, d.Hub, log))
	api.Post("/games/:id/leave", LeaveGame(st, d.Hub, log))
	api.Get("/games/:id/stats", ListStats(st))
	api.Post("/games/:id/stats", rosterOnly, SubmitStats(st))
	api.Post("/games/:id/ratings", rosterOnly, SubmitRating(st))

	api.Get("/users/:id/ratings", UserRatings(st))

	// --- Live updates ---
	app.Get("/ws/games/:id", requireAuth, LiveRoster(st, d.Hub, log))
}
