package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with method, path, status and duration.
// The authenticated user id is included when Auth ran for the route.
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		path := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		fields := logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   status,
			"duration": time.Since(start),
			"remote":   c.IP(),
		}
		if id := UserID(c); id != 0 {
			fields["user_id"] = id
		}
		entry := log.WithFields(fields)
		if err != nil {
			entry = entry.WithError(err)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("HTTP request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
		return err
	}
}

// LogWebSocketConnect logs a client subscribing to a game's live roster.
func LogWebSocketConnect(log logrus.FieldLogger, gameID, userID uint) {
	log.WithFields(logrus.Fields{
		"game_id": gameID,
		"user_id": userID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a live-roster client going away.
func LogWebSocketDisconnect(log logrus.FieldLogger, gameID, userID uint, err error) {
	fields := logrus.Fields{
		"game_id": gameID,
		"user_id": userID,
	}
	if err != nil {
		fields["error"] = err
	}
	log.WithFields(fields).Info("WebSocket disconnected")
}
