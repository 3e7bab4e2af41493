// Package handlers contains the HTTP route handlers for the pickup-run API.
// Each exported function is a handler factory: it takes its dependencies (the store,
// the token issuer, the websocket hub) and returns a fiber.Handler, so nothing relies
// on package-level globals.
//
// Handlers parse and validate the request themselves and leave business rules to the
// store. Store errors are returned as-is; ErrorHandler turns them into a status code
// and a {"error": "..."} body in one place.
package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/trentd187/pickup-run/internal/auth"
	"github.com/trentd187/pickup-run/internal/store"
)

// validate checks request structs against their `validate` tags.
// Field names in errors are the JSON names, so messages can be keyed the way clients see them.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindMessages maps a JSON field name and a failed validation tag to the message the client sees.
type bindMessages map[string]map[string]string

// bindJSON decodes the request body into req and validates it.
// The returned error is a 400 *fiber.Error carrying the most specific message available.
func bindJSON(c *fiber.Ctx, req interface{}, messages bindMessages, fallback string) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, resolveBindError(err, messages, fallback))
	}
	return nil
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}

// idParam reads a positive integer route parameter such as :id.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// StatusFor maps an error to the HTTP status and the message the client should see.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidToken) {
		return fiber.StatusUnauthorized, err.Error()
	}
	switch store.KindOf(err) {
	case store.KindValidation:
		return fiber.StatusBadRequest, err.Error()
	case store.KindConflict:
		return fiber.StatusConflict, err.Error()
	case store.KindNotFound:
		return fiber.StatusNotFound, err.Error()
	case store.KindForbidden:
		return fiber.StatusForbidden, err.Error()
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// ErrorHandler is the app-wide fiber error handler. Internal errors are logged with the
// request they came from and answered with a generic message; everything else is echoed.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, msg := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("request failed")
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}
