package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/apperr"
)

// ErrorPayload is the wire form of an application error.
type ErrorPayload struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// RenderOK writes the success envelope.
func RenderOK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"ok": true, "data": data})
}

// RenderError maps an error onto the failure envelope. Unclassified
// errors surface as unknown so the UI still gets a usable message.
func RenderError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"ok":    false,
			"error": ErrorPayload{Kind: apperr.KindUnknown, Message: fe.Message},
		})
	}

	payload := ErrorPayload{Kind: apperr.KindOf(err), Message: err.Error()}
	if ae, ok := err.(*apperr.Error); ok {
		payload.Message = ae.Message
	}
	return c.Status(httpStatus(payload.Kind)).JSON(fiber.Map{
		"ok":    false,
		"error": payload,
	})
}

func httpStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindAuthExpired:
		return fiber.StatusUnauthorized
	case apperr.KindTimeout:
		return fiber.StatusGatewayTimeout
	case apperr.KindHTTPFailure, apperr.KindNetworkUnreachable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
