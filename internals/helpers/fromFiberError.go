package helper

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"crowdfund_backend/internals/helpers/apperr"
)

// StatusForKind maps a service error kind to its HTTP status.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindStateConflict:
		return fiber.StatusConflict
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindProcessor:
		return fiber.StatusBadGateway
	case apperr.KindSignatureInvalid:
		return fiber.StatusBadRequest
	case apperr.KindPaymentIncomplete:
		return fiber.StatusPaymentRequired
	case apperr.KindMetadataParse:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError writes err as the standard JSON error envelope.
// *apperr.Error keeps its kind as error_code; *fiber.Error keeps its code;
// anything else is a 500 and the cause is only logged.
func FromError(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := StatusForKind(ae.Kind)
		msg := ae.Message
		if status >= 500 {
			log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
		}
		return jsonErrorWithCode(c, status, msg, string(ae.Kind))
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	return JsonError(c, fiber.StatusInternalServerError, "")
}
