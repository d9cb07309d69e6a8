package middlewares

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/logger"
)

// ErrorHandler: satu-satunya tempat error dari handler diubah jadi JSON.
// debug=true (APP_ENV=development) menyertakan cause internal.
func ErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if ae, ok := apperror.As(err); ok {
			status := ae.HTTPStatus()
			switch {
			case ae.Kind == apperror.KindSignature:
				// sudah di-log sebagai security event oleh service
			case status >= fiber.StatusInternalServerError:
				logger.Error(c).Err(err).Str("path", c.Path()).Msg("request failed")
			default:
				logger.Debug(c).Err(err).Str("path", c.Path()).Msg("request rejected")
			}
			return helper.JsonAppError(c, ae, debug)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.JsonError(c, fe.Code, fe.Message)
		}

		logger.Error(c).Err(err).Str("path", c.Path()).Msg("unhandled error")
		return helper.JsonAppError(c, apperror.Internal("", err), debug)
	}
}
