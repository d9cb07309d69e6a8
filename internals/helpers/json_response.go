// file: internals/helpers/json_response.go
package helper

import (
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/helpers/apperror"
)

// ErrorResponse: bentuk tunggal semua response gagal.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Retryable bool                `json:"retryable,omitempty"`
	Debug     string              `json:"debug,omitempty"`
}

type SuccessResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

var errorCodes = map[int]string{
	fiber.StatusBadRequest:            "BAD_REQUEST",
	fiber.StatusUnauthorized:          "UNAUTHORIZED",
	fiber.StatusForbidden:             "FORBIDDEN",
	fiber.StatusNotFound:              "NOT_FOUND",
	fiber.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	fiber.StatusConflict:              "CONFLICT",
	fiber.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	fiber.StatusUnprocessableEntity:   "VALIDATION_ERROR",
	fiber.StatusTooManyRequests:       "TOO_MANY_REQUESTS",
}

func statusToErrorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "ERROR"
}

// JsonError: error generic (fiber.Error, limiter, dsb)
func JsonError(c *fiber.Ctx, status int, message string) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = fiber.ErrInternalServerError.Message
	}
	return c.Status(status).JSON(ErrorResponse{
		Message:   message,
		ErrorCode: statusToErrorCode(status),
	})
}

// JsonAppError menulis *apperror.AppError. debug=true menyertakan cause internal.
func JsonAppError(c *fiber.Ctx, e *apperror.AppError, debug bool) error {
	status := e.HTTPStatus()
	resp := ErrorResponse{
		Message:   e.Message,
		ErrorCode: e.Code,
		Errors:    e.FieldMap(),
		Retryable: e.Retryable,
	}
	if resp.ErrorCode == "" {
		resp.ErrorCode = statusToErrorCode(status)
	}
	if debug && e.Err != nil {
		resp.Debug = e.Err.Error()
	}
	return c.Status(status).JSON(resp)
}

func jsonSuccess(c *fiber.Ctx, status int, message, fallback string, data any, p *Pagination) error {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return c.Status(status).JSON(SuccessResponse{Success: true, Message: message, Data: data, Pagination: p})
}

// JsonList: list + pagination; Count diisi dari panjang data.
func JsonList(c *fiber.Ctx, message string, data any, p Pagination) error {
	if rv := reflect.ValueOf(data); rv.Kind() == reflect.Slice {
		p.Count = rv.Len()
	}
	return jsonSuccess(c, fiber.StatusOK, message, "ok", data, &p)
}

func JsonOK(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "ok", data, nil)
}

func JsonCreated(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusCreated, message, "created", data, nil)
}

func JsonUpdated(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "updated", data, nil)
}

func JsonDeleted(c *fiber.Ctx, message string, data any) error {
	return jsonSuccess(c, fiber.StatusOK, message, "deleted", data, nil)
}
