package logger

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LocRequestID diisi oleh middleware request-id.
const LocRequestID = "reqid"

var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init initializes the global logger
func Init(serviceName string, isDevelopment bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	level := zerolog.InfoLevel

	if isDevelopment {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
		level = zerolog.DebugLevel
	}

	Logger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Logger = Logger
}

// Ctx returns a logger carrying the request id of c.
func Ctx(c *fiber.Ctx) *zerolog.Logger {
	l := Logger.With().Logger()
	if c == nil {
		return &l
	}
	if id, ok := c.Locals(LocRequestID).(string); ok && id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

func Info(c *fiber.Ctx) *zerolog.Event  { return Ctx(c).Info() }
func Warn(c *fiber.Ctx) *zerolog.Event  { return Ctx(c).Warn() }
func Error(c *fiber.Ctx) *zerolog.Event { return Ctx(c).Error() }
func Debug(c *fiber.Ctx) *zerolog.Event { return Ctx(c).Debug() }

func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
