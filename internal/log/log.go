package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CallerKey is the fiber.Locals key under which the auth middleware stores
// the authenticated caller's email.
const CallerKey = "email"

var current atomic.Pointer[zerolog.Logger]

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	current.Store(&l)
}

// New builds a logger from the LOG_LEVEL / LOG_FORMAT / LOG_FILE settings.
// The returned closer is nil unless a file was opened.
func New(level, format, file string) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && parsed != zerolog.NoLevel {
		lvl = parsed
	}

	out := io.Writer(os.Stdout)
	var closer io.Closer
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "easybuy").Logger(), closer, nil
}

func Set(l zerolog.Logger) { current.Store(&l) }

// SetOutput replaces the package logger with a JSON logger writing to w.
func SetOutput(w io.Writer) {
	Set(zerolog.New(w).With().Timestamp().Logger())
}

func Logger() *zerolog.Logger { return current.Load() }

func write(ev *zerolog.Event, kind string, c *fiber.Ctx, action string, fields map[string]any) {
	ev = ev.Str("kind", kind)
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if who, ok := c.Locals(CallerKey).(string); ok && who != "" {
			ev = ev.Str("email", who)
		}
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Msg(action)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), "info", c, action, fields)
}

// Audit records a state change made on behalf of a caller.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), "audit", c, action, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Warn(), "security", c, action, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(Logger().Error().Err(err), "error", c, action, fields)
}
