package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditIncludesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("requestid", "rid-1")
		c.Locals(CallerKey, "b@x.io")
		c.Status(fiber.StatusCreated)
		Audit(c, "booking.create", map[string]any{"product_id": "p1"})
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "audit", line["kind"])
	assert.Equal(t, "booking.create", line["message"])
	assert.Equal(t, "rid-1", line["req_id"])
	assert.Equal(t, "b@x.io", line["email"])
	assert.Equal(t, "/x", line["path"])
	assert.EqualValues(t, 201, line["status"])
	assert.Equal(t, "p1", line["fields"].(map[string]any)["product_id"])
}

func TestErrorAndSecurityLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	Error(nil, "db.fail", errors.New("boom"), nil)
	Security(nil, "auth.denied", nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "error", first["level"])
	assert.Equal(t, "boom", first["error"])
	assert.Equal(t, "warn", second["level"])
	assert.Equal(t, "security", second["kind"])
}

func TestNew(t *testing.T) {
	l, closer, err := New("debug", "json", "")
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, "debug", l.GetLevel().String())

	path := filepath.Join(t.TempDir(), "app.log")
	_, closer, err = New("bogus", "console", path)
	require.NoError(t, err)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())

	_, _, err = New("info", "json", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
