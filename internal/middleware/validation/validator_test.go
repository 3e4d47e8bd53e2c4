package validation

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{MaxQuestionLength: 20, MaxMessageLength: 10}))
	app.Post("/api/v1/ask", func(c *fiber.Ctx) error {
		q, _ := c.Locals(QuestionLocal).(string)
		return c.SendString(q)
	})
	app.Post("/api/v1/chats/:id/messages", func(c *fiber.Ctx) error {
		return c.SendString("stored")
	})
	return app
}

func post(t *testing.T, app *fiber.App, path, contentType, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestAskQuestionIsSanitized(t *testing.T) {
	status, body := post(t, newApp(), "/api/v1/ask", "application/json", `{"question":"  what is theft  "}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "what is theft", body)
}

func TestAskBlankQuestionPassesThrough(t *testing.T) {
	status, body := post(t, newApp(), "/api/v1/ask", "application/json", `{}`)
	assert.Equal(t, 200, status)
	assert.Empty(t, body)
}

func TestAskRejectsNonStringQuestion(t *testing.T) {
	status, body := post(t, newApp(), "/api/v1/ask", "application/json", `{"question":42}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, body, "A valid question is required.")
}

func TestAskRejectsLongQuestion(t *testing.T) {
	status, body := post(t, newApp(), "/api/v1/ask", "application/json", `{"question":"`+strings.Repeat("x", 21)+`"}`)
	assert.Equal(t, 400, status)
	assert.Contains(t, body, "at most 20 characters")
}

func TestAskRejectsMalformedJSON(t *testing.T) {
	status, _ := post(t, newApp(), "/api/v1/ask", "application/json", `{"question":`)
	assert.Equal(t, 400, status)
}

func TestRejectsUnsupportedContentType(t *testing.T) {
	status, _ := post(t, newApp(), "/api/v1/ask", "text/xml", `<q/>`)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
}

func TestMessageLengthCap(t *testing.T) {
	status, _ := post(t, newApp(), "/api/v1/chats/c1/messages", "application/json", `{"text":"short"}`)
	assert.Equal(t, 200, status)

	status, _ = post(t, newApp(), "/api/v1/chats/c1/messages", "application/json", `{"text":"far too long for the cap"}`)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)
}
