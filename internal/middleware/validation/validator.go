package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuestionLocal is the fiber local holding the sanitized question.
const QuestionLocal = "question"

type Config struct {
	MaxQuestionLength   int
	MaxMessageLength    int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects bodies with a foreign content type and enforces size
// limits on the question and chat message fields. Blank questions are left to
// the chatbot so they get its canonical error message.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQuestionLength == 0 {
		cfg.MaxQuestionLength = 2000
	}
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 4000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get(fiber.HeaderContentType)
			if contentType != "" && !allowedType(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()

		if c.Method() == fiber.MethodPost && strings.HasSuffix(path, "/ask") {
			var req map[string]interface{}
			if len(c.Body()) > 0 {
				if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "Invalid JSON format",
					})
				}
			}

			question := ""
			if raw, present := req["question"]; present && raw != nil {
				s, ok := raw.(string)
				if !ok {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "A valid question is required.",
					})
				}
				question = s
			}

			question = sanitizeString(question)
			if utf8.RuneCountInString(question) > cfg.MaxQuestionLength {
				cfg.Logger.Warn("Question exceeds maximum length",
					zap.String("ip", c.IP()),
					zap.Int("length", utf8.RuneCountInString(question)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("Question must be at most %d characters.", cfg.MaxQuestionLength),
				})
			}

			c.Locals(QuestionLocal, question)
		}

		if c.Method() == fiber.MethodPost && strings.HasSuffix(path, "/messages") {
			var req struct {
				Text string `json:"text"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}
			if utf8.RuneCountInString(req.Text) > cfg.MaxMessageLength {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Message exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	for _, allowedType := range allowed {
		if strings.Contains(contentType, allowedType) {
			return true
		}
	}
	return false
}

func sanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
