package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *chatbot.Engine
}

func NewWebSocketHandler(engine *chatbot.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

// Upgrade rejects plain HTTP requests to the websocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// frameConn is the part of *websocket.Conn the question loop uses.
type frameConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

type questionFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	h.serve(context.Background(), c)
}

// serve answers question frames until the connection fails. Reads run on
// their own goroutine so a closed connection cancels the question being
// answered.
func (h *WebSocketHandler) serve(parent context.Context, c frameConn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	frames := make(chan questionFrame)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			var msg questionFrame
			if err := c.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("Failed to read WebSocket message", zap.Error(err))
				}
				return
			}
			select {
			case frames <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range frames {
		if msg.Type != "question" {
			continue
		}

		if err := h.streamAnswer(ctx, c, msg.Content); err != nil {
			logger.Warn("Failed to stream answer", zap.Error(err))
			return
		}
	}
}

// streamAnswer sends a status frame, the answer word by word and a final
// complete frame carrying the context. Engine errors become an error frame
// and keep the connection open.
func (h *WebSocketHandler) streamAnswer(ctx context.Context, c frameConn, question string) error {
	if err := h.sendChunk(c, "status", "Processing question..."); err != nil {
		return err
	}

	timer := metrics.QuestionDuration.WithLabelValues("websocket")
	resp, err := h.engine.Ask(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return h.sendError(c, err)
	}
	timer.Observe(float64(resp.LatencyMS) / 1000)

	words := splitIntoWords(resp.Answer.Answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 && word != "\n" && words[i+1] != "\n" {
			chunk += " "
		}

		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return c.WriteJSON(fiber.Map{
		"type":       "complete",
		"message_id": resp.ID,
		"context":    resp.Context,
		"matched":    resp.Matched,
		"latency_ms": resp.LatencyMS,
	})
}

func (h *WebSocketHandler) sendChunk(c frameConn, msgType, content string) error {
	return c.WriteJSON(fiber.Map{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c frameConn, err error) error {
	return c.WriteJSON(fiber.Map{
		"type":   "error",
		"error":  apperr.PublicMessage(err),
		"status": apperr.KindOf(err).HTTPStatus(),
	})
}

// splitIntoWords splits on spaces and keeps line breaks as their own items.
func splitIntoWords(text string) []string {
	words := []string{}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			words = append(words, "\n")
		}
		words = append(words, strings.Fields(line)...)
	}
	return words
}
