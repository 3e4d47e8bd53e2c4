// Package notify stores chat messages and fans out push notifications to the
// other participants of the chat.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

type Notifier struct {
	store  storage.Store
	sender Sender
	now    func() time.Time
}

func NewNotifier(store storage.Store, sender Sender) *Notifier {
	if sender == nil {
		sender = LogSender{}
	}
	return &Notifier{store: store, sender: sender, now: time.Now}
}

type MessageInput struct {
	UserID         string `json:"userId"`
	Text           string `json:"text"`
	AttachmentName string `json:"attachmentName"`
}

type MessageResult struct {
	MessageID string `json:"messageId"`
	Notified  int    `json:"notified"`
}

// CreateChat opens a chat between callerID and the given participants. The
// caller is always a participant and duplicates are dropped.
func (n *Notifier) CreateChat(ctx context.Context, callerID string, participants []string) (*models.Chat, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return nil, apperr.Unauthenticated("User must be logged in.")
	}

	members := []string{callerID}
	seen := map[string]bool{callerID: true}
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		members = append(members, p)
	}
	if len(members) < 2 {
		return nil, apperr.InvalidArgument("A chat needs at least one other participant.")
	}

	chat := models.Chat{
		ID:           uuid.New().String(),
		Participants: members,
		CreatedAt:    n.now().UTC(),
	}
	if err := n.store.Set(ctx, storage.CollectionChats, chat.ID, chat.Fields()); err != nil {
		return nil, apperr.Internal("Failed to create chat.", err)
	}

	logger.Info("Chat created", zap.String("chat_id", chat.ID), zap.Int("participants", len(members)))
	return &chat, nil
}

// OnChatMessage stores the message and notifies every other participant.
// Notification problems are logged and never fail the call.
func (n *Notifier) OnChatMessage(ctx context.Context, chatID string, in MessageInput) (*MessageResult, error) {
	chatID = strings.TrimSpace(chatID)
	in.UserID = strings.TrimSpace(in.UserID)
	if chatID == "" || in.UserID == "" {
		return nil, apperr.InvalidArgument("chatId and userId are required.")
	}
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.AttachmentName) == "" {
		return nil, apperr.InvalidArgument("A message needs text or an attachment.")
	}

	doc, found, err := n.store.Get(ctx, storage.CollectionChats, chatID)
	if err != nil {
		return nil, apperr.Internal("Failed to read chat.", err)
	}
	if !found {
		return nil, apperr.NotFound("Chat not found.")
	}
	chat := models.ChatFromDocument(doc)

	msg := models.ChatMessage{
		ID:             uuid.New().String(),
		ChatID:         chatID,
		UserID:         in.UserID,
		Text:           in.Text,
		AttachmentName: in.AttachmentName,
		CreatedAt:      n.now(),
	}
	if err := n.store.Set(ctx, storage.ChatMessagesCollection(chatID), msg.ID, msg.Fields()); err != nil {
		return nil, apperr.Internal("Failed to store message.", err)
	}

	notified := n.fanOut(ctx, chat, msg)

	return &MessageResult{MessageID: msg.ID, Notified: notified}, nil
}

func (n *Notifier) fanOut(ctx context.Context, chat models.Chat, msg models.ChatMessage) int {
	var tokens []string
	senderName := ""

	for _, participant := range chat.Participants {
		doc, found, err := n.store.Get(ctx, storage.CollectionUsers, participant)
		if err != nil {
			logger.Warn("Failed to read participant", zap.String("user_id", participant), zap.Error(err))
			continue
		}
		if !found {
			continue
		}
		user := models.UserFromDocument(doc)
		if participant == msg.UserID {
			senderName = user.DisplayName
			continue
		}
		tokens = append(tokens, user.PushTokens...)
	}

	if len(tokens) == 0 {
		logger.Debug("No push tokens for chat", zap.String("chat_id", chat.ID))
		return 0
	}

	result, err := n.sender.Send(ctx, tokens, buildPayload(senderName, msg))
	if err != nil {
		logger.Warn("Failed to send notifications",
			zap.String("chat_id", chat.ID),
			zap.Int("tokens", len(tokens)),
			zap.Error(err),
		)
		metrics.NotificationsSent.WithLabelValues("failed").Add(float64(len(tokens)))
		return 0
	}

	metrics.NotificationsSent.WithLabelValues("sent").Add(float64(result.SuccessCount))
	if result.FailureCount > 0 {
		metrics.NotificationsSent.WithLabelValues("failed").Add(float64(result.FailureCount))
		logger.Warn("Some notifications failed",
			zap.String("chat_id", chat.ID),
			zap.Int("failed", result.FailureCount),
		)
	}

	return result.SuccessCount
}

func buildPayload(senderName string, msg models.ChatMessage) Payload {
	title := "New message"
	if senderName != "" {
		title = "New message from " + senderName
	}

	body := msg.Text
	if strings.TrimSpace(body) == "" {
		body = "Sent an attachment: " + msg.AttachmentName
	}

	return Payload{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"chatId":    msg.ChatID,
			"messageId": msg.ID,
			"senderId":  msg.UserID,
		},
	}
}

// RegisterPushToken adds token to the user's device list, creating the user
// document if needed. Registering the same token twice is a no-op.
func (n *Notifier) RegisterPushToken(ctx context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return apperr.InvalidArgument("userId and token are required.")
	}

	total := 0
	err := n.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		doc, found, err := tx.Get(ctx, storage.CollectionUsers, userID)
		if err != nil {
			return err
		}
		if !found {
			total = 1
			return tx.Set(ctx, storage.CollectionUsers, userID, storage.Fields{"pushTokens": []string{token}})
		}

		tokens := models.UserFromDocument(doc).PushTokens
		for _, existing := range tokens {
			if existing == token {
				return nil
			}
		}
		total = len(tokens) + 1
		return tx.Update(ctx, storage.CollectionUsers, userID, storage.Fields{"pushTokens": append(tokens, token)})
	})
	if err != nil {
		return apperr.Internal("Failed to register push token.", err)
	}
	if total == 0 {
		return nil
	}

	logger.Info("Push token registered", zap.String("user_id", userID), zap.Int("tokens", total))
	return nil
}
