package notify

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/legalease/backend/internal/cache/redis"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/memory"
	"github.com/legalease/backend/pkg/apperr"
)

type recordingSender struct {
	mu      sync.Mutex
	tokens  []string
	payload Payload
	err     error
}

func (s *recordingSender) Send(_ context.Context, tokens []string, payload Payload) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return SendResult{}, s.err
	}
	s.tokens = append(s.tokens, tokens...)
	s.payload = payload
	return SendResult{SuccessCount: len(tokens)}, nil
}

func seedChat(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Set(ctx, storage.CollectionChats, "chat-1", storage.Fields{
		"participants": []string{"client-1", "lawyer-1", "ghost"},
	}))
	require.NoError(t, store.Set(ctx, storage.CollectionUsers, "client-1", storage.Fields{
		"displayName": "Sara",
		"pushTokens":  []string{"client-device"},
	}))
	require.NoError(t, store.Set(ctx, storage.CollectionUsers, "lawyer-1", storage.Fields{
		"displayName": "A. Khan",
		"pushTokens":  []string{"lawyer-phone", "lawyer-tablet"},
	}))
	return store
}

func TestOnChatMessageNotifiesOtherParticipants(t *testing.T) {
	store := seedChat(t)
	sender := &recordingSender{}
	n := NewNotifier(store, sender)

	res, err := n.OnChatMessage(context.Background(), "chat-1", MessageInput{UserID: "client-1", Text: "Hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.MessageID)
	assert.Equal(t, 2, res.Notified)
	assert.ElementsMatch(t, []string{"lawyer-phone", "lawyer-tablet"}, sender.tokens)
	assert.Equal(t, "New message from Sara", sender.payload.Title)
	assert.Equal(t, "Hello", sender.payload.Body)
	assert.Equal(t, "chat-1", sender.payload.Data["chatId"])

	msgs, err := store.GetAll(context.Background(), storage.ChatMessagesCollection("chat-1"))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "client-1", msgs[0].Fields.String("userId"))
}

func TestOnChatMessageAttachmentOnly(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(seedChat(t), sender)

	_, err := n.OnChatMessage(context.Background(), "chat-1", MessageInput{UserID: "lawyer-1", AttachmentName: "fir.pdf"})
	require.NoError(t, err)

	assert.Equal(t, []string{"client-device"}, sender.tokens)
	assert.Equal(t, "Sent an attachment: fir.pdf", sender.payload.Body)
}

func TestOnChatMessageSwallowsSenderFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	n := NewNotifier(seedChat(t), sender)

	res, err := n.OnChatMessage(context.Background(), "chat-1", MessageInput{UserID: "client-1", Text: "Hi"})
	require.NoError(t, err)
	assert.Zero(t, res.Notified)
}

func TestOnChatMessageErrors(t *testing.T) {
	n := NewNotifier(seedChat(t), &recordingSender{})
	ctx := context.Background()

	_, err := n.OnChatMessage(ctx, "chat-1", MessageInput{Text: "no sender"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = n.OnChatMessage(ctx, "chat-1", MessageInput{UserID: "client-1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = n.OnChatMessage(ctx, "missing", MessageInput{UserID: "client-1", Text: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRegisterPushToken(t *testing.T) {
	store := memory.NewStore()
	n := NewNotifier(store, nil)
	ctx := context.Background()

	require.NoError(t, n.RegisterPushToken(ctx, "user-1", "tok-a"))
	require.NoError(t, n.RegisterPushToken(ctx, "user-1", "tok-b"))
	require.NoError(t, n.RegisterPushToken(ctx, "user-1", "tok-a"))

	doc, found, err := store.Get(ctx, storage.CollectionUsers, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"tok-a", "tok-b"}, doc.Fields.Strings("pushTokens"))

	err = n.RegisterPushToken(ctx, "user-1", " ")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestRedisSenderEnqueuesPerToken(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := redisclient.NewClient(mr.Host(), port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	sender := NewRedisSender(client, "legalease:notifications")
	res, err := sender.Send(context.Background(), []string{"t1", "t2"}, Payload{Title: "T", Body: "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)

	msgs, err := client.ReadStream(context.Background(), "legalease:notifications", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "t1", msgs[0].Values["token"])
	assert.Equal(t, "T", msgs[1].Values["title"])
}

type failingWriter struct{}

func (failingWriter) AddToStream(context.Context, string, map[string]interface{}) (string, error) {
	return "", errors.New("connection refused")
}

func TestRedisSenderCountsFailures(t *testing.T) {
	res, err := NewRedisSender(failingWriter{}, "s").Send(context.Background(), []string{"a", "b"}, Payload{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FailureCount)
	assert.Equal(t, []string{"a", "b"}, res.Failed)
}

// slowReadStore widens the window between reading and writing a document
// for code that does both outside a transaction.
type slowReadStore struct {
	*memory.Store
}

func (s slowReadStore) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Get(ctx, collection, id)
}

func TestRegisterPushTokenConcurrentDevicesAreAllKept(t *testing.T) {
	store := slowReadStore{memory.NewStore()}
	n := NewNotifier(store, nil)
	ctx := context.Background()
	const devices = 10

	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, n.RegisterPushToken(ctx, "client-1", "device-"+strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()

	doc, found, err := store.Get(ctx, storage.CollectionUsers, "client-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, doc.Fields.Strings("pushTokens"), devices)
}

func TestCreateChatThenMessage(t *testing.T) {
	store := seedChat(t)
	sender := &recordingSender{}
	n := NewNotifier(store, sender)
	ctx := context.Background()

	chat, err := n.CreateChat(ctx, "client-1", []string{"lawyer-1", "client-1", " ", "lawyer-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1", "lawyer-1"}, chat.Participants)

	res, err := n.OnChatMessage(ctx, chat.ID, MessageInput{UserID: "client-1", Text: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.ElementsMatch(t, []string{"lawyer-phone", "lawyer-tablet"}, sender.tokens)
}

func TestCreateChatErrors(t *testing.T) {
	n := NewNotifier(memory.NewStore(), nil)
	ctx := context.Background()

	_, err := n.CreateChat(ctx, "", []string{"lawyer-1"})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = n.CreateChat(ctx, "client-1", []string{"client-1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}
