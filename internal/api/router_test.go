package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalease/backend/internal/accounts"
	"github.com/legalease/backend/internal/cases"
	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/legal"
	"github.com/legalease/backend/internal/llm"
	"github.com/legalease/backend/internal/notify"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/memory"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/config"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.reply}, nil
}

func catalogue(t *testing.T) []models.LegalRecord {
	t.Helper()
	records, err := legal.DefaultCatalogue()
	require.NoError(t, err)
	return records
}

type testServer struct {
	app      *fiber.App
	store    *memory.Store
	provider *stubProvider
}

func newTestServer(t *testing.T, provider *stubProvider) *testServer {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	for _, r := range catalogue(t) {
		require.NoError(t, store.Set(ctx, storage.CollectionLegalDataset, r.ID, r.Fields()))
	}

	require.NoError(t, store.Set(ctx, storage.CollectionLawyers, "lawyer-1", storage.Fields{"fullName": "A. Khan"}))
	require.NoError(t, store.Set(ctx, storage.CollectionBookings, "booking-1", storage.Fields{"lawyerId": "lawyer-1", "status": "Pending"}))
	require.NoError(t, store.Set(ctx, storage.CollectionChats, "chat-1", storage.Fields{"participants": []string{"client-1", "lawyer-1"}}))

	var p llm.Provider
	if provider != nil {
		p = provider
	}

	app := NewApp(config.ServerConfig{BodyLimit: 1 << 20, MaxQuestionLength: 500, Development: true}, Deps{
		Store:    store,
		Engine:   chatbot.NewEngine(store, p),
		Cases:    cases.NewService(store, cases.CountEveryUpdate),
		Accounts: accounts.NewService(store, accounts.WithHashCost(bcrypt.MinCost)),
		Notifier: notify.NewNotifier(store, nil),
	})

	return &testServer{app: app, store: store, provider: provider}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestAskEndToEnd(t *testing.T) {
	provider := &stubProvider{reply: "Under Section 379 PPC theft is punishable.\n" + legal.Disclaimer}
	s := newTestServer(t, provider)

	status, body := s.do(t, "POST", "/api/v1/ask", `{"question":"What is the punishment for theft?"}`, nil)
	require.Equal(t, http.StatusOK, status)

	assert.Contains(t, body["answer"], legal.Disclaimer)
	assert.Contains(t, body["context"], "Act: ")
	assert.Equal(t, 1, provider.calls)
}

func TestAskBlankQuestion(t *testing.T) {
	provider := &stubProvider{reply: "unused"}
	s := newTestServer(t, provider)

	for _, payload := range []string{`{"question":"   "}`, `{}`} {
		status, body := s.do(t, "POST", "/api/v1/ask", payload, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, chatbot.QuestionRequiredMessage, body["error"])
	}
	assert.Zero(t, provider.calls)
}

func TestAskWithoutProvider(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "POST", "/api/v1/ask", `{"question":"acid attack"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, chatbot.NotConfiguredAnswer, body["answer"])
	assert.Contains(t, body["context"], "Category: Acid Attack")
}

func TestAskUnauthorizedProvider(t *testing.T) {
	s := newTestServer(t, &stubProvider{err: fmt.Errorf("stub: %w", llm.ErrUnauthorized)})

	status, body := s.do(t, "POST", "/api/v1/ask", `{"question":"theft"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, chatbot.UnauthorizedMessage, body["error"])
}

func TestAskProviderFailure(t *testing.T) {
	s := newTestServer(t, &stubProvider{err: fmt.Errorf("i/o timeout")})

	status, body := s.do(t, "POST", "/api/v1/ask", `{"question":"theft"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "i/o timeout")
}

func TestRecordsAndHistory(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "GET", "/api/v1/records", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, len(catalogue(t)), body["count"])

	s.do(t, "POST", "/api/v1/ask", `{"question":"murder"}`, nil)

	status, body = s.do(t, "GET", "/api/v1/history", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["history"], 1)

	status, body = s.do(t, "DELETE", "/api/v1/history", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cleared", body["status"])
	assert.EqualValues(t, 1, body["deleted"])
}

func TestHistoryClearAlias(t *testing.T) {
	s := newTestServer(t, nil)

	s.do(t, "POST", "/api/v1/ask", `{"question":"theft"}`, nil)

	status, body := s.do(t, "DELETE", "/api/v1/history/clear", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["deleted"])

	_, body = s.do(t, "GET", "/api/v1/history", "", nil)
	assert.Empty(t, body["history"])
}

func TestFreshDeploymentBookingAndChatFlow(t *testing.T) {
	s := newTestServer(t, nil)

	status, lawyer := s.do(t, "POST", "/api/v1/register/lawyer",
		`{"username":"nadia","password":"pw","fullName":"Nadia Ali","barNumber":"B-9","specialization":"Family"}`, nil)
	require.Equal(t, http.StatusCreated, status, lawyer)
	lawyerID := lawyer["id"].(string)
	assert.NotContains(t, lawyer, "password")

	status, client := s.do(t, "POST", "/api/v1/register/client", `{"username":"omar","password":"pw","fullName":"Omar"}`, nil)
	require.Equal(t, http.StatusCreated, status, client)
	clientID := client["id"].(string)
	asClient := map[string]string{"X-User-ID": clientID}

	status, body := s.do(t, "POST", "/api/v1/register/client", `{"username":"OMAR","password":"x","fullName":"Other"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username taken", body["error"])

	status, body = s.do(t, "POST", "/api/v1/login", `{"username":"omar","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, clientID, body["id"])

	status, booking := s.do(t, "POST", "/api/v1/bookings", fmt.Sprintf(`{"lawyerId":%q}`, lawyerID), asClient)
	require.Equal(t, http.StatusCreated, status, booking)
	assert.Equal(t, "Pending", booking["status"])

	status, _ = s.do(t, "POST", "/api/v1/bookings/"+booking["id"].(string)+"/status", `{"status":"Lost"}`, asClient)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, "GET", "/api/v1/lawyers/"+lawyerID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Family", body["specialization"])
	assert.EqualValues(t, 1, body["lostCases"])

	status, chat := s.do(t, "POST", "/api/v1/chats", fmt.Sprintf(`{"participants":[%q]}`, lawyerID), asClient)
	require.Equal(t, http.StatusCreated, status, chat)

	status, _ = s.do(t, "POST", "/api/v1/chats/"+chat["id"].(string)+"/messages", fmt.Sprintf(`{"userId":%q,"text":"Hi"}`, clientID), nil)
	assert.Equal(t, http.StatusCreated, status)
}

func TestBookingStatus(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "POST", "/api/v1/bookings/booking-1/status", `{"status":"Won"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status, body = s.do(t, "POST", "/api/v1/bookings/missing/status", `{"status":"Won"}`, map[string]string{"X-User-ID": "client-1"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, "POST", "/api/v1/bookings/booking-1/status", `{"status":"Won"}`, map[string]string{"X-User-ID": "client-1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "lawyer-1", body["lawyerId"])

	status, body = s.do(t, "GET", "/api/v1/lawyers/lawyer-1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["wonCases"])
	assert.EqualValues(t, 1, body["totalCases"])
}

func TestChatMessagesAndPushTokens(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "PUT", "/api/v1/users/lawyer-1/push-tokens", `{"token":"device-1"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "registered", body["status"])

	status, body = s.do(t, "POST", "/api/v1/chats/chat-1/messages", `{"userId":"client-1","text":"Hello"}`, nil)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["messageId"])
	assert.EqualValues(t, 1, body["notified"])

	status, _ = s.do(t, "POST", "/api/v1/chats/nope/messages", `{"userId":"client-1","text":"Hello"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, "GET", "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, len(catalogue(t)), body["records"])
	assert.Equal(t, false, body["providerConfigured"])

	status, body = s.do(t, "GET", "/api/v1/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, "GET", "/ws/ask", "", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}
