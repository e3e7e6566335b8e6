package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedpulse/internal/config"
	"feedpulse/internal/domain"
	"feedpulse/internal/errors"
	"feedpulse/internal/notify"
)

type stubConversations struct {
	history  []domain.Message
	fetchErr error
}

func (s *stubConversations) Send(context.Context, uuid.UUID, uuid.UUID, string) error {
	return nil
}

func (s *stubConversations) Fetch(context.Context, uuid.UUID, uuid.UUID) ([]domain.Message, error) {
	return s.history, s.fetchErr
}

type stubTypingService struct{}

func (stubTypingService) RelayTyping(uuid.UUID, uuid.UUID, map[string]json.RawMessage) {}

type stubNotifications struct {
	created   []notify.CreateParams
	createErr error
	history   []domain.Notification
	listErr   error
}

func (s *stubNotifications) Create(_ context.Context, params notify.CreateParams) (*domain.Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, params)
	return &domain.Notification{
		ID:         uuid.New(),
		ToUserID:   params.ToUserID,
		FromUserID: params.FromUserID,
		Message:    params.Message,
		Action:     params.Action,
		PostID:     params.PostID,
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubNotifications) List(context.Context, uuid.UUID) ([]domain.Notification, error) {
	return s.history, s.listErr
}

func (s *stubNotifications) ReplayPending(context.Context, uuid.UUID, domain.Conn) {}

type stubRateLimiter struct {
	allowed bool
	err     error
}

func (s *stubRateLimiter) Allow(context.Context, string) (bool, error) {
	return s.allowed, s.err
}

type stubPostgres struct{ err error }

func (s stubPostgres) Ping(context.Context) error { return s.err }

type stubRedis struct{ err error }

func (s stubRedis) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
	}
	return cmd
}

type nopRegistry struct{}

func (nopRegistry) Register(uuid.UUID, domain.Conn) domain.Conn { return nil }
func (nopRegistry) Unregister(domain.Conn) (uuid.UUID, bool)    { return uuid.Nil, false }

type nopPresence struct{}

func (nopPresence) Broadcast(context.Context) {}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "test",
		Port:                 "0",
		MaxConnections:       100,
		MaxConnectionsPerIP:  100,
		ConnectionsPerSecond: 100.0,
		ConnectionBurst:      100,
		APIRateLimit:         1000,
		APIRateWindow:        900,
	}
}

type serverFixture struct {
	server        *Server
	conversations *stubConversations
	notifications *stubNotifications
	rateLimiter   *stubRateLimiter
	postgres      *stubPostgres
	redis         *stubRedis
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		conversations: &stubConversations{},
		notifications: &stubNotifications{},
		rateLimiter:   &stubRateLimiter{allowed: true},
		postgres:      &stubPostgres{},
		redis:         &stubRedis{},
	}
	f.server = NewServer(
		testConfig(),
		clockwork.NewFakeClock(),
		nopRegistry{},
		nopPresence{},
		f.conversations,
		stubTypingService{},
		f.notifications,
		f.rateLimiter,
		f.postgres,
		f.redis,
	)
	return f
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.server.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetConversation(t *testing.T) {
	f := newServerFixture(t)
	created := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	msg := domain.Message{
		ID:         uuid.New(),
		FromUserID: uuid.New(),
		ToUserID:   uuid.New(),
		Body:       "hello",
		CreatedAt:  created,
	}
	f.conversations.history = []domain.Message{msg}

	rec := f.do(http.MethodGet, "/api/messages/"+msg.FromUserID.String()+"/"+msg.ToUserID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response []messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, msg.ID.String(), response[0].ID)
	assert.Equal(t, "hello", response[0].Message)
	assert.Equal(t, created.Format(time.RFC3339), response[0].Timestamp)
}

func TestHandleGetConversation_InvalidUUID(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(http.MethodGet, "/api/messages/not-a-uuid/"+uuid.NewString(), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response errors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, errors.TypeValidation, response.Type)
}

func TestHandleGetConversation_ServiceError(t *testing.T) {
	f := newServerFixture(t)
	f.conversations.fetchErr = errors.InternalError("failed to load conversation", assert.AnError)

	rec := f.do(http.MethodGet, "/api/messages/"+uuid.NewString()+"/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleListNotifications(t *testing.T) {
	f := newServerFixture(t)
	postID := uuid.New()
	f.notifications.history = []domain.Notification{{
		ID:         uuid.New(),
		ToUserID:   uuid.New(),
		FromUserID: uuid.New(),
		Message:    "bob commented on your post",
		Action:     domain.ActionComment,
		PostID:     &postID,
		CreatedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		Read:       true,
	}}

	rec := f.do(http.MethodGet, "/api/notifications/"+uuid.NewString(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response []notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "comment", response[0].Action)
	require.NotNil(t, response[0].PostID)
	assert.Equal(t, postID.String(), *response[0].PostID)
	assert.True(t, response[0].Read)
}

func TestHandleCreateNotification(t *testing.T) {
	f := newServerFixture(t)
	to := uuid.New()
	from := uuid.New()
	postID := uuid.New()
	body := `{"toUserId":"` + to.String() + `","fromUserId":"` + from.String() + `","message":"alice liked your post","action":"like","postId":"` + postID.String() + `"}`

	rec := f.do(http.MethodPost, "/api/notifications", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, f.notifications.created, 1)
	params := f.notifications.created[0]
	assert.Equal(t, to, params.ToUserID)
	assert.Equal(t, from, params.FromUserID)
	assert.Equal(t, domain.ActionLike, params.Action)
	require.NotNil(t, params.PostID)
	assert.Equal(t, postID, *params.PostID)

	var response notificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, to.String(), response.ToUserID)
	assert.False(t, response.Read)
}

func TestHandleCreateNotification_InvalidInput(t *testing.T) {
	f := newServerFixture(t)

	cases := map[string]string{
		"bad recipient": `{"toUserId":"nope","fromUserId":"` + uuid.NewString() + `","message":"x","action":"like"}`,
		"bad post id":   `{"toUserId":"` + uuid.NewString() + `","fromUserId":"` + uuid.NewString() + `","message":"x","action":"like","postId":"nope"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/notifications", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, f.notifications.created)
}

func TestHandleCreateNotification_ServiceValidation(t *testing.T) {
	f := newServerFixture(t)
	f.notifications.createErr = errors.ValidationError("unknown notification action")

	body := `{"toUserId":"` + uuid.NewString() + `","fromUserId":"` + uuid.NewString() + `","message":"x","action":"poke"}`
	rec := f.do(http.MethodPost, "/api/notifications", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitMiddleware_Denies(t *testing.T) {
	f := newServerFixture(t)
	f.rateLimiter.allowed = false

	rec := f.do(http.MethodGet, "/api/notifications/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	f := newServerFixture(t)
	f.rateLimiter.allowed = false
	f.rateLimiter.err = assert.AnError

	rec := f.do(http.MethodGet, "/api/notifications/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, rec.Code, "a limiter outage must not block requests")
}

func TestRateLimitMiddleware_SkipsHealthEndpoints(t *testing.T) {
	f := newServerFixture(t)
	f.rateLimiter.allowed = false

	rec := f.do(http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
