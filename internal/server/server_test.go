package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messaging-be/internal/bootstrap"
	"messaging-be/internal/config"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/pkg/serverutils"
	"messaging-be/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		App:       config.AppConfig{Port: "0", Environment: "test", CorsAllowedOrigins: "http://localhost:5173"},
		Database:  config.DatabaseConfig{Driver: database.DriverSQLite},
		Auth:      config.AuthConfig{JwtSecret: testSecret},
		Messaging: config.MessagingConfig{RestrictEditsToSender: true, UserCacheTTL: time.Minute},
		Notification: config.NotificationConfig{
			RetryMax:      3,
			RetryInterval: 10 * time.Millisecond,
		},
	}

	container, err := bootstrap.NewContainer(db, cfg, &bootstrap.Infrastructure{}, logger.NewNopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, container.Start(ctx))
	t.Cleanup(func() {
		cancel()
		container.Close()
	})

	return New(cfg, container).GetApp()
}

func call(t *testing.T, app *fiber.App, method, path string, userId *uuid.UUID, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userId != nil {
		token, err := serverutils.IssueToken(testSecret, *userId, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func register(t *testing.T, app *fiber.App, username string) uuid.UUID {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/users", nil, map[string]string{
		"username": username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var user struct {
		Id uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))
	return user.Id
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	status, env := call(t, app, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestMessageFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")
	bob := register(t, app, "bob")

	status, env := call(t, app, http.MethodPost, "/api/messages", &alice, map[string]interface{}{
		"receiver_id": bob,
		"content":     "hi",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var msg struct {
		Id           uuid.UUID `json:"id"`
		IsThreadRoot bool      `json:"is_thread_root"`
		Edited       bool      `json:"edited"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.True(t, msg.IsThreadRoot)

	status, _ = call(t, app, http.MethodPatch, "/api/messages/"+msg.Id.String(), &bob, map[string]string{"content": "hacked"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPatch, "/api/messages/"+msg.Id.String(), &alice, map[string]string{"content": "hi there"})
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.True(t, msg.Edited)

	status, env = call(t, app, http.MethodGet, "/api/messages/"+msg.Id.String()+"/history", &bob, nil)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0]["old_content"])

	status, env = call(t, app, http.MethodPost, "/api/messages", &bob, map[string]interface{}{
		"receiver_id":       alice,
		"content":           "hello back",
		"parent_message_id": msg.Id,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = call(t, app, http.MethodGet, "/api/threads/"+msg.Id.String(), &alice, nil)
	require.Equal(t, http.StatusOK, status)
	var thread []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	require.Len(t, thread, 2)
	assert.Equal(t, "hi there", thread[0]["content"])
	assert.Equal(t, "hello back", thread[1]["content"])

	status, env = call(t, app, http.MethodGet, "/api/inbox/unread", &bob, nil)
	require.Equal(t, http.StatusOK, status)
	var unread []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.Len(t, unread, 1)
	assert.Equal(t, "hi there", unread[0]["content"])

	status, _ = call(t, app, http.MethodPost, "/api/messages/"+msg.Id.String()+"/read", &alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	for i := 0; i < 2; i++ {
		status, env = call(t, app, http.MethodPost, "/api/messages/"+msg.Id.String()+"/read", &bob, nil)
		assert.Equal(t, http.StatusOK, status, env.Message)
	}

	status, env = call(t, app, http.MethodGet, "/api/notifications/unread-count", &bob, nil)
	require.Equal(t, http.StatusOK, status)
	var count struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.EqualValues(t, 0, count.Count)
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		user   *uuid.UUID
		body   interface{}
		status int
		code   string
	}{
		{"missing token", http.MethodGet, "/api/inbox/unread", nil, nil, http.StatusUnauthorized, ""},
		{"bad uuid", http.MethodGet, "/api/messages/not-a-uuid", &alice, nil, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"missing message", http.MethodGet, "/api/messages/" + uuid.NewString(), &alice, nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown thread", http.MethodGet, "/api/threads/" + uuid.NewString(), &alice, nil, http.StatusNotFound, "NOT_FOUND"},
		{"blank content", http.MethodPost, "/api/messages", &alice, map[string]interface{}{"receiver_id": alice, "content": "  "}, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"duplicate user", http.MethodPost, "/api/users", nil, map[string]string{"username": "alice", "email": "alice2@example.com"}, http.StatusConflict, "CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			if tt.code != "" {
				assert.Equal(t, tt.code, env.Error)
				assert.Equal(t, tt.status, env.Code)
			}
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice")
	bob := register(t, app, "bob")

	status, env := call(t, app, http.MethodPost, "/api/messages", &alice, map[string]interface{}{"receiver_id": bob, "content": "bye"})
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, _ = call(t, app, http.MethodDelete, "/api/users/me", &alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/users/"+alice.String(), &bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, app, http.MethodGet, "/api/inbox/unread", &bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = call(t, app, http.MethodGet, "/api/threads", &bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}
