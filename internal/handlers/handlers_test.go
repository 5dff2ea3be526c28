package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/wirdan1/Webchat/internal/handlers"
	"github.com/wirdan1/Webchat/internal/middleware"
	"github.com/wirdan1/Webchat/internal/services"
	"github.com/wirdan1/Webchat/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	users    *testutil.MemUserRepo
	storage  *testutil.MemStorage
	hub      *services.WSHub
	sessions *services.SessionService
	messages *services.MessageService
}

// newTestEnv wires the full router the way cmd.Run does, on in-memory repos.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := testutil.NewMemUserRepo()
	messages := testutil.NewMemMessageRepo()
	sessions := testutil.NewMemSessionRepo()
	storage := testutil.NewMemStorage()

	hub := services.NewWSHub()
	sessionService := services.NewSessionService(sessions, "test-secret")
	userService := services.NewUserService(users, storage)
	messageService := services.NewMessageService(messages, users, storage, hub, nil)

	authHandler := handlers.NewAuthHandler(userService, sessionService, false)
	profileHandler := handlers.NewProfileHandler(userService, sessionService)
	messageHandler := handlers.NewMessageHandler(messageService)
	wsHandler := handlers.NewWebSocketHandler(hub, sessionService, messageService)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RedirectAuthenticated(sessionService))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/logout", authHandler.Logout)
		r.Get("/profile", profileHandler.GetProfile)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(sessionService))
			r.Put("/profile", profileHandler.UpdateProfile)
			r.Get("/messages", messageHandler.ListMessages)
			r.Post("/messages", messageHandler.SendMessage)
			r.Get("/users/active", messageHandler.ActiveUsers)
		})
	})
	r.Get("/ws", wsHandler.HandleWebSocket)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{
		server:   server,
		client:   client,
		users:    users,
		storage:  storage,
		hub:      hub,
		sessions: sessionService,
		messages: messageService,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

// register creates a user through the API and returns their session cookie and id
func (e *testEnv) register(t *testing.T, name, phone, password string) (*http.Cookie, string) {
	t.Helper()
	resp := e.postJSON(t, "/api/v1/register", handlers.RegisterRequest{
		Name: name, Phone: phone, Password: password,
	}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			return cookie, body.ID
		}
	}
	t.Fatal("no session cookie in register response")
	return nil, ""
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileType string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
		header.Set("Content-Type", fileType)
		fw, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	cookie, id := env.register(t, "Alice", "+15550001", "secret123")
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "+15550001", "secret123")

	resp := env.postJSON(t, "/api/v1/register", handlers.RegisterRequest{
		Name: "Mallory", Phone: "+15550001", Password: "other",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "+15550001", "secret123")

	resp := env.postJSON(t, "/api/v1/login", handlers.LoginRequest{
		Phone: "+15550001", Password: "wrong",
	}, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticatedCallerRedirectedFromLogin(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.register(t, "Alice", "+15550001", "secret123")

	resp := env.postJSON(t, "/api/v1/login", handlers.LoginRequest{
		Phone: "+15550001", Password: "secret123",
	}, cookie)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/chat", resp.Header.Get("Location"))
}

func TestProfileWithoutCookieIsNull(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/v1/profile", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(body))
}

func TestProfileOfDeletedUserIsNull(t *testing.T) {
	env := newTestEnv(t)
	cookie, id := env.register(t, "Alice", "+15550001", "secret123")

	env.users.Remove(id)

	resp := env.get(t, "/api/v1/profile", cookie)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(body))
}

func TestProfileNeverExposesPassword(t *testing.T) {
	env := newTestEnv(t)
	cookie, id := env.register(t, "Alice", "+15550001", "secret123")

	resp := env.get(t, "/api/v1/profile", cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, id, profile["id"])
	assert.Equal(t, "Alice", profile["name"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "password_hash")
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	_, id := env.register(t, "Alice", "+15550001", "secret123")

	buf, contentType := multipartBody(t, map[string]string{
		"name": "Mallory", "phone": "+15550009",
	}, "", "", "", nil)
	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/v1/profile", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// No write happened.
	user, err := env.users.GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "+15550001", user.Phone)
}

func TestUpdateProfileWithAvatar(t *testing.T) {
	env := newTestEnv(t)
	cookie, id := env.register(t, "Alice", "+15550001", "secret123")

	buf, contentType := multipartBody(t, map[string]string{
		"name": "Alice B", "phone": "+15550002",
	}, "avatar", "me.png", "image/png", []byte("png-bytes"))
	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/v1/profile", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := env.users.GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", user.Name)
	require.NotNil(t, user.AvatarURL)
	assert.Len(t, env.storage.Objects, 1)
}

func TestLogoutRevokesSessionServerSide(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.register(t, "Alice", "+15550001", "secret123")

	resp := env.postJSON(t, "/api/v1/logout", nil, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Resending the old cookie must no longer be recognized.
	resp = env.get(t, "/api/v1/profile", cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(body))
}

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t)
	cookie, id := env.register(t, "Alice", "+15550001", "secret123")

	buf, contentType := multipartBody(t, map[string]string{"text": "hello"}, "", "", "", nil)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/messages", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/api/v1/messages", cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0]["text"])
	assert.Equal(t, "Alice", list[0]["user_name"])
	assert.Equal(t, id, list[0]["user_id"])
	assert.NotEmpty(t, list[0]["created_at"])
}

func TestListMessagesRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/v1/messages", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSendMessageWithAttachment(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.register(t, "Alice", "+15550001", "secret123")

	buf, contentType := multipartBody(t, map[string]string{"text": ""}, "file", "cat.jpg", "image/jpeg", []byte("jpeg-bytes"))
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/messages", buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)

	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/api/v1/messages", cookie)
	defer resp.Body.Close()
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0]["file_url"])
	assert.Equal(t, "cat.jpg", list[0]["file_name"])
	assert.Len(t, env.storage.Objects, 1)
}

func TestActiveUsersEmptyWithoutConnections(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.register(t, "Alice", "+15550001", "secret123")

	resp := env.get(t, "/api/v1/users/active", cookie)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)
}
