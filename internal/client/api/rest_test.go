package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/catusdev/catus-client/internal/client/credentials"
	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/client/transport"
	"github.com/catusdev/catus-client/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE credentials (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	require.NoError(t, err)

	log := logging.New(io.Discard, false)
	pipe := transport.NewPipeline(transport.Options{
		BaseURL:     srv.URL,
		Credentials: credentials.NewStore(db, log),
		Logger:      log,
	})
	return NewRESTClient(pipe)
}

func TestKakaoLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/kakao", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "auth-code", body["code"])

		json.NewEncoder(w).Encode(AuthResult{
			AccessToken:  "at",
			RefreshToken: "rt",
			User:         models.UserProfile{ID: 7, Nickname: "momo"},
		})
	}))

	res, err := c.KakaoLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "at", res.AccessToken)
	assert.Equal(t, "rt", res.RefreshToken)
	assert.Equal(t, int64(7), res.User.ID)
}

func TestChatHistory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/history/42", r.URL.Path)
		w.Write([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))
	}))

	msgs, err := c.ChatHistory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestEndConversation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/end", r.URL.Path)

		var body struct {
			Date     string               `json:"date"`
			Messages []models.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-03-01", body.Date)
		require.Len(t, body.Messages, 1)

		json.NewEncoder(w).Encode(models.ChatAnalysis{DiaryID: 9, Emotion: "calm"})
	}))

	analysis, err := c.EndConversation(context.Background(), "2025-03-01", []models.ChatMessage{
		{Role: models.RoleUser, Content: "today was fine"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), analysis.DiaryID)
	assert.Equal(t, "calm", analysis.Emotion)
}

func TestDiaryList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/diaries", r.URL.Path)
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		w.Write([]byte(`{"diaries":[{"date":"2025-03-01"},{"date":"2025-03-02"}]}`))
	}))

	diaries, err := c.DiaryList(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, diaries, 2)
	assert.Equal(t, "2025-03-02", diaries[1].Date)
}

func TestDeleteDiary(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/diaries/2025-03-01", r.URL.Path)
		w.Write([]byte(`{"message":"deleted"}`))
	}))

	require.NoError(t, c.DeleteDiary(context.Background(), "2025-03-01"))
}
