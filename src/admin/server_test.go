package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/communitykit/suggestbox/src/suggestions/bans"
	"github.com/communitykit/suggestbox/src/suggestions/erasure"
	"github.com/communitykit/suggestbox/src/suggestions/store"
	"github.com/communitykit/suggestbox/src/suggestions/types"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*Server, *store.Store, *bans.Registry) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(db))

	st := store.New(db)
	reg := bans.NewRegistry(db)
	srv := New(":0", testSecret, erasure.NewService(st), reg)
	return srv, st, reg
}

func signToken(t *testing.T, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, srv *Server, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthIsPublic(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecuredEndpointsRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/v1/erasure/alice", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/v1/guilds/g1/bans", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrongKey := signToken(t, []byte("some-other-secret"))
	w = doRequest(t, srv, http.MethodPost, "/v1/erasure/alice", wrongKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEraseUserEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	ctx := context.Background()

	id, err := st.NextID(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, st.Create(ctx, types.Suggestion{
		GuildID:      "g1",
		SuggestionID: id,
		AuthorID:     "alice",
		AuthorName:   "alice",
		MessageID:    "msg",
		Body:         "idea",
	}))

	w := doRequest(t, srv, http.MethodPost, "/v1/erasure/alice", signToken(t, testSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		JobID   string `json:"job_id"`
		UserID  string `json:"user_id"`
		Cleared int    `json:"cleared"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.JobID)
	assert.Equal(t, "alice", body.UserID)
	assert.Equal(t, 1, body.Cleared)

	rec, err := st.Get(ctx, "g1", id)
	require.NoError(t, err)
	assert.Empty(t, rec.AuthorID)
}

func TestListBansEndpoint(t *testing.T) {
	srv, _, reg := newTestServer(t)
	ctx := context.Background()

	token := signToken(t, testSecret)

	w := doRequest(t, srv, http.MethodGet, "/v1/guilds/g1/bans", token)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GuildID string   `json:"guild_id"`
		Banned  []string `json:"banned"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "g1", body.GuildID)
	assert.Empty(t, body.Banned)

	_, err := reg.Ban(ctx, "g1", "alice", "mod")
	require.NoError(t, err)
	_, err = reg.Ban(ctx, "g1", "bob", "mod")
	require.NoError(t, err)

	w = doRequest(t, srv, http.MethodGet, "/v1/guilds/g1/bans", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"alice", "bob"}, body.Banned)
}
