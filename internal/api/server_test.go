package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/feed"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/localcircle/localcircle-server/internal/search"
	"github.com/localcircle/localcircle-server/internal/service"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
	"github.com/localcircle/localcircle-server/internal/validation"
	"github.com/stretchr/testify/require"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

type testServer struct {
	server *Server
	api    humatest.TestAPI
	store  *store.Store
	tokens *auth.TokenService
}

// Manhattan and Brooklyn coordinates as the device would report them.
const (
	nycLat      = "40.7128"
	nycLng      = "-74.0060"
	brooklynLat = "40.6782"
	brooklynLng = "-73.9442"
)

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithConfig(t, Config{})
}

func setupTestServerWithConfig(t *testing.T, cfg Config) *testServer {
	t.Helper()

	log := logger.Discard()
	sseManager := sse.NewManager(log)

	st, err := store.NewInMemory(log, sseManager)
	require.NoError(t, err)

	index, err := search.NewInMemory()
	require.NoError(t, err)
	st.SetSearchIndexer(index)

	t.Cleanup(func() {
		_ = index.Close()
		_ = st.Close()
	})

	tokens, err := auth.NewTokenService(strings.Repeat("a1", 32), "test-identity", "test-app")
	require.NoError(t, err)

	services := &Services{
		Posts:       service.NewPostService(st, index, validation.New(), log),
		Feed:        service.NewFeedService(st, feed.NewSearcher(st, 50000), 50, 10000, log),
		Ledger:      service.NewLedgerService(st, log),
		Collections: service.NewCollectionService(st, log),
		Comments:    service.NewCommentService(st, log),
		Alerts:      service.NewAlertService(st, log),
		Index:       index,
	}

	server := NewServer(st, services, tokens, sseManager, cfg, log)
	t.Cleanup(server.Close)

	return &testServer{
		server: server,
		api:    humatest.Wrap(t, server.api),
		store:  st,
		tokens: tokens,
	}
}

// bearer mints a token for userID and returns the Authorization header.
func (ts *testServer) bearer(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := ts.tokens.Mint(userID, name, name+"ville", time.Hour)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

// createPost publishes a post through the API and returns its ID.
func (ts *testServer) createPost(t *testing.T, auth, title, lat, lng string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/posts", auth, map[string]any{
		"title":    title,
		"body":     title + " body",
		"category": "Coffee",
		"lat":      lat,
		"lng":      lng,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[map[string]any](t, resp.Body.Bytes())
	postID, _ := env.Data["id"].(string)
	require.NotEmpty(t, postID)
	return postID
}
