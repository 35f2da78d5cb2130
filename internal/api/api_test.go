package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/osrsbingo/internal/api/apierr"
	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/config"
	"github.com/mcoot/osrsbingo/internal/factory"
	"github.com/mcoot/osrsbingo/internal/model"
)

const testIngestKey = "ingest-secret"

// testServer wraps the router of a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()

	app := factory.NewTestApp(opts...)
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{
		handler: app.Router(),
		app:     app,
	}
}

func withIngestKey(cfg *config.Config) {
	cfg.Auth.IngestAPIKey = testIngestKey
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// login returns an admin token
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": factory.TestAdminPassword}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Token
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// setupBoard makes a 2x2 board with one item per tile
func (ts *testServer) setupBoard(t *testing.T, token string) {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/board/resize", map[string]int{"size": 2}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	items := []string{"Abyssal whip", "Dragon bones", "Rune scimitar", "Twisted bow"}
	for i, item := range items {
		rr := ts.request(http.MethodPut, "/api/v1/board/tiles/"+string(rune('0'+i)), map[string]any{
			"items": []string{item},
			"value": 10,
		}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.StorageMemory, resp.Storage)
}

func TestGetDefaultBoard(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/board", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var board model.Board
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Equal(t, model.DefaultBoardSize, board.Size)
	assert.Len(t, board.Tiles, model.DefaultBoardSize*model.DefaultBoardSize)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)
}

func TestLoginSetsCookie(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": factory.TestAdminPassword}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var found bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.AdminCookie {
			found = true
			assert.True(t, c.HttpOnly)
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found)
}

func TestBoardMutationRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/board/resize", map[string]int{"size": 3}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeAdminRequired, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/board/shuffle", nil, "bogus-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestResizeValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/board/resize", map[string]int{"size": 11}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, apiErr.Code)
	assert.Equal(t, "size", apiErr.Field)
}

func TestEditTileOutOfRange(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPut, "/api/v1/board/tiles/99", map[string]any{"items": []string{"Bones"}}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/board/tiles/abc", map[string]any{"items": []string{"Bones"}}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestDropCompletesTileAndScores(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.setupBoard(t, token)

	rr := ts.request(http.MethodPost, "/api/v1/drops", map[string]any{
		"player": "Alice",
		"item":   "Abyssal whip",
		"value":  1_500_000,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var result response.DropResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.False(t, result.Duplicate)
	require.Len(t, result.TilesCompleted, 1)
	assert.Equal(t, 1, result.TilesCompleted[0].Tile)

	// Same drop again is a duplicate
	rr = ts.request(http.MethodPost, "/api/v1/drops", map[string]any{
		"player": "Alice",
		"item":   "Abyssal whip",
		"value":  1_500_000,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.Duplicate)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var leaderboard response.Leaderboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &leaderboard))
	assert.Equal(t, "Alice", leaderboard.Leader)
	require.Len(t, leaderboard.Players, 1)
	assert.Equal(t, 10, leaderboard.Players[0].TotalPoints)
}

func TestDropValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/drops", map[string]any{"player": "", "item": "Bones"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "player", decodeError(t, rr).Field)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drops", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryValueFilter(t *testing.T) {
	ts := newTestServer(t)

	drops := []map[string]any{
		{"player": "Alice", "item": "Abyssal whip", "value": 1_500_000},
		{"player": "Alice", "item": "Bones", "value": 100},
		{"player": "Bob", "item": "Twisted bow", "value": 1_000_000_000},
	}
	for _, d := range drops {
		rr := ts.request(http.MethodPost, "/api/v1/drops", d, "")
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/history?value=%3E1m", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var history response.History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Equal(t, 2, history.Count)

	rr = ts.request(http.MethodGet, "/api/v1/history?player=alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Equal(t, 2, history.Count)
}

func TestDeleteDrops(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/drops", map[string]any{"player": "Alice", "item": "Bones", "value": 100}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var result response.DropResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))

	body := map[string]any{"player": "Alice", "item": "Bones", "timestamp": result.Drop.Timestamp}

	rr = ts.request(http.MethodDelete, "/api/v1/history", body, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/history", body, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var deleted response.Deleted
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleted))
	assert.Equal(t, 1, deleted.Deleted)
}

func TestShuffleUndo(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.setupBoard(t, token)

	rr := ts.request(http.MethodPost, "/api/v1/board/shuffle/undo", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeNoUndoSnapshot, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/board/shuffle", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/board/shuffle/undo", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var board model.Board
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Equal(t, []string{"Abyssal whip"}, board.Tiles[0].Items)
}

func TestManualCompletion(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.setupBoard(t, token)

	rr := ts.request(http.MethodPost, "/api/v1/board/tiles/0/completions", map[string]string{"player": "Carol"}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/players/Carol/lines", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/board/tiles/0/completions/Carol", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var board model.Board
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	assert.Empty(t, board.Tiles[0].CompletedBy)
}

func TestIngestKeyRequired(t *testing.T) {
	ts := newTestServer(t, withIngestKey)
	drop := map[string]any{"player": "Alice", "item": "Bones", "value": 100}

	rr := ts.request(http.MethodPost, "/api/v1/drops", drop, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidAPIKey, decodeError(t, rr).Code)

	b, _ := json.Marshal(drop)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drops", bytes.NewReader(b))
	req.Header.Set(middleware.IngestKeyHeader, testIngestKey)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Query parameter form used by webhook URLs
	rr = ts.request(http.MethodPost, "/api/v1/deaths?key="+testIngestKey, map[string]string{"player": "Alice", "npc": "Zulrah"}, "")
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestIngestRateLimited(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.Ingest.RatePerSecond = 0.001
		cfg.Ingest.Burst = 1
	})

	rr := ts.request(http.MethodPost, "/api/v1/deaths", map[string]string{"player": "Alice"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/deaths", map[string]string{"player": "Alice"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, apierr.CodeRateLimited, decodeError(t, rr).Code)
}

func TestDinkWebhook(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.setupBoard(t, token)

	payload := `{"embeds":[{"title":"Loot Drop","description":"Alice has looted:","fields":[{"name":"Item","value":"1 x Abyssal whip (2.5M)"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/dink", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result response.WebhookResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Recorded)
	require.Len(t, result.TilesCompleted, 1)
	assert.Equal(t, 1, result.TilesCompleted[0].Tile)
}

func TestDeathStats(t *testing.T) {
	ts := newTestServer(t)

	for _, npc := range []string{"Zulrah", "Zulrah", "Vorkath"} {
		rr := ts.request(http.MethodPost, "/api/v1/deaths", map[string]string{"player": "Alice", "npc": npc}, "")
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/deaths/by-npc", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var byNPC []model.NPCDeathStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &byNPC))
	require.NotEmpty(t, byNPC)
	assert.Equal(t, "Zulrah", byNPC[0].NPC)
}

func TestRankEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rank", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRankNotFound, decodeError(t, rr).Code)

	rr = ts.request(http.MethodPost, "/api/v1/rank/snapshot", map[string]any{"rank": 42, "total_xp": 1000}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/rank", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot model.RankSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, 42, snapshot.Rank)
}

func TestWebhookInfoAndQR(t *testing.T) {
	ts := newTestServer(t, withIngestKey)

	rr := ts.request(http.MethodGet, "/api/v1/webhook", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token := ts.login(t)
	rr = ts.request(http.MethodGet, "/api/v1/webhook", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var info response.WebhookInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.True(t, info.KeyNeeded)
	assert.Contains(t, info.DinkURL, "/api/v1/webhooks/dink?key="+testIngestKey)

	rr = ts.request(http.MethodGet, "/api/v1/webhook/qr.png", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rr := ts.request(http.MethodPost, "/api/v1/admin/logout", nil, token)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/board/clear", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/drops", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownTopicRejected(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/events?topic=nonsense", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
