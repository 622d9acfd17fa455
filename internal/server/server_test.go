package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/auth"
	"github.com/inamate/inamate/diagram-go/internal/collab"
	"github.com/inamate/inamate/diagram-go/internal/config"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                     "test",
		AngleStep:               15,
		MaxConstraintIterations: 32,
		HistoryLimit:            200,
		SnapshotBackend:         config.BackendMemory,
		JWTSecret:               "test-secret",
		AllowedOrigins:          "http://localhost:5173",
		MetricsEnabled:          true,
	}
}

type harness struct {
	srv   *Server
	http  *httptest.Server
	store *snapshot.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := snapshot.NewMemoryStore()
	srv, err := New(testConfig(), store, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, srv.Close(context.Background()))
		cancel()
	})
	return &harness{srv: srv, http: ts, store: store}
}

func (h *harness) token(t *testing.T, name string) (string, *auth.User) {
	t.Helper()
	resp, err := http.Post(h.http.URL+"/auth/token", "application/json", strings.NewReader(`{"displayName":"`+name+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string     `json:"token"`
		User  *auth.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Token, body.User
}

func (h *harness) createDocument(t *testing.T, token string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.http.URL+"/docs", strings.NewReader(`{"name":"Plan"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body createDocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Version)
	return body.ID
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.http.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(h.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "diagram_collab_rooms")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCreateDocumentRequiresToken(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.http.URL+"/docs", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatedDocumentIsServed(t *testing.T) {
	h := newHarness(t)
	token, _ := h.token(t, "Ada")
	docID := h.createDocument(t, token)

	resp, err := http.Get(h.http.URL + "/docs/" + docID + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	st, err := scene.Load(data)
	require.NoError(t, err)
	assert.Equal(t, "Plan", st.Name)

	resp, err = http.Get(h.http.URL + "/docs/" + docID + "/render.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodOptions, h.http.URL+"/auth/token", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocketRejectsBadDocumentID(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.http.URL + "/ws/doc/not-a-doc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) *collab.Message {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg collab.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return &msg
		}
	}
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	p, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(collab.Message{Type: typ, Payload: p})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

func TestWebSocketEditingSession(t *testing.T) {
	h := newHarness(t)
	token, user := h.token(t, "Ada")
	docID := h.createDocument(t, token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws/doc/" + docID + "?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var welcome collab.WelcomePayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, collab.TypeWelcome).Payload, &welcome))
	assert.Equal(t, user.ID, welcome.UserID)
	assert.Equal(t, docID, welcome.DocID)

	write(t, ctx, conn, collab.TypeToolSet, collab.ToolPayload{Tool: "ellipse"})
	readUntil(t, ctx, conn, collab.TypeToolChanged)

	for _, p := range []collab.PointerPayload{
		{Action: collab.ActionDown, PointerEvent: editor.PointerEvent{X: 10, Y: 10, LeftButtonDown: true}},
		{Action: collab.ActionMove, PointerEvent: editor.PointerEvent{X: 50, Y: 30, LeftButtonDown: true}},
		{Action: collab.ActionUp, PointerEvent: editor.PointerEvent{X: 50, Y: 30}},
	} {
		write(t, ctx, conn, collab.TypeInputPointer, p)
	}

	var commit collab.CommitPayload
	require.NoError(t, json.Unmarshal(readUntil(t, ctx, conn, collab.TypeDocCommit).Payload, &commit))
	st, err := scene.Load(commit.Document)
	require.NoError(t, err)
	require.Len(t, st.Children(st.Root()), 1)
	assert.Equal(t, scene.KindEllipse, st.Children(st.Root())[0].Kind)

	require.NoError(t, h.srv.autosaver.Flush(ctx))
	_, version, err := h.store.Load(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}
