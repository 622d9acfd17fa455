package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
)

func startHub(t *testing.T, store snapshot.Store, opts ...Option) *Hub {
	t.Helper()
	h := NewHub(store, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func join(t *testing.T, h *Hub, userID, docID string) *Client {
	t.Helper()
	c := NewClient(h, nil, userID, "User "+userID, docID, uuid.NewString())
	h.Register(c)
	return c
}

// next returns the next message of type typ sent to c, skipping others.
func next(t *testing.T, c *Client, typ string) *Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-c.send:
			require.True(t, ok, "send channel closed while waiting for %s", typ)
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return &msg
			}
		case <-timeout:
			t.Fatalf("no %s message", typ)
			return nil
		}
	}
}

func submit(t *testing.T, h *Hub, c *Client, typ string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.True(t, h.Submit(context.Background(), c, &Message{Type: typ, Payload: data}))
}

func pointer(action string, x, y float64) PointerPayload {
	return PointerPayload{
		Action:       action,
		PointerEvent: editor.PointerEvent{X: x, Y: y, Button: editor.ButtonLeft, LeftButtonDown: action != ActionUp},
	}
}

func savedDocument(t *testing.T, store snapshot.Store, docID string) {
	t.Helper()
	st := scene.NewStore(docID, "root")
	s := scene.NewShape("box", scene.KindRect, geometry.Rect{Width: 50, Height: 50})
	st.Add(s)
	require.NoError(t, st.Attach(s, st.Root(), -1))
	data, err := st.Snapshot()
	require.NoError(t, err)
	_, err = store.Save(context.Background(), docID, data)
	require.NoError(t, err)
}

func TestJoinSyncsDocument(t *testing.T) {
	store := snapshot.NewMemoryStore()
	savedDocument(t, store, "doc_1")
	h := startHub(t, store)

	c := join(t, h, "u1", "doc_1")

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeWelcome).Payload, &welcome))
	assert.Equal(t, c.ClientID, welcome.ClientID)
	assert.Equal(t, "select", welcome.Tool)

	var synced DocSyncPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeDocSync).Payload, &synced))
	doc, err := scene.Load(synced.Document)
	require.NoError(t, err)
	assert.NotNil(t, doc.Get("box"))

	var frame FramePayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeFrame).Payload, &frame))
	require.NotEmpty(t, frame.Commands)
	assert.Equal(t, "clear", frame.Commands[0].Op)
}

func TestUnknownDocumentStartsEmpty(t *testing.T) {
	h := startHub(t, snapshot.NewMemoryStore())
	c := join(t, h, "u1", "doc_new")

	var synced DocSyncPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeDocSync).Payload, &synced))
	doc, err := scene.Load(synced.Document)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Len())
	assert.Equal(t, "doc_new", doc.ID)
}

func TestCreateToolCommitsAndPersists(t *testing.T) {
	store := snapshot.NewMemoryStore()
	autosaver := snapshot.NewAutosaver(store)
	t.Cleanup(func() { _ = autosaver.Close() })
	h := startHub(t, store, WithAutosaver(autosaver))

	c := join(t, h, "u1", "doc_1")
	next(t, c, TypeWelcome)

	submit(t, h, c, TypeToolSet, ToolPayload{Tool: "rect"})
	var tool ToolPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeToolChanged).Payload, &tool))
	assert.Equal(t, "rect", tool.Tool)

	submit(t, h, c, TypeInputPointer, pointer(ActionDown, 10, 10))
	submit(t, h, c, TypeInputPointer, pointer(ActionMove, 60, 40))
	submit(t, h, c, TypeInputPointer, pointer(ActionUp, 60, 40))

	var commit CommitPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeDocCommit).Payload, &commit))
	assert.Equal(t, "create", commit.Label)

	var sel SelectionPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeSelection).Payload, &sel))
	require.Len(t, sel.IDs, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, autosaver.Flush(ctx))
	data, version, err := store.Load(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	doc, err := scene.Load(data)
	require.NoError(t, err)
	created := doc.Get(sel.IDs[0])
	require.NotNil(t, created)
	assert.InDelta(t, 10, created.X, 1e-9)
	assert.InDelta(t, 50, created.Width, 1e-9)
	assert.InDelta(t, 30, created.Height, 1e-9)
}

func TestPresenceJoinAndLeave(t *testing.T) {
	h := startHub(t, snapshot.NewMemoryStore())
	first := join(t, h, "u1", "doc_1")
	next(t, first, TypeWelcome)

	second := join(t, h, "u2", "doc_1")
	var joined PresenceJoinPayload
	require.NoError(t, json.Unmarshal(next(t, first, TypePresenceJoin).Payload, &joined))
	assert.Equal(t, "u2", joined.UserID)

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(next(t, second, TypePresenceState).Payload, &state))
	assert.Len(t, state.Presences, 2)

	h.Unregister(second)
	var left PresenceLeavePayload
	require.NoError(t, json.Unmarshal(next(t, first, TypePresenceLeave).Payload, &left))
	assert.Equal(t, "u2", left.UserID)
}

func TestStrictEditorPanicIsRecovered(t *testing.T) {
	store := snapshot.NewMemoryStore()
	savedDocument(t, store, "doc_1")
	h := startHub(t, store, WithEditorOptions(editor.WithStrict(true)))

	c := join(t, h, "u1", "doc_1")
	next(t, c, TypeWelcome)

	submit(t, h, c, TypeInputPointer, pointer(ActionDown, 25, 25))
	submit(t, h, c, TypeInputPointer, pointer(ActionDown, 25, 25))

	var e ErrorPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeError).Payload, &e))
	assert.Contains(t, e.Message, "invalid gesture state")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Panics))

	submit(t, h, c, TypeToolSet, ToolPayload{Tool: "ellipse"})
	var tool ToolPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeToolChanged).Payload, &tool))
	assert.Equal(t, "ellipse", tool.Tool)
}

func TestUnknownToolReportsError(t *testing.T) {
	h := startHub(t, snapshot.NewMemoryStore())
	c := join(t, h, "u1", "doc_1")

	submit(t, h, c, TypeToolSet, ToolPayload{Tool: "lasso"})
	var e ErrorPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeError).Payload, &e))
	assert.Contains(t, e.Message, "unknown handler")
}

func TestSendStampsSequenceAndDropsWhenFull(t *testing.T) {
	h := NewHub(snapshot.NewMemoryStore())
	c := NewClient(h, nil, "u1", "Ada", "doc_1", "c1")

	frame := &Message{Type: TypeFrame, Payload: json.RawMessage(`{}`)}
	for range sendBuffer + 1 {
		c.Send(frame)
	}
	c.Send(&Message{Type: TypeDocCommit, Payload: json.RawMessage(`{}`)})

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Dropped.WithLabelValues(TypeFrame)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Dropped.WithLabelValues(TypeDocCommit)))
	assert.Zero(t, frame.Seq)

	var first, second Message
	require.NoError(t, json.Unmarshal(<-c.send, &first))
	require.NoError(t, json.Unmarshal(<-c.send, &second))
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
}

// gatedStore blocks Save, and Load of the docs in slow, until released.
type gatedStore struct {
	*snapshot.MemoryStore
	saves chan struct{}
	loads chan struct{}
	slow  map[string]bool
	once  sync.Once
}

func newGatedStore(slow ...string) *gatedStore {
	s := &gatedStore{
		MemoryStore: snapshot.NewMemoryStore(),
		saves:       make(chan struct{}),
		loads:       make(chan struct{}),
		slow:        map[string]bool{},
	}
	for _, id := range slow {
		s.slow[id] = true
	}
	return s
}

func (s *gatedStore) Save(ctx context.Context, docID string, data []byte) (int64, error) {
	select {
	case <-s.saves:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return s.MemoryStore.Save(ctx, docID, data)
}

func (s *gatedStore) Load(ctx context.Context, docID string) ([]byte, int64, error) {
	if s.slow[docID] {
		select {
		case <-s.loads:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	return s.MemoryStore.Load(ctx, docID)
}

func (s *gatedStore) release() {
	s.once.Do(func() {
		close(s.saves)
		close(s.loads)
	})
}

func syncedDocument(t *testing.T, c *Client) *scene.Store {
	t.Helper()
	var synced DocSyncPayload
	require.NoError(t, json.Unmarshal(next(t, c, TypeDocSync).Payload, &synced))
	doc, err := scene.Load(synced.Document)
	require.NoError(t, err)
	return doc
}

func TestReopenedRoomStartsFromUnsavedCommit(t *testing.T) {
	store := newGatedStore()
	data, err := func() ([]byte, error) {
		st := scene.NewStore("doc_1", "root")
		s := scene.NewShape("box", scene.KindRect, geometry.Rect{Width: 50, Height: 50})
		st.Add(s)
		if err := st.Attach(s, st.Root(), -1); err != nil {
			return nil, err
		}
		return st.Snapshot()
	}()
	require.NoError(t, err)
	_, err = store.MemoryStore.Save(context.Background(), "doc_1", data)
	require.NoError(t, err)

	autosaver := snapshot.NewAutosaver(store)
	t.Cleanup(func() {
		store.release()
		_ = autosaver.Close()
	})
	h := startHub(t, store, WithAutosaver(autosaver))

	first := join(t, h, "u1", "doc_1")
	next(t, first, TypeWelcome)
	submit(t, h, first, TypeInputPointer, pointer(ActionDown, 25, 25))
	submit(t, h, first, TypeInputPointer, pointer(ActionMove, 40, 25))
	submit(t, h, first, TypeInputPointer, pointer(ActionMove, 55, 25))
	submit(t, h, first, TypeInputPointer, pointer(ActionUp, 55, 25))
	next(t, first, TypeDocCommit)
	h.Unregister(first)

	// The save of the commit above is still blocked in the store.
	second := join(t, h, "u2", "doc_1")
	doc := syncedDocument(t, second)
	box := doc.Get("box")
	require.NotNil(t, box)
	assert.InDelta(t, 30, box.X, 1e-6)

	stored, _, err := store.MemoryStore.Load(context.Background(), "doc_1")
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(stored), "nothing saved yet")
}

func TestSlowLoadDoesNotBlockOtherRooms(t *testing.T) {
	store := newGatedStore("doc_slow")
	t.Cleanup(store.release)
	h := startHub(t, store)

	waiting := join(t, h, "u1", "doc_slow")
	fast := join(t, h, "u2", "doc_fast")
	next(t, fast, TypeWelcome)

	select {
	case <-waiting.send:
		t.Fatal("client of a document still loading got a message")
	default:
	}

	store.release()
	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(next(t, waiting, TypeWelcome).Payload, &welcome))
	assert.Equal(t, "doc_slow", welcome.DocID)
}

func TestLeavingWhileLoadingClosesClient(t *testing.T) {
	store := newGatedStore("doc_slow")
	t.Cleanup(store.release)
	h := startHub(t, store)

	c := join(t, h, "u1", "doc_slow")
	h.Unregister(c)
	_, ok := <-c.send
	assert.False(t, ok)

	store.release()
	other := join(t, h, "u2", "doc_slow")
	next(t, other, TypeWelcome)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Clients))
}
