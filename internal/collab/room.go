package collab

import (
	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/handlers"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/selection"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

// Default surface of a room until a client sends its viewport.
const (
	defaultSurfaceWidth  = 1280
	defaultSurfaceHeight = 800
)

// Room is an open document shared by its clients. Every field is owned by the
// hub loop.
type Room struct {
	docID    string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	editor   *editor.Editor
	surface  *canvas.Recorder
	handles  []event.Handle
}

func (h *Hub) newRoom(docID string, store *scene.Store) *Room {
	surface := canvas.NewRecorder(defaultSurfaceWidth, defaultSurfaceHeight, 1)
	ed := editor.New(store, surface, h.editorOpts...)
	handlers.Install(ed)

	room := &Room{
		docID:    docID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		editor:   ed,
		surface:  surface,
	}

	// The snapshot is queued before the commit is broadcast.
	if h.autosaver != nil {
		room.handles = append(room.handles, h.autosaver.Track(ed.Tx()))
	}
	room.handles = append(room.handles,
		ed.Tx().OnCommit(func(c txn.Commit) {
			h.broadcast(room, TypeDocCommit, CommitPayload{TxID: c.TxID, Label: c.Label, Document: c.Snapshot}, "")
		}),
		ed.Selection().OnChange(func(shapes []*scene.Shape) {
			h.broadcast(room, TypeSelection, SelectionPayload{IDs: selection.IDsOf(shapes)}, "")
		}),
		ed.OnHandlerChange(func(id string) {
			h.broadcast(room, TypeToolChanged, ToolPayload{Tool: id}, "")
		}),
	)
	ed.Repaint()
	return room
}

// close detaches the room from its editor and hangs up its clients.
func (r *Room) close() {
	for _, handle := range r.handles {
		handle.Remove()
	}
	r.handles = nil
	r.editor.CancelGesture()
	for id, c := range r.clients {
		close(c.send)
		delete(r.clients, id)
	}
}

// frame returns the last painted frame and the cursor.
func (r *Room) frame() FramePayload {
	cmds := r.surface.Commands()
	if cmds == nil {
		cmds = []canvas.DrawCommand{}
	}
	return FramePayload{Commands: cmds, Cursor: r.editor.Cursor()}
}

func (r *Room) tool() string {
	if h := r.editor.ActiveHandler(); h != nil {
		return h.ID()
	}
	return ""
}
