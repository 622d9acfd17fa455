// Package collab hosts live editing sessions over websockets. Each document
// is a room with one editor; the hub goroutine is the only code touching it.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

const defaultLoadTimeout = 5 * time.Second

type inbound struct {
	client *Client
	msg    *Message
}

// loaded is the outcome of a document load run off the loop.
type loaded struct {
	docID string
	doc   *scene.Store
	err   error
}

type Hub struct {
	rooms      map[string]*Room     // docID -> room
	opening    map[string][]*Client // docID -> clients waiting for its load
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	loads      chan loaded
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	store       snapshot.Store
	autosaver   *snapshot.Autosaver
	logger      *slog.Logger
	metrics     *Metrics
	editorOpts  []editor.Option
	loadTimeout time.Duration
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAutosaver saves every commit of every room through a.
func WithAutosaver(a *snapshot.Autosaver) Option {
	return func(h *Hub) { h.autosaver = a }
}

func WithMetrics(m *Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithEditorOptions configures the editor of every room.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(h *Hub) { h.editorOpts = append(h.editorOpts, opts...) }
}

// NewHub creates a hub that loads documents from store. Call Run to start it.
func NewHub(store snapshot.Store, opts ...Option) *Hub {
	h := &Hub{
		rooms:       make(map[string]*Room),
		opening:     make(map[string][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inbound, 64),
		loads:       make(chan loaded),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		store:       store,
		logger:      logging.NewNop(),
		loadTimeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics(nil)
	}
	return h
}

// Run is the event loop. It returns when ctx is done or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case res := <-h.loads:
			h.openRoom(res)
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.quit:
			h.shutdown()
			return
		}
	}
}

// Stop ends Run and waits for it.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

// Register joins client to the room of its document, opening the room first
// if needed. The client's first messages arrive once the document is loaded.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Submit queues a client message for the loop. It reports false once the hub
// has stopped or ctx is done.
func (h *Hub) Submit(ctx context.Context, client *Client, msg *Message) bool {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) shutdown() {
	for docID, room := range h.rooms {
		room.close()
		delete(h.rooms, docID)
	}
	for docID, waiting := range h.opening {
		for _, c := range waiting {
			close(c.send)
		}
		delete(h.opening, docID)
	}
	h.metrics.Rooms.Set(0)
	h.metrics.Clients.Set(0)
	h.logger.Info("hub stopped")
}

// loadDocument returns the newest snapshot of docID: one still queued in the
// autosaver wins over the store. An unknown document starts empty.
func (h *Hub) loadDocument(ctx context.Context, docID string) (*scene.Store, error) {
	if h.autosaver != nil {
		if data, ok := h.autosaver.Pending(docID); ok {
			h.logger.Debug("reopening from unsaved snapshot", "doc", docID)
			return scene.Load(data)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.loadTimeout)
	defer cancel()

	data, _, err := h.store.Load(ctx, docID)
	if errors.Is(err, snapshot.ErrNotFound) {
		h.logger.Info("creating document", "doc", docID)
		return scene.NewStore(docID, typeid.NewShapeID()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", docID, err)
	}
	return scene.Load(data)
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	if room, ok := h.rooms[client.DocID]; ok {
		h.join(room, client)
		return
	}
	waiting, loading := h.opening[client.DocID]
	h.opening[client.DocID] = append(waiting, client)
	if loading {
		return
	}

	// Loads run off the loop so a slow backend only delays its own document.
	docID := client.DocID
	go func() {
		doc, err := h.loadDocument(ctx, docID)
		select {
		case h.loads <- loaded{docID: docID, doc: doc, err: err}:
		case <-h.done:
		}
	}()
}

// openRoom registers a loaded document and joins the clients waiting for it.
func (h *Hub) openRoom(res loaded) {
	waiting := h.opening[res.docID]
	delete(h.opening, res.docID)
	if len(waiting) == 0 {
		return
	}
	if res.err != nil {
		h.logger.Error("open room", "doc", res.docID, "error", res.err)
		for _, c := range waiting {
			h.sendError(c, "could not open document")
			close(c.send)
		}
		return
	}

	room := h.newRoom(res.docID, res.doc)
	h.rooms[res.docID] = room
	h.metrics.Rooms.Inc()
	for _, c := range waiting {
		h.join(room, c)
	}
}

func (h *Hub) join(room *Room, client *Client) {
	room.clients[client.ClientID] = client
	room.presence.Update(&Presence{UserID: client.UserID, DisplayName: client.DisplayName, Tool: room.tool()})
	h.metrics.Clients.Inc()

	doc, err := room.editor.Store().Snapshot()
	if err != nil {
		h.logger.Error("snapshot for sync", "doc", room.docID, "error", err)
	}
	h.send(client, room.docID, TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		DocID:    room.docID,
		Tool:     room.tool(),
	})
	h.send(client, room.docID, TypeDocSync, DocSyncPayload{Document: doc})
	h.send(client, room.docID, TypeSelection, SelectionPayload{IDs: room.editor.Selection().IDs()})
	h.send(client, room.docID, TypeFrame, room.frame())
	if msg, err := room.presence.StateMessage(room.docID); err == nil {
		client.Send(msg)
	}

	h.broadcast(room, TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	}, client.ClientID)

	h.logger.Info("client joined", "user", client.UserID, "doc", client.DocID)
}

func (h *Hub) removeClient(client *Client) {
	if waiting, ok := h.opening[client.DocID]; ok {
		for i, c := range waiting {
			if c == client {
				h.opening[client.DocID] = slices.Delete(waiting, i, i+1)
				close(client.send)
				return
			}
		}
	}
	room, ok := h.rooms[client.DocID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)
	h.metrics.Clients.Dec()

	if len(room.clients) == 0 {
		room.close()
		delete(h.rooms, client.DocID)
		h.metrics.Rooms.Dec()
	} else {
		h.broadcast(room, TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID}, "")
	}

	h.logger.Info("client left", "user", client.UserID, "doc", client.DocID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.DocID]
	if !ok || room.clients[sender.ClientID] != sender {
		return
	}
	h.metrics.Messages.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case TypeInputPointer:
		var p PointerPayload
		if !h.decode(sender, msg, &p) {
			return
		}
		h.dispatch(room, sender, func() { h.handlePointer(room, sender, p) })
	case TypeInputKey:
		var k KeyPayload
		if !h.decode(sender, msg, &k) {
			return
		}
		h.dispatch(room, sender, func() {
			switch k.Action {
			case ActionDown:
				room.editor.KeyDown(k.KeyEvent)
			case ActionUp:
				room.editor.KeyUp(k.KeyEvent)
			}
		})
	case TypeToolSet:
		var t ToolPayload
		if !h.decode(sender, msg, &t) {
			return
		}
		h.dispatch(room, sender, func() {
			if err := room.editor.SetActiveHandler(t.Tool); err != nil {
				h.sendError(sender, err.Error())
				return
			}
			if p, ok := room.presence.Get(sender.UserID); ok {
				p.Tool = t.Tool
			}
		})
	case TypeViewportSet:
		var v ViewportPayload
		if !h.decode(sender, msg, &v) {
			return
		}
		h.dispatch(room, sender, func() { h.handleViewport(room, v) })
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		h.sendError(sender, "unknown message type "+msg.Type)
	}
}

func (h *Hub) handlePointer(room *Room, sender *Client, p PointerPayload) {
	ed := room.editor
	switch p.Action {
	case ActionDown:
		ed.PointerDown(p.PointerEvent)
	case ActionMove:
		ed.PointerMove(p.PointerEvent)
		cursor := ed.GlobalPoint(p.PointerEvent)
		if pr, ok := room.presence.Get(sender.UserID); ok {
			pr.Cursor = &cursor
			h.broadcast(room, TypePresenceUpdate, pr, sender.ClientID)
		}
	case ActionUp:
		ed.PointerUp(p.PointerEvent)
	default:
		h.sendError(sender, "unknown pointer action "+p.Action)
	}
}

func (h *Hub) handleViewport(room *Room, v ViewportPayload) {
	vp := room.editor.Viewport()
	vp.Origin = v.Origin
	if v.Scale > 0 {
		vp.Scale = v.Scale
	}
	if v.PX > 0 {
		vp.PX = v.PX
	}
	w, hgt := room.surface.Size()
	if v.Width > 0 {
		w = v.Width
	}
	if v.Height > 0 {
		hgt = v.Height
	}
	room.surface.Resize(w, hgt, vp.PX)
	room.editor.Repaint()
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var p Presence
	if !h.decode(sender, msg, &p) {
		return
	}
	p.UserID = sender.UserID
	p.DisplayName = sender.DisplayName
	if p.Tool == "" {
		p.Tool = room.tool()
	}
	room.presence.Update(&p)
	h.broadcast(room, TypePresenceUpdate, p, sender.ClientID)
}

// dispatch runs an editor input and sends the resulting frame to the room. A
// panicking input is reported to its sender and its gesture dropped.
func (h *Hub) dispatch(room *Room, sender *Client, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.Panics.Inc()
			h.logger.Error("editor input panicked", "doc", room.docID, "user", sender.UserID, "panic", r)
			room.editor.CancelGesture()
			room.editor.Repaint()
			h.sendError(sender, fmt.Sprint(r))
		}
		h.broadcast(room, TypeFrame, room.frame(), "")
	}()
	fn()
}

func (h *Hub) decode(sender *Client, msg *Message, v any) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.logger.Warn("invalid payload", "type", msg.Type, "user", sender.UserID, "error", err)
		h.sendError(sender, "invalid "+msg.Type+" payload")
		return false
	}
	return true
}

func (h *Hub) send(client *Client, docID, typ string, payload any) {
	msg, err := newMessage(typ, docID, payload)
	if err != nil {
		h.logger.Error("marshal message", "type", typ, "error", err)
		return
	}
	client.Send(msg)
}

func (h *Hub) sendError(client *Client, message string) {
	h.send(client, client.DocID, TypeError, ErrorPayload{Message: message})
}

func (h *Hub) broadcast(room *Room, typ string, payload any, excludeClientID string) {
	msg, err := newMessage(typ, room.docID, payload)
	if err != nil {
		h.logger.Error("marshal message", "type", typ, "error", err)
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
