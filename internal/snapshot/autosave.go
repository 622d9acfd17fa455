package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

const defaultSaveTimeout = 10 * time.Second

// Autosaver writes committed snapshots from a background goroutine so the
// editor loop never waits on storage. When a document commits several times
// before the worker gets to it, only the newest snapshot is written.
type Autosaver struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string][]byte
	order    []string
	inflight map[string][]byte // taken by the worker, Save not yet returned

	wake    chan struct{}
	flushes chan chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once

	onSaved func(docID string, version int64)
}

type AutosaverOption func(*Autosaver)

func WithAutosaveLogger(l *slog.Logger) AutosaverOption {
	return func(a *Autosaver) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSaveTimeout bounds a single Save call.
func WithSaveTimeout(d time.Duration) AutosaverOption {
	return func(a *Autosaver) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithOnSaved registers a callback run on the worker after each successful save.
func WithOnSaved(fn func(docID string, version int64)) AutosaverOption {
	return func(a *Autosaver) { a.onSaved = fn }
}

// NewAutosaver starts the background worker. Call Close to stop it.
func NewAutosaver(store Store, opts ...AutosaverOption) *Autosaver {
	a := &Autosaver{
		store:    store,
		logger:   logging.NewNop(),
		timeout:  defaultSaveTimeout,
		pending:  make(map[string][]byte),
		inflight: make(map[string][]byte),
		wake:     make(chan struct{}, 1),
		flushes:  make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Track saves every commit of engine. Remove the handle to stop.
func (a *Autosaver) Track(engine *txn.Engine) event.Handle {
	return engine.OnCommit(func(c txn.Commit) {
		a.Enqueue(c.DocID, c.Snapshot)
	})
}

// Enqueue schedules data to be saved as the snapshot of docID. It never blocks.
func (a *Autosaver) Enqueue(docID string, data []byte) {
	a.mu.Lock()
	if _, ok := a.pending[docID]; !ok {
		a.order = append(a.order, docID)
	}
	a.pending[docID] = data
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Pending returns the newest snapshot of docID that has not been written yet.
// A document reopened before its last save lands must start from these bytes.
func (a *Autosaver) Pending(docID string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if data, ok := a.pending[docID]; ok {
		return data, true
	}
	data, ok := a.inflight[docID]
	return data, ok
}

// Flush returns once everything enqueued before the call has been written,
// or when ctx is done.
func (a *Autosaver) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case a.flushes <- reply:
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is pending and stops the worker.
func (a *Autosaver) Close() error {
	a.once.Do(func() { close(a.quit) })
	<-a.done
	return nil
}

func (a *Autosaver) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case reply := <-a.flushes:
			a.drain()
			close(reply)
		case <-a.quit:
			a.drain()
			return
		}
	}
}

func (a *Autosaver) drain() {
	a.mu.Lock()
	pending, order := a.pending, a.order
	a.pending, a.order = make(map[string][]byte), nil
	for docID, data := range pending {
		a.inflight[docID] = data
	}
	a.mu.Unlock()

	for _, docID := range order {
		a.save(docID, pending[docID])

		a.mu.Lock()
		delete(a.inflight, docID)
		a.mu.Unlock()
	}
}

func (a *Autosaver) save(docID string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	version, err := a.store.Save(ctx, docID, data)
	if err != nil {
		a.logger.Error("save snapshot", "doc", docID, "error", err)
		return
	}
	a.logger.Debug("snapshot saved", "doc", docID, "version", version, "bytes", len(data))
	if a.onSaved != nil {
		a.onSaved(docID, version)
	}
}
