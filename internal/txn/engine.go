// Package txn groups shape mutations into named transactions and keeps the scene
// consistent by resolving geometric constraints after every edit.
package txn

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/inamate/inamate/diagram-go/internal/event"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/logging"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

var (
	ErrTransactionOpen = errors.New("a transaction is already open")
	ErrNoTransaction   = errors.New("no open transaction")
	ErrNotConverged    = errors.New("constraint resolution did not converge")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
)

const (
	DefaultMaxIterations = 32
	DefaultHistoryLimit  = 200
)

// Transaction is a named batch of operations.
type Transaction struct {
	ID        string
	Label     string
	Ops       []Operation
	StartedAt time.Time
}

// Commit describes a committed transaction, undo or redo. Snapshot is the
// full JSON document after the change.
type Commit struct {
	TxID     string
	Label    string
	DocID    string
	Ops      int
	Snapshot []byte
}

// Engine is the only writer of the scene. It is not safe for concurrent use.
type Engine struct {
	store         *scene.Store
	tx            *Transaction
	undo, redo    []*Transaction
	maxIterations int
	historyLimit  int
	logger        *slog.Logger
	metrics       *Metrics
	onCommit      event.Emitter[Commit]
}

type Option func(*Engine)

// WithMaxIterations sets the ceiling of constraint resolution passes.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithHistoryLimit caps the undo stack. The oldest transactions are dropped.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// WithLogger sets the logger for commits, cancels and constraint warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records transaction outcomes and durations in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New creates an engine over store.
func New(store *scene.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		maxIterations: DefaultMaxIterations,
		historyLimit:  DefaultHistoryLimit,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Store returns the document the engine writes to.
func (e *Engine) Store() *scene.Store { return e.store }

// Reset swaps the document. Any open transaction is dropped and the history cleared.
func (e *Engine) Reset(store *scene.Store) {
	e.store = store
	e.tx = nil
	e.undo, e.redo = nil, nil
}

// OnCommit registers a listener fired once per commit, undo and redo.
func (e *Engine) OnCommit(fn func(Commit)) event.Handle {
	return e.onCommit.On(fn)
}

func (e *Engine) InTransaction() bool { return e.tx != nil }

// Label returns the label of the open transaction, or "".
func (e *Engine) Label() string {
	if e.tx == nil {
		return ""
	}
	return e.tx.Label
}

// Start opens a transaction. Nested transactions are rejected.
func (e *Engine) Start(label string) error {
	if e.tx != nil {
		return fmt.Errorf("start %q while %q is open: %w", label, e.tx.Label, ErrTransactionOpen)
	}
	e.tx = &Transaction{
		ID:        typeid.NewTransactionID(),
		Label:     label,
		StartedAt: time.Now(),
	}
	return nil
}

// End resolves constraints and commits the open transaction as one undoable unit.
// An empty transaction closes without a history entry or notification.
func (e *Engine) End() error {
	if e.tx == nil {
		return fmt.Errorf("end: %w", ErrNoTransaction)
	}
	if _, err := e.ResolveAllConstraints(); err != nil {
		e.logger.Warn("committing best-effort geometry", "label", e.tx.Label, "error", err)
	}

	tx := e.tx
	e.tx = nil
	e.metrics.Duration.WithLabelValues(tx.Label).Observe(time.Since(tx.StartedAt).Seconds())
	if len(tx.Ops) == 0 {
		e.metrics.Transactions.WithLabelValues(tx.Label, "empty").Inc()
		return nil
	}

	e.undo = append(e.undo, tx)
	if len(e.undo) > e.historyLimit {
		e.undo = slices.Delete(e.undo, 0, len(e.undo)-e.historyLimit)
	}
	e.redo = nil
	e.metrics.Transactions.WithLabelValues(tx.Label, "committed").Inc()
	e.logger.Debug("transaction committed", "tx", tx.ID, "label", tx.Label, "ops", len(tx.Ops))
	e.emit(tx.ID, tx.Label, len(tx.Ops))
	return nil
}

// Cancel reverts every operation of the open transaction and closes it.
func (e *Engine) Cancel() error {
	if e.tx == nil {
		return fmt.Errorf("cancel: %w", ErrNoTransaction)
	}
	tx := e.tx
	e.tx = nil
	err := e.revertAll(tx)
	e.metrics.Transactions.WithLabelValues(tx.Label, "cancelled").Inc()
	e.logger.Debug("transaction cancelled", "tx", tx.ID, "label", tx.Label, "ops", len(tx.Ops))
	return err
}

// Undo reverts the last committed transaction.
func (e *Engine) Undo() error {
	if e.tx != nil {
		return fmt.Errorf("undo: %w", ErrTransactionOpen)
	}
	if len(e.undo) == 0 {
		return ErrNothingToUndo
	}
	tx := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	if err := e.revertAll(tx); err != nil {
		return err
	}
	e.redo = append(e.redo, tx)
	e.metrics.HistoryOperation.WithLabelValues("undo").Inc()
	e.emit(tx.ID, "undo", len(tx.Ops))
	return nil
}

// Redo re-applies the last undone transaction.
func (e *Engine) Redo() error {
	if e.tx != nil {
		return fmt.Errorf("redo: %w", ErrTransactionOpen)
	}
	if len(e.redo) == 0 {
		return ErrNothingToRedo
	}
	tx := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	for i := range tx.Ops {
		if err := apply(e.store, &tx.Ops[i]); err != nil {
			return fmt.Errorf("redo %s: %w", tx.Label, err)
		}
	}
	e.undo = append(e.undo, tx)
	e.metrics.HistoryOperation.WithLabelValues("redo").Inc()
	e.emit(tx.ID, "redo", len(tx.Ops))
	return nil
}

// CanUndo reports whether Undo has a transaction to revert.
func (e *Engine) CanUndo() bool { return e.tx == nil && len(e.undo) > 0 }

// CanRedo reports whether Redo has a transaction to re-apply.
func (e *Engine) CanRedo() bool { return e.tx == nil && len(e.redo) > 0 }

func (e *Engine) revertAll(tx *Transaction) error {
	var errs []error
	for i := len(tx.Ops) - 1; i >= 0; i-- {
		if err := revert(e.store, &tx.Ops[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("revert %s: %w", tx.Label, errors.Join(errs...))
	}
	return nil
}

func (e *Engine) emit(txID, label string, ops int) {
	data, err := e.store.Snapshot()
	if err != nil {
		e.logger.Error("snapshot after commit", "label", label, "error", err)
		return
	}
	e.onCommit.Emit(Commit{TxID: txID, Label: label, DocID: e.store.ID, Ops: ops, Snapshot: data})
}

func (e *Engine) record(op Operation) {
	if e.tx != nil {
		e.tx.Ops = append(e.tx.Ops, op)
	}
}

// AtomicAssign sets a single field of s inside the open transaction.
func (e *Engine) AtomicAssign(s *scene.Shape, field string, value any) error {
	if e.tx == nil {
		return fmt.Errorf("assign %s: %w", field, ErrNoTransaction)
	}
	return e.assign(s, field, value)
}

// assign records the change into the open transaction, if any. Constraint
// resolution also runs outside of transactions, where changes are not recorded.
func (e *Engine) assign(s *scene.Shape, field string, value any) error {
	prev, err := scene.GetField(s, field)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(prev, value) {
		return nil
	}
	if _, err := scene.SetField(s, field, value); err != nil {
		return err
	}
	next, _ := scene.GetField(s, field)
	e.record(Operation{Type: OpAssign, ShapeID: s.ID, Field: field, Value: next, Previous: prev})
	return nil
}

// MoveShapes translates shapes by (dx, dy) global units. A non-nil container
// different from a shape's parent re-parents that shape, keeping its position
// and on-screen rotation. Containers that are the shape itself or inside it
// are ignored. Movability classes are not applied here.
func (e *Engine) MoveShapes(shapes []*scene.Shape, dx, dy float64, container *scene.Shape) error {
	if e.tx == nil {
		return fmt.Errorf("move: %w", ErrNoTransaction)
	}
	st := e.store
	for _, s := range shapes {
		if s == nil || s.Kind == scene.KindDocument || !st.Has(s) {
			continue
		}
		center := st.LocalToGlobal(s, geometry.Pt(s.Width/2, s.Height/2)).Add(geometry.Pt(dx, dy))
		worldRot := st.WorldRotation(s)

		parent := st.Parent(s)
		if container != nil && st.Has(container) && container.ID != s.Parent && !st.IsDescendant(container, s) {
			if err := e.reparent(s, container, -1); err != nil {
				return err
			}
			parent = container
			rot := geometry.NormalizeAngle(worldRot - st.WorldRotation(parent))
			if err := e.assign(s, scene.FieldRotate, rot); err != nil {
				return err
			}
		}

		local := st.GlobalToLocal(parent, center)
		if err := e.assign(s, scene.FieldX, local.X-s.Width/2); err != nil {
			return err
		}
		if err := e.assign(s, scene.FieldY, local.Y-s.Height/2); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) reparent(s, parent *scene.Shape, index int) error {
	prevParent, prevIndex := s.Parent, e.store.IndexOf(s)
	if err := e.store.Attach(s, parent, index); err != nil {
		return err
	}
	e.record(Operation{
		Type:       OpReparent,
		ShapeID:    s.ID,
		Parent:     parent.ID,
		Index:      e.store.IndexOf(s),
		PrevParent: prevParent,
		PrevIndex:  prevIndex,
	})
	return nil
}

// CreateShape inserts a new shape under parent at index (append when out of range).
func (e *Engine) CreateShape(s, parent *scene.Shape, index int) error {
	if e.tx == nil {
		return fmt.Errorf("create: %w", ErrNoTransaction)
	}
	if e.store.Get(s.ID) != nil {
		return fmt.Errorf("create %s: duplicate id", s.ID)
	}
	e.store.Add(s)
	if err := e.store.Attach(s, parent, index); err != nil {
		e.store.Remove(s)
		return err
	}
	e.record(Operation{
		Type:    OpCreate,
		ShapeID: s.ID,
		Parent:  parent.ID,
		Index:   e.store.IndexOf(s),
		subtree: []*scene.Shape{s},
	})
	return nil
}

// DeleteShapes removes shapes with their subtrees. Lines connected to a removed
// shape are disconnected. The root is never deleted.
func (e *Engine) DeleteShapes(shapes []*scene.Shape) error {
	if e.tx == nil {
		return fmt.Errorf("delete: %w", ErrNoTransaction)
	}
	st := e.store

	// Only the top-most of the given shapes; descendants go with them.
	candidates := slices.DeleteFunc(slices.Clone(shapes), func(s *scene.Shape) bool {
		return s == nil || s.Kind == scene.KindDocument || !st.Has(s)
	})
	var targets []*scene.Shape
	for _, s := range candidates {
		nested := slices.ContainsFunc(candidates, func(o *scene.Shape) bool {
			return o.ID != s.ID && st.IsDescendant(s, o)
		})
		if !nested && !slices.Contains(targets, s) {
			targets = append(targets, s)
		}
	}

	removed := map[string]bool{}
	for _, s := range targets {
		for d := range st.Traverse(s) {
			removed[d.ID] = true
		}
	}
	for line := range st.Shapes() {
		if !line.IsLine() || removed[line.ID] {
			continue
		}
		if removed[line.Tail] {
			if err := e.assign(line, scene.FieldTail, ""); err != nil {
				return err
			}
		}
		if removed[line.Head] {
			if err := e.assign(line, scene.FieldHead, ""); err != nil {
				return err
			}
		}
	}

	for _, s := range targets {
		op := Operation{
			Type:       OpDelete,
			ShapeID:    s.ID,
			PrevParent: s.Parent,
			PrevIndex:  st.IndexOf(s),
		}
		for d := range st.Traverse(s) {
			op.subtree = append(op.subtree, d)
		}
		if err := st.Detach(s); err != nil {
			return fmt.Errorf("delete %s: %w", s.ID, err)
		}
		st.Remove(s)
		e.record(op)
	}
	return nil
}
