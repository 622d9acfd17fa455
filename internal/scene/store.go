package scene

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/inamate/inamate/diagram-go/internal/geometry"
)

var (
	ErrNotFound    = errors.New("shape not found")
	ErrCycle       = errors.New("shape cannot contain its own ancestor")
	ErrRoot        = errors.New("document root cannot be detached")
	ErrInvalidTree = errors.New("invalid shape tree")
)

// Store is the shape arena of one document. Shapes live in a slot slice addressed by an
// id index; parent/child links are ids, so ancestry checks walk ids without touching
// any other object graph.
type Store struct {
	ID   string
	Name string

	root  string
	slots []*Shape
	index map[string]int
}

// NewStore creates a document with an empty root shape.
func NewStore(docID, rootID string) *Store {
	st := &Store{
		ID:    docID,
		Name:  "Untitled",
		index: make(map[string]int),
	}
	root := NewShape(rootID, KindDocument, geometry.Rect{})
	st.put(root)
	st.root = rootID
	return st
}

func (st *Store) put(s *Shape) {
	if i, ok := st.index[s.ID]; ok {
		st.slots[i] = s
		return
	}
	st.index[s.ID] = len(st.slots)
	st.slots = append(st.slots, s)
}

// Root returns the document shape.
func (st *Store) Root() *Shape { return st.Get(st.root) }

// Get returns the shape with the given id, or nil.
func (st *Store) Get(id string) *Shape {
	i, ok := st.index[id]
	if !ok {
		return nil
	}
	return st.slots[i]
}

// Has reports whether the shape is part of this document.
func (st *Store) Has(s *Shape) bool {
	return s != nil && st.Get(s.ID) == s
}

// Len returns the number of shapes including the root.
func (st *Store) Len() int { return len(st.index) }

// Parent returns the parent of s, or nil for the root and detached shapes.
func (st *Store) Parent(s *Shape) *Shape {
	if s == nil || s.Parent == "" {
		return nil
	}
	return st.Get(s.Parent)
}

// Children returns the children of s in paint order.
func (st *Store) Children(s *Shape) []*Shape {
	out := make([]*Shape, 0, len(s.Children))
	for _, id := range s.Children {
		if c := st.Get(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Traverse yields from and all its descendants depth-first, parents before children.
// Every call returns a new sequence.
func (st *Store) Traverse(from *Shape) iter.Seq[*Shape] {
	return func(yield func(*Shape) bool) {
		st.walk(from, yield)
	}
}

func (st *Store) walk(s *Shape, yield func(*Shape) bool) bool {
	if s == nil {
		return true
	}
	if !yield(s) {
		return false
	}
	for _, id := range s.Children {
		if !st.walk(st.Get(id), yield) {
			return false
		}
	}
	return true
}

// Shapes yields every shape in the document in paint order.
func (st *Store) Shapes() iter.Seq[*Shape] {
	return st.Traverse(st.Root())
}

// Find returns the first shape in the subtree of from (including from) matching pred.
func (st *Store) Find(from *Shape, pred func(*Shape) bool) *Shape {
	for s := range st.Traverse(from) {
		if pred(s) {
			return s
		}
	}
	return nil
}

// FindAncestor returns the nearest proper ancestor of s matching pred.
func (st *Store) FindAncestor(s *Shape, pred func(*Shape) bool) *Shape {
	for p := st.Parent(s); p != nil; p = st.Parent(p) {
		if pred(p) {
			return p
		}
	}
	return nil
}

// IsDescendant reports whether s lies in the subtree rooted at ancestor (s itself included).
func (st *Store) IsDescendant(s, ancestor *Shape) bool {
	if s == nil || ancestor == nil {
		return false
	}
	for id := s.ID; id != ""; {
		if id == ancestor.ID {
			return true
		}
		cur := st.Get(id)
		if cur == nil {
			return false
		}
		id = cur.Parent
	}
	return false
}

// IndexOf returns the position of s among its parent's children, or -1.
func (st *Store) IndexOf(s *Shape) int {
	p := st.Parent(s)
	if p == nil {
		return -1
	}
	return slices.Index(p.Children, s.ID)
}

// Add registers a detached shape with the store without linking it to a parent.
func (st *Store) Add(s *Shape) {
	st.put(s)
}

// Remove unregisters s and its subtree. s must already be detached.
func (st *Store) Remove(s *Shape) {
	for _, id := range slices.Clone(s.Children) {
		if c := st.Get(id); c != nil {
			st.Remove(c)
		}
	}
	if i, ok := st.index[s.ID]; ok {
		st.slots[i] = nil
		delete(st.index, s.ID)
	}
}

// Attach links s under parent at index (append when index is out of range).
func (st *Store) Attach(s, parent *Shape, index int) error {
	if !st.Has(s) || !st.Has(parent) {
		return ErrNotFound
	}
	if st.IsDescendant(parent, s) {
		return fmt.Errorf("attach %s under %s: %w", s.ID, parent.ID, ErrCycle)
	}
	if s.Parent != "" {
		if err := st.Detach(s); err != nil {
			return err
		}
	}
	if index < 0 || index > len(parent.Children) {
		index = len(parent.Children)
	}
	parent.Children = slices.Insert(parent.Children, index, s.ID)
	s.Parent = parent.ID
	return nil
}

// Detach unlinks s from its parent. The shape stays registered.
func (st *Store) Detach(s *Shape) error {
	if s.ID == st.root {
		return ErrRoot
	}
	if p := st.Parent(s); p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(id string) bool { return id == s.ID })
	}
	s.Parent = ""
	return nil
}
