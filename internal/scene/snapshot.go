package scene

import (
	"encoding/json"
	"fmt"
)

type storeJSON struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Root   string   `json:"root"`
	Shapes []*Shape `json:"shapes"`
}

// MarshalJSON serializes the whole tree, shapes in paint order.
func (st *Store) MarshalJSON() ([]byte, error) {
	doc := storeJSON{ID: st.ID, Name: st.Name, Root: st.root}
	for s := range st.Shapes() {
		doc.Shapes = append(doc.Shapes, s)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON replaces the contents of the store with a serialized tree.
func (st *Store) UnmarshalJSON(data []byte) error {
	var doc storeJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	next := &Store{ID: doc.ID, Name: doc.Name, root: doc.Root, index: make(map[string]int)}
	for _, s := range doc.Shapes {
		if s == nil || s.ID == "" {
			return fmt.Errorf("invalid shape entry")
		}
		if next.Get(s.ID) != nil {
			return fmt.Errorf("shape %q listed twice: %w", s.ID, ErrInvalidTree)
		}
		if s.Children == nil {
			s.Children = []string{}
		}
		next.put(s)
	}

	root := next.Root()
	if root == nil {
		return fmt.Errorf("root %q: %w", doc.Root, ErrNotFound)
	}
	if root.Kind != KindDocument || root.Parent != "" {
		return fmt.Errorf("root %q is not a document", doc.Root)
	}
	for _, s := range doc.Shapes {
		for _, id := range s.Children {
			c := next.Get(id)
			if c == nil {
				return fmt.Errorf("child %q of %q: %w", id, s.ID, ErrNotFound)
			}
			if c.Parent != s.ID {
				return fmt.Errorf("child %q lists parent %q, expected %q: %w", id, c.Parent, s.ID, ErrInvalidTree)
			}
		}
	}
	if err := next.checkTree(); err != nil {
		return err
	}

	*st = *next
	return nil
}

// checkTree verifies that every shape is reached exactly once from the root.
// Ancestry walks assume this and would loop on a parent cycle.
func (st *Store) checkTree() error {
	seen := make(map[string]bool, len(st.index))
	stack := []string{st.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return fmt.Errorf("shape %q reached twice: %w", id, ErrInvalidTree)
		}
		seen[id] = true
		stack = append(stack, st.Get(id).Children...)
	}
	for id := range st.index {
		if !seen[id] {
			return fmt.Errorf("shape %q is not reachable from the root: %w", id, ErrInvalidTree)
		}
	}
	return nil
}

// Snapshot returns the JSON form of the document.
func (st *Store) Snapshot() ([]byte, error) {
	return json.Marshal(st)
}

// Load parses a snapshot into a new store.
func Load(data []byte) (*Store, error) {
	st := &Store{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return st, nil
}
