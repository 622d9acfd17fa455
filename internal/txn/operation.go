package txn

import (
	"fmt"

	"github.com/inamate/inamate/diagram-go/internal/scene"
)

type OpType string

const (
	OpAssign   OpType = "assign"
	OpReparent OpType = "reparent"
	OpCreate   OpType = "create"
	OpDelete   OpType = "delete"
)

// Operation is one recorded mutation. Every operation keeps what it replaced so a
// batch can be reverted in reverse order and re-applied in forward order.
type Operation struct {
	Type    OpType `json:"type"`
	ShapeID string `json:"shapeId"`

	// assign
	Field    string `json:"field,omitempty"`
	Value    any    `json:"value,omitempty"`
	Previous any    `json:"previous,omitempty"`

	// reparent, create, delete
	Parent     string `json:"parent,omitempty"`
	Index      int    `json:"index"`
	PrevParent string `json:"prevParent,omitempty"`
	PrevIndex  int    `json:"prevIndex"`

	// create, delete: the subtree root first, in traversal order
	subtree []*scene.Shape
}

func apply(st *scene.Store, op *Operation) error {
	switch op.Type {
	case OpAssign:
		s := st.Get(op.ShapeID)
		if s == nil {
			return fmt.Errorf("assign %s.%s: %w", op.ShapeID, op.Field, scene.ErrNotFound)
		}
		_, err := scene.SetField(s, op.Field, op.Value)
		return err
	case OpReparent:
		return attach(st, op.ShapeID, op.Parent, op.Index)
	case OpCreate:
		for _, s := range op.subtree {
			st.Add(s)
		}
		return attach(st, op.ShapeID, op.Parent, op.Index)
	case OpDelete:
		return remove(st, op.ShapeID)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func revert(st *scene.Store, op *Operation) error {
	switch op.Type {
	case OpAssign:
		s := st.Get(op.ShapeID)
		if s == nil {
			return fmt.Errorf("revert %s.%s: %w", op.ShapeID, op.Field, scene.ErrNotFound)
		}
		_, err := scene.SetField(s, op.Field, op.Previous)
		return err
	case OpReparent:
		return attach(st, op.ShapeID, op.PrevParent, op.PrevIndex)
	case OpCreate:
		return remove(st, op.ShapeID)
	case OpDelete:
		for _, s := range op.subtree {
			st.Add(s)
		}
		return attach(st, op.ShapeID, op.PrevParent, op.PrevIndex)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func attach(st *scene.Store, shapeID, parentID string, index int) error {
	s, parent := st.Get(shapeID), st.Get(parentID)
	if s == nil || parent == nil {
		return fmt.Errorf("attach %s under %s: %w", shapeID, parentID, scene.ErrNotFound)
	}
	return st.Attach(s, parent, index)
}

func remove(st *scene.Store, shapeID string) error {
	s := st.Get(shapeID)
	if s == nil {
		return fmt.Errorf("remove %s: %w", shapeID, scene.ErrNotFound)
	}
	if err := st.Detach(s); err != nil {
		return fmt.Errorf("remove %s: %w", shapeID, err)
	}
	st.Remove(s)
	return nil
}
