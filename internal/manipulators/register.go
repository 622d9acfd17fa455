package manipulators

import (
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// NewBoxManipulator handles shapes with a rectangular frame: rotate handle,
// four resize corners, then the body.
func NewBoxManipulator() *editor.ControllerManipulator {
	return editor.NewManipulator(
		&RotateController{},
		&ResizeController{Corner: CornerTopLeft},
		&ResizeController{Corner: CornerTopRight},
		&ResizeController{Corner: CornerBottomRight},
		&ResizeController{Corner: CornerBottomLeft},
		&MoveController{},
	)
}

// NewLineManipulator handles lines. Vertex handles take precedence over the body.
func NewLineManipulator() *editor.ControllerManipulator {
	return editor.NewManipulator(&VertexController{}, &RotateController{}, &MoveController{})
}

func NewSelectionsManipulator() *editor.ControllerManipulator {
	return editor.NewManipulator(&SelectionsController{})
}

// Register installs the built-in manipulators into reg.
func Register(reg *editor.Registry) {
	box := NewBoxManipulator()
	for _, k := range []scene.Kind{scene.KindRect, scene.KindEllipse, scene.KindFrame, scene.KindText} {
		reg.Register(string(k), box)
	}
	reg.Register(string(scene.KindLine), NewLineManipulator())
	reg.Register(editor.SelectionsTag, NewSelectionsManipulator())
}
