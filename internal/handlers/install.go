package handlers

import (
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/manipulators"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

// CreateKinds are the kinds that get a creation tool.
var CreateKinds = []scene.Kind{scene.KindRect, scene.KindEllipse, scene.KindFrame, scene.KindText, scene.KindLine}

// Install registers the built-in manipulators and tools on ed. The select tool
// is active afterwards.
func Install(ed *editor.Editor) *SelectHandler {
	manipulators.Register(ed.Registry())

	sel := NewSelectHandler()
	ed.AddHandler(sel)
	for _, k := range CreateKinds {
		ed.AddHandler(NewCreateHandler(k))
	}
	_ = ed.SetActiveHandler(SelectID)
	return sel
}
