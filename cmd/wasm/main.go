//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/inamate/diagram-go/internal/canvas"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/handlers"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/txn"
)

var (
	ed       *editor.Editor
	surface  *canvas.Recorder
	onCommit js.Value
)

func main() {
	surface = canvas.NewRecorder(800, 600, 1)
	ed = editor.New(scene.NewDocument(""), surface)
	handlers.Install(ed)
	ed.Tx().OnCommit(func(c txn.Commit) {
		if onCommit.Type() == js.TypeFunction {
			onCommit.Invoke(c.Label, string(c.Snapshot))
		}
	})

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → editor) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("pointerDown", js.FuncOf(pointer(ed.PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer(ed.PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointer(ed.PointerUp)))
	api.Set("keyDown", js.FuncOf(key(ed.KeyDown)))
	api.Set("keyUp", js.FuncOf(key(ed.KeyUp)))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("undo", js.FuncOf(func(this js.Value, args []js.Value) any { ed.Undo(); ed.Repaint(); return nil }))
	api.Set("redo", js.FuncOf(func(this js.Value, args []js.Value) any { ed.Redo(); ed.Repaint(); return nil }))
	api.Set("onCommit", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			onCommit = args[0]
		}
		return nil
	}))

	// --- Queries (frontend ← editor) ---
	api.Set("getFrame", js.FuncOf(getFrame))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getCursor", js.FuncOf(getCursor))
	api.Set("getTool", js.FuncOf(func(this js.Value, args []js.Value) any { return js.ValueOf(ed.ActiveHandler().ID()) }))
	api.Set("canUndo", js.FuncOf(func(this js.Value, args []js.Value) any { return js.ValueOf(ed.Tx().CanUndo()) }))
	api.Set("canRedo", js.FuncOf(func(this js.Value, args []js.Value) any { return js.ValueOf(ed.Tx().CanRedo()) }))

	js.Global().Set("diagramEditor", api)
	js.Global().Set("diagramWasmReady", js.ValueOf(true))

	select {}
}

func errorResult(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing document JSON"})
	}
	st, err := scene.Load([]byte(args[0].String()))
	if err != nil {
		return errorResult(err)
	}
	ed.SetDocument(st)
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	ed.SetDocument(scene.NewSampleDocument())
	return ok()
}

// pointer adapts (x, y, button, leftButtonDown, shift, ctrl, alt) arguments.
func pointer(fn func(editor.PointerEvent)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 2 {
			return nil
		}
		e := editor.PointerEvent{X: args[0].Float(), Y: args[1].Float()}
		if len(args) > 2 {
			e.Button = args[2].Int()
		}
		if len(args) > 3 {
			e.LeftButtonDown = args[3].Truthy()
		}
		if len(args) > 4 {
			e.Shift = args[4].Truthy()
		}
		if len(args) > 5 {
			e.Ctrl = args[5].Truthy()
		}
		if len(args) > 6 {
			e.Alt = args[6].Truthy()
		}
		fn(e)
		return nil
	}
}

// key adapts (key, shift, ctrl, alt) arguments.
func key(fn func(editor.KeyEvent)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return nil
		}
		e := editor.KeyEvent{Key: args[0].String()}
		if len(args) > 1 {
			e.Shift = args[1].Truthy()
		}
		if len(args) > 2 {
			e.Ctrl = args[2].Truthy()
		}
		if len(args) > 3 {
			e.Alt = args[3].Truthy()
		}
		fn(e)
		return nil
	}
}

func setTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	if err := ed.SetActiveHandler(args[0].String()); err != nil {
		return errorResult(err)
	}
	return ok()
}

// setViewport takes (originX, originY, scale, width, height, px).
func setViewport(this js.Value, args []js.Value) any {
	if len(args) < 6 {
		return nil
	}
	vp := ed.Viewport()
	vp.Origin.X, vp.Origin.Y = args[0].Float(), args[1].Float()
	vp.Scale = args[2].Float()
	vp.PX = args[5].Float()
	surface.Resize(args[3].Float(), args[4].Float(), vp.PX)
	ed.Repaint()
	return nil
}

func getFrame(this js.Value, args []js.Value) any {
	data, err := canvas.MarshalCommands(surface.Commands())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getDocument(this js.Value, args []js.Value) any {
	data, err := ed.Store().Snapshot()
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getSelection(this js.Value, args []js.Value) any {
	data, _ := json.Marshal(ed.Selection().IDs())
	return js.ValueOf(string(data))
}

func getCursor(this js.Value, args []js.Value) any {
	c := ed.Cursor()
	return js.ValueOf(map[string]any{"name": c.Name, "angle": c.Angle})
}
