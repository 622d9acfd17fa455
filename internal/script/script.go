// Package script replays recorded input scenarios against an editor. A
// scenario is a YAML file:
//
//	viewport: {origin: {x: 0, y: 0}, scale: 1}
//	document: sample.json
//	steps:
//	  - tool: rect
//	  - pointer: {action: down, x: 10, y: 10}
//	  - pointer: {action: move, x: 60, y: 40}
//	  - pointer: {action: up, x: 60, y: 40}
//	  - key: {action: down, key: Escape}
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/geometry"
	"github.com/inamate/inamate/diagram-go/internal/scene"
)

const (
	ActionDown = "down"
	ActionMove = "move"
	ActionUp   = "up"
)

var ErrInvalidStep = errors.New("invalid step")

type Scenario struct {
	Viewport *Viewport `yaml:"viewport,omitempty"`
	// Document is the path of a snapshot JSON file. Relative paths resolve
	// against the scenario file.
	Document string `yaml:"document,omitempty"`
	Steps    []Step `yaml:"steps"`
}

type Viewport struct {
	Origin geometry.Point `yaml:"origin"`
	Scale  float64        `yaml:"scale"`
}

// Step holds exactly one of Tool, Pointer or Key.
type Step struct {
	Tool    string       `yaml:"tool,omitempty"`
	Pointer *PointerStep `yaml:"pointer,omitempty"`
	Key     *KeyStep     `yaml:"key,omitempty"`
}

type PointerStep struct {
	Action string  `yaml:"action"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Shift  bool    `yaml:"shift,omitempty"`
	Ctrl   bool    `yaml:"ctrl,omitempty"`
	Button int     `yaml:"button,omitempty"`
}

type KeyStep struct {
	Action string `yaml:"action"`
	Key    string `yaml:"key"`
	Shift  bool   `yaml:"shift,omitempty"`
	Ctrl   bool   `yaml:"ctrl,omitempty"`
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Document != "" && !filepath.IsAbs(sc.Document) {
		sc.Document = filepath.Join(filepath.Dir(path), sc.Document)
	}
	return sc, nil
}

func (sc *Scenario) Validate() error {
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	n := 0
	if st.Tool != "" {
		n++
	}
	if st.Pointer != nil {
		n++
		switch st.Pointer.Action {
		case ActionDown, ActionMove, ActionUp:
		default:
			return fmt.Errorf("%w: pointer action %q", ErrInvalidStep, st.Pointer.Action)
		}
	}
	if st.Key != nil {
		n++
		switch st.Key.Action {
		case ActionDown, ActionUp:
		default:
			return fmt.Errorf("%w: key action %q", ErrInvalidStep, st.Key.Action)
		}
		if st.Key.Key == "" {
			return fmt.Errorf("%w: key name is empty", ErrInvalidStep)
		}
	}
	if n != 1 {
		return fmt.Errorf("%w: want exactly one of tool, pointer or key", ErrInvalidStep)
	}
	return nil
}

// LoadDocument returns the scenario's starting document, or a new empty one.
func (sc *Scenario) LoadDocument() (*scene.Store, error) {
	if sc.Document == "" {
		return scene.NewDocument(""), nil
	}
	data, err := os.ReadFile(sc.Document)
	if err != nil {
		return nil, err
	}
	return scene.Load(data)
}

// Run replays the scenario's steps on ed. It stops at the first tool switch
// that fails.
func Run(ed *editor.Editor, sc *Scenario) error {
	if sc.Viewport != nil {
		vp := ed.Viewport()
		vp.Origin = sc.Viewport.Origin
		if sc.Viewport.Scale > 0 {
			vp.Scale = sc.Viewport.Scale
		}
	}

	pressed := false
	for i, st := range sc.Steps {
		switch {
		case st.Tool != "":
			if err := ed.SetActiveHandler(st.Tool); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		case st.Pointer != nil:
			p := st.Pointer
			e := editor.PointerEvent{X: p.X, Y: p.Y, Button: p.Button, Shift: p.Shift, Ctrl: p.Ctrl}
			switch p.Action {
			case ActionDown:
				pressed = p.Button == editor.ButtonLeft
				e.LeftButtonDown = pressed
				ed.PointerDown(e)
			case ActionMove:
				e.LeftButtonDown = pressed
				ed.PointerMove(e)
			case ActionUp:
				pressed = false
				ed.PointerUp(e)
			}
		case st.Key != nil:
			e := editor.KeyEvent{Key: st.Key.Key, Shift: st.Key.Shift, Ctrl: st.Key.Ctrl}
			if st.Key.Action == ActionDown {
				ed.KeyDown(e)
			} else {
				ed.KeyUp(e)
			}
		}
	}
	return nil
}
