package editor

// Mouse buttons.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

// Reserved key names.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyLeft      = "ArrowLeft"
	KeyRight     = "ArrowRight"
	KeyUp        = "ArrowUp"
	KeyDown      = "ArrowDown"
)

// PointerEvent is a pointer event in canvas (device pixel) coordinates.
type PointerEvent struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Button         int     `json:"button"`
	LeftButtonDown bool    `json:"leftButtonDown"`
	Shift          bool    `json:"shift"`
	Ctrl           bool    `json:"ctrl"`
	Alt            bool    `json:"alt"`
}

type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
}

// Cursor names understood by the client.
const (
	CursorDefault    = "default"
	CursorPointer    = "pointer"
	CursorMove       = "move"
	CursorRotate     = "rotate"
	CursorNWSEResize = "nwse-resize"
	CursorNESWResize = "nesw-resize"
	CursorCrosshair  = "crosshair"
)

// Cursor is a cursor name with the angle the client should rotate it by.
type Cursor struct {
	Name  string  `json:"name"`
	Angle float64 `json:"angle"`
}

var DefaultCursor = Cursor{Name: CursorDefault}
