package pointer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/1siamBot/fisheye-engine/engine/input"
)

// State tracks mouse and keyboard state per frame and turns it into orbit
// gestures
type State struct {
	// Mouse
	MouseX, MouseY   int
	MouseDX, MouseDY int // delta since last frame
	prevMouseX       int
	prevMouseY       int
	LeftPressed      bool
	LeftJustPressed  bool
	ScrollY          float64

	// Drag
	DragStartX, DragStartY int
	Dragging               bool
	DragThreshold          int

	// ResetKey returns the orbit to its initial view
	ResetKey ebiten.Key

	reset bool
}

func NewState() *State {
	return &State{
		DragThreshold: 3,
		ResetKey:      ebiten.KeyR,
	}
}

// Update should be called once per ebiten Update
func (s *State) Update() {
	s.prevMouseX = s.MouseX
	s.prevMouseY = s.MouseY
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.MouseDX = s.MouseX - s.prevMouseX
	s.MouseDY = s.MouseY - s.prevMouseY

	leftDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.LeftJustPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	s.LeftPressed = leftDown

	_, s.ScrollY = ebiten.Wheel()

	// A drag starts once the cursor leaves the threshold
	if s.LeftJustPressed {
		s.DragStartX = s.MouseX
		s.DragStartY = s.MouseY
		s.Dragging = false
	}
	if leftDown && !s.Dragging {
		dx := s.MouseX - s.DragStartX
		dy := s.MouseY - s.DragStartY
		if dx*dx+dy*dy > s.DragThreshold*s.DragThreshold {
			s.Dragging = true
		}
	}
	if !leftDown {
		s.Dragging = false
	}

	s.reset = inpututil.IsKeyJustPressed(s.ResetKey)
}

// Poll returns this frame's gesture. Drag deltas count only while dragging.
func (s *State) Poll() input.Gesture {
	g := input.Gesture{Scroll: s.ScrollY, Reset: s.reset}
	if s.Dragging {
		g.DX = float64(s.MouseDX)
		g.DY = float64(s.MouseDY)
	}
	return g
}

// IsKeyJustPressed returns true if key was just pressed this frame
func (s *State) IsKeyJustPressed(key ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(key)
}
