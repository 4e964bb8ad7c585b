// ABOUTME: Viewport manager for cursor-to-middle scrolling
// ABOUTME: Keeps the playlist cursor centred while the track list scrolls

package tui

// ScrollPhase identifies where the cursor sits relative to the scrolled list
type ScrollPhase int

const (
	TopPhase    ScrollPhase = iota // Cursor moves, viewport at top
	MiddlePhase                    // Cursor at middle, content scrolls
	BottomPhase                    // Viewport at bottom, cursor moves
)

// ViewportManager computes scroll offsets for a track list
type ViewportManager struct {
	height     int // Viewport height in lines
	cursorPos  int
	totalItems int
}

// NewViewportManager creates a new viewport manager
func NewViewportManager(height, cursorPos, totalItems int) *ViewportManager {
	return &ViewportManager{
		height:     height,
		cursorPos:  cursorPos,
		totalItems: totalItems,
	}
}

// Phase returns the current scrolling phase
func (vm *ViewportManager) Phase() ScrollPhase {
	if vm.totalItems == 0 || vm.height < 1 {
		return TopPhase
	}

	middle := vm.height / 2
	if vm.cursorPos < middle {
		return TopPhase
	}

	if vm.cursorPos < vm.totalItems-vm.height+middle {
		return MiddlePhase
	}

	return BottomPhase
}

// CalculateOffset computes the viewport Y offset that keeps the cursor visible
func (vm *ViewportManager) CalculateOffset() int {
	switch vm.Phase() {
	case MiddlePhase:
		return vm.cursorPos - vm.height/2
	case BottomPhase:
		return max(vm.totalItems-vm.height, 0)
	default:
		return 0
	}
}
