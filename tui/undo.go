// ABOUTME: Undo/redo stack manager for track exclusions
// ABOUTME: Manages build history snapshots with maximum stack size limit

package tui

import (
	"maps"

	"playlist-builder/playlist"
)

// PlaylistState captures the playlist and the excluded tracks for undo/redo
type PlaylistState struct {
	Tracks    []playlist.Track
	Excluded  map[string]bool // Paths left out of the catalog for rebuilding
	CursorPos int
}

// clone returns a deep copy of the state
func (s PlaylistState) clone() PlaylistState {
	return PlaylistState{
		Tracks:    append([]playlist.Track{}, s.Tracks...),
		Excluded:  maps.Clone(s.Excluded),
		CursorPos: s.CursorPos,
	}
}

// UndoManager manages undo/redo stacks with maximum size limit
type UndoManager struct {
	undoStack []PlaylistState
	redoStack []PlaylistState
	maxSize   int
}

// NewUndoManager creates a new undo manager with the specified max stack size
func NewUndoManager(maxSize int) *UndoManager {
	return &UndoManager{
		undoStack: []PlaylistState{},
		redoStack: []PlaylistState{},
		maxSize:   maxSize,
	}
}

// Push saves a new state to the undo stack
// Clears the redo stack (you can't redo after a new action)
func (um *UndoManager) Push(state PlaylistState) {
	um.undoStack = append(um.undoStack, state.clone())

	if len(um.undoStack) > um.maxSize {
		um.undoStack = um.undoStack[1:]
	}

	um.redoStack = []PlaylistState{}
}

// Undo restores the previous state
// Returns the state and true if undo was successful, or zero value and false if nothing to undo
func (um *UndoManager) Undo(currentState PlaylistState) (PlaylistState, bool) {
	if len(um.undoStack) == 0 {
		return PlaylistState{}, false
	}

	um.redoStack = append(um.redoStack, currentState.clone())

	if len(um.redoStack) > um.maxSize {
		um.redoStack = um.redoStack[1:]
	}

	state := um.undoStack[len(um.undoStack)-1]
	um.undoStack = um.undoStack[:len(um.undoStack)-1]

	return state, true
}

// Redo restores the next state
// Returns the state and true if redo was successful, or zero value and false if nothing to redo
func (um *UndoManager) Redo(currentState PlaylistState) (PlaylistState, bool) {
	if len(um.redoStack) == 0 {
		return PlaylistState{}, false
	}

	um.undoStack = append(um.undoStack, currentState.clone())

	if len(um.undoStack) > um.maxSize {
		um.undoStack = um.undoStack[1:]
	}

	state := um.redoStack[len(um.redoStack)-1]
	um.redoStack = um.redoStack[:len(um.redoStack)-1]

	return state, true
}

// UndoSize returns the number of items in the undo stack
func (um *UndoManager) UndoSize() int {
	return len(um.undoStack)
}

// RedoSize returns the number of items in the redo stack
func (um *UndoManager) RedoSize() int {
	return len(um.redoStack)
}

// Clear clears both stacks
func (um *UndoManager) Clear() {
	um.undoStack = []PlaylistState{}
	um.redoStack = []PlaylistState{}
}
