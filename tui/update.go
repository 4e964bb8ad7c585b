// ABOUTME: Event handling and state updates for the TUI
// ABOUTME: Implements the Bubble Tea Update() function and message handlers

package tui

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"playlist-builder/config"
)

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("update panic")
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Right panel width: total width - left panel - padding
		viewportWidth := max(msg.Width-paramPanelWidth-panelPadding, minViewportWidth)

		// Height: total height minus all UI chrome
		viewportHeight := max(msg.Height-totalUIChrome, minViewportHeight)

		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight

		m.viewport.YOffset = 0
		m.ensureCursorVisible()
		m.updateViewportContent()

		return m, nil

	case Update:
		return m.handleBuildUpdate(msg)

	case buildRestartMsg:
		// Cancel the old build; its late updates carry a stale epoch
		m.cancel()
		ctx, cancel := context.WithCancel(m.parent)
		m.ctx = ctx
		m.cancel = cancel
		m.pass = 0
		m.changed = 0
		m.done = false
		m.underfilled = false
		m.buildErr = nil
		m.buildStart = time.Now()
		m.target = m.localConfig.Target()

		// The pending waitForUpdate keeps draining m.updateChan across restarts
		return m, m.startBuild(m.ctx, m.availableTracks(), m.epoch)

	case catalogChangedMsg:
		log.Debug().Msg("catalog changed on disk")
		m.setStatusMsg("Music directory changed, rescanning...")

		return m, tea.Batch(m.loadCatalog(), waitForCatalogChange(m.watcher))

	case catalogLoadedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("catalog rescan failed")
			m.setStatusMsg("Rescan failed: " + msg.err.Error())

			return m, nil
		}

		m.catalog = msg.tracks
		m.setStatusMsg(fmt.Sprintf("Catalog reloaded: %d tracks", len(msg.tracks)))

		return m, m.restartBuild()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleBuildUpdate applies a progress report from the running build
func (m model) handleBuildUpdate(msg Update) (model, tea.Cmd) {
	// Ignore stale updates from old builds
	if msg.Epoch != m.epoch {
		log.Debug().Int("epoch", msg.Epoch).Int("current", m.epoch).Msg("ignoring stale update")

		return m, waitForUpdate(m.updateChan)
	}

	if msg.Err != nil {
		m.buildErr = msg.Err
		m.done = true
		log.Error().Err(msg.Err).Msg("build failed")

		return m, waitForUpdate(m.updateChan)
	}

	m.tracks = msg.Tracks
	m.total = msg.Total
	m.target = msg.Target
	m.distance = msg.Distance
	m.unused = msg.Unused
	m.pass = msg.Pass
	m.passes = msg.Passes
	m.changed = msg.Changed
	m.underfilled = msg.Underfilled
	m.done = msg.Done
	m.buildTime = time.Since(m.buildStart)

	m.clampCursor()
	m.updateViewportContent()

	log.Debug().
		Int("epoch", msg.Epoch).
		Int("pass", msg.Pass).
		Int("changed", msg.Changed).
		Dur("distance", msg.Distance).
		Bool("done", msg.Done).
		Msg("build update")

	// Auto-save the finished playlist to disk (unless dry-run mode)
	if msg.Done && !m.dryRun && len(m.tracks) > 0 {
		if err := m.deps.Writer.Write(m.outputPath, m.tracks); err != nil {
			log.Error().Err(err).Str("path", m.outputPath).Msg("auto-save failed")
		} else {
			log.Debug().Int("tracks", len(m.tracks)).Str("path", m.outputPath).Msg("auto-saved playlist")
		}
	}

	return m, waitForUpdate(m.updateChan)
}

// handleKey dispatches key presses
func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.handleQuitKey()

	case key.Matches(msg, keys.Tab):
		m.handleTabKey()

	case msg.Type == tea.KeyShiftUp:
		m.paramMgr.SelectPrevious()

	case msg.Type == tea.KeyShiftDown:
		m.paramMgr.SelectNext()

	case key.Matches(msg, keys.Up):
		m.handleUpKey()

	case key.Matches(msg, keys.Down):
		m.handleDownKey()

	case key.Matches(msg, keys.PageUp):
		m.moveCursor(m.cursorPos - pageJumpSize)

	case key.Matches(msg, keys.PageDown):
		m.moveCursor(m.cursorPos + pageJumpSize)

	case key.Matches(msg, keys.Home):
		m.moveCursor(0)

	case key.Matches(msg, keys.End):
		m.moveCursor(len(m.tracks) - 1)

	case key.Matches(msg, keys.Left):
		return m, m.handleLeftKey()

	case key.Matches(msg, keys.Right):
		return m, m.handleRightKey()

	case key.Matches(msg, keys.Reset):
		return m, m.resetToDefaults()

	case key.Matches(msg, keys.Exclude):
		return m, m.excludeTrack()

	case key.Matches(msg, keys.Undo):
		return m, m.undo()

	case key.Matches(msg, keys.Redo):
		return m, m.redo()

	case key.Matches(msg, keys.Reseed):
		m.setStatusMsg("New random draw")

		return m, m.restartBuild()

	case key.Matches(msg, keys.Heuristic):
		return m, m.toggleHeuristic()

	case key.Matches(msg, keys.Adaptive):
		return m, m.toggleAdaptive()

	case key.Matches(msg, keys.Save):
		m.save()
	}

	return m, nil
}

// handleQuitKey handles the quit key press
func (m model) handleQuitKey() (model, tea.Cmd) {
	m.quitting = true
	m.cancel()

	// Save config on quit; a failure does not block quitting
	if m.deps.ConfigPath != "" {
		if err := config.SaveConfig(m.deps.ConfigPath, m.deps.Config.Get()); err != nil {
			log.Warn().Err(err).Str("path", m.deps.ConfigPath).Msg("failed to save config on quit")
		}
	}

	return m, tea.Quit
}

// handleTabKey handles panel switching
func (m *model) handleTabKey() {
	if m.focusedPanel == panelParams {
		m.focusedPanel = panelPlaylist
	} else {
		m.focusedPanel = panelParams
	}
}

// handleUpKey handles Up/k key press (context-aware navigation)
func (m *model) handleUpKey() {
	if m.focusedPanel == panelParams {
		m.paramMgr.SelectPrevious()

		return
	}

	if m.cursorPos > 0 {
		m.moveCursor(m.cursorPos - 1)
	}
}

// handleDownKey handles Down/j key press (context-aware navigation)
func (m *model) handleDownKey() {
	if m.focusedPanel == panelParams {
		m.paramMgr.SelectNext()

		return
	}

	if m.cursorPos < len(m.tracks)-1 {
		m.moveCursor(m.cursorPos + 1)
	}
}

// moveCursor places the cursor at pos, clamped to the track list
func (m *model) moveCursor(pos int) {
	m.cursorPos = pos
	m.clampCursor()
	m.ensureCursorVisible()
	m.updateViewportContent()
}

// handleLeftKey handles Left/h key press (decrease parameter when params focused)
func (m *model) handleLeftKey() tea.Cmd {
	if m.focusedPanel != panelParams {
		return nil
	}

	if m.paramMgr.Decrease() {
		return m.syncConfig()
	}

	return nil
}

// handleRightKey handles Right/l key press (increase parameter when params focused)
func (m *model) handleRightKey() tea.Cmd {
	if m.focusedPanel != panelParams {
		return nil
	}

	if m.paramMgr.Increase() {
		return m.syncConfig()
	}

	return nil
}

// resetToDefaults restores tunable parameters to their defaults and rebuilds
func (m *model) resetToDefaults() tea.Cmd {
	m.paramMgr.ResetToDefaults(config.DefaultConfig())
	m.setStatusMsg("Parameters reset to defaults")

	return m.syncConfig()
}

// toggleHeuristic switches between greedy and annealing acceptance
func (m *model) toggleHeuristic() tea.Cmd {
	if m.localConfig.Heuristic == config.HeuristicAnnealing {
		m.localConfig.Heuristic = config.HeuristicGreedy
	} else {
		m.localConfig.Heuristic = config.HeuristicAnnealing
	}

	m.setStatusMsg("Heuristic: " + m.localConfig.Heuristic)

	return m.syncConfig()
}

// toggleAdaptive switches adaptive depth/steps growth between passes
func (m *model) toggleAdaptive() tea.Cmd {
	m.localConfig.Adaptive = !m.localConfig.Adaptive
	m.setStatusMsg(fmt.Sprintf("Adaptive: %v", m.localConfig.Adaptive))

	return m.syncConfig()
}
