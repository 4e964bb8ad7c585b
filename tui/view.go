// ABOUTME: Rendering and display functions for the TUI
// ABOUTME: Implements the Bubble Tea View() function and all render helpers

package tui

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// View renders the TUI
func (m model) View() string {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("view panic")
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	if m.quitting {
		return "Saving config and exiting...\n"
	}

	leftPanel := m.renderParameters()
	rightPanel := m.renderPlaylist()

	// Both panels share a height so they join cleanly
	panelHeight := m.height - (statusBarHeight + summaryHeight + helpHeight + 1)

	leftPanelStyle := lipgloss.NewStyle().
		Width(paramPanelWidth).
		Height(panelHeight).
		Padding(0, 1)

	rightPanelWidth := max(m.width-paramPanelWidth-panelPadding, minViewportWidth*2)

	rightPanelStyle := lipgloss.NewStyle().
		Width(rightPanelWidth).
		Height(panelHeight).
		Padding(0, 1)

	combined := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftPanelStyle.Render(leftPanel),
		rightPanelStyle.Render(rightPanel),
	)

	return combined + "\n" + m.renderStatus() + "\n" + m.renderSummary() + "\n" + m.renderHelp()
}

// renderParameters renders the parameter control panel
func (m model) renderParameters() string {
	var s strings.Builder

	title := "Build parameters"
	if m.focusedPanel == panelParams {
		title = "► " + title + " [FOCUSED]"
	}

	s.WriteString(titleStyle.Render(title) + "\n\n")

	for i, param := range m.paramMgr.All() {
		var value string

		switch {
		case param.IsInt && param.IntValue != nil:
			value = strconv.Itoa(*param.IntValue)
		case !param.IsInt && param.Value != nil:
			value = fmt.Sprintf("%.2f", *param.Value)
		default:
			value = "N/A"
		}

		// Fixed width formatting to prevent column misalignment
		prefix := "  "
		if i == m.paramMgr.Selected() {
			prefix = "► "
		}

		line := fmt.Sprintf("%s%-25s %6s", prefix, param.Name, value)

		if i == m.paramMgr.Selected() {
			s.WriteString(selectedParamStyle.Render(line) + "\n")
		} else {
			s.WriteString(paramStyle.Render(line) + "\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(paramStyle.Render(fmt.Sprintf("  %-25s %6s", "Heuristic", m.localConfig.Heuristic)) + "\n")
	s.WriteString(paramStyle.Render(fmt.Sprintf("  %-25s %6v", "Adaptive", m.localConfig.Adaptive)) + "\n")
	s.WriteString(paramStyle.Render(fmt.Sprintf("  %-25s %6d", "Excluded", len(m.excluded))) + "\n")

	return s.String()
}

// renderPlaylist renders the playlist preview with viewport scrolling
func (m model) renderPlaylist() string {
	var s strings.Builder

	title := "Current playlist"
	if !m.done {
		title += " (building)"
	}

	if m.focusedPanel == panelPlaylist {
		title = "► " + title + " [FOCUSED]"
	}

	s.WriteString(titleStyle.Render(title) + "\n\n")

	header := fmt.Sprintf("%-4s %-20s %-30s %-20s %8s", "#", "Artist", "Title", "Album", "Length")
	s.WriteString(playlistHeaderStyle.Render(header) + "\n")

	// Content is set in Update(), the viewport handles scrolling
	s.WriteString(m.viewport.View())

	return s.String()
}

// updateViewportContent builds and sets the viewport content
func (m *model) updateViewportContent() {
	var content strings.Builder

	for i, track := range m.tracks {
		line := fmt.Sprintf("%-4d %-20s %-30s %-20s %8s",
			i+1,
			truncate(track.Artist, 20),
			truncate(track.Title, 30),
			truncate(track.Album, 20),
			formatDuration(track.Duration),
		)

		if i == m.cursorPos {
			line = cursorStyle.Render(line)
		}

		content.WriteString(line + "\n")
	}

	m.viewport.SetContent(content.String())
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	if m.statusMsg != "" && time.Since(m.statusMsgAge) < statusMessageDuration {
		return statusStyle.Width(m.width).Render(m.statusMsg)
	}

	state := fmt.Sprintf("Pass %d/%d", m.pass, m.passes)
	if m.done {
		state = fmt.Sprintf("Done in %s", m.buildTime.Round(time.Millisecond))
	}

	status := fmt.Sprintf("%d tracks | Track %d/%d | U:%d R:%d | %s | Changed: %d | Pool: %d",
		len(m.tracks),
		min(m.cursorPos+1, len(m.tracks)),
		len(m.tracks),
		m.undoMgr.UndoSize(),
		m.undoMgr.RedoSize(),
		state,
		m.changed,
		m.unused,
	)

	return statusStyle.Width(m.width).Render(status)
}

// renderSummary renders the total/target/distance line
func (m model) renderSummary() string {
	if m.buildErr != nil {
		return errorStyle.Render(" Build failed: " + m.buildErr.Error())
	}

	summary := fmt.Sprintf(" Total: %s | Target: %s | Distance: %s",
		formatDuration(m.total),
		formatDuration(m.target),
		formatDuration(m.distance),
	)

	if m.done && m.underfilled {
		summary += " | catalog too short for target"
	}

	return helpStyle.Render(summary)
}

// renderHelp renders the help text
func (m model) renderHelp() string {
	return helpStyle.Render(" Tab: switch panel | ↑/↓/j/k: navigate | ←/→/h/l: adjust param | d: exclude | u: undo | ctrl+r: redo | n: new draw | a: heuristic | m: adaptive | s: save | r: reset | q: quit")
}
