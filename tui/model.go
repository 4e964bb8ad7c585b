// ABOUTME: Terminal UI model and core state management
// ABOUTME: Bubble Tea model rebuilding the playlist live as parameters and the catalog change

// Package tui provides an interactive terminal UI for building duration-targeted playlists.
package tui

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"playlist-builder/config"
	"playlist-builder/playlist"
)

// Panel identifiers
const (
	panelParams   = "params"
	panelPlaylist = "playlist"
)

// Layout constants for UI dimensions
const (
	paramPanelWidth = 45 // Left panel width for parameter controls
	panelPadding    = 2  // Horizontal spacing between panels

	// UI chrome heights (elements that reduce available viewport space)
	titleHeight     = 2 // Panel title bars
	headerHeight    = 1 // Column headers for playlist
	statusBarHeight = 1 // Bottom status bar
	summaryHeight   = 1 // Total/target/distance line
	helpHeight      = 1 // Help text line
	spacingHeight   = 2 // Vertical spacing between elements
	totalUIChrome   = titleHeight + headerHeight + statusBarHeight + summaryHeight + helpHeight + spacingHeight

	// Minimum viewport dimensions to ensure usability
	minViewportWidth  = 20
	minViewportHeight = 5
)

// Navigation and interaction constants
const (
	pageJumpSize          = 10              // Number of tracks to jump on PageUp/PageDown
	statusMessageDuration = 5 * time.Second // How long to show transient status messages
	maxUndoStackSize      = 50              // Maximum undo/redo history items
)

// buildRestartMsg signals that the build should restart from the current catalog
type buildRestartMsg struct{}

// catalogChangedMsg signals that files under the music directory changed
type catalogChangedMsg struct{}

// catalogLoadedMsg carries the result of a catalog rescan
type catalogLoadedMsg struct {
	tracks []playlist.Track
	err    error
}

// model holds the TUI state
type model struct {
	deps Dependencies

	// Configuration
	localConfig *config.BuildConfig // Local config that params point to (pointer so addresses stay valid)
	paramMgr    *ParamManager

	// Catalog
	catalog  []playlist.Track
	excluded map[string]bool // Paths removed by the user, left out of every rebuild
	watcher  *catalogWatcher

	// Build state
	tracks      []playlist.Track // Current playlist shown to the user
	total       time.Duration
	target      time.Duration
	distance    time.Duration
	unused      int
	pass        int
	passes      int
	changed     int
	done        bool
	underfilled bool // The whole catalog is shorter than the target
	buildErr    error
	buildStart  time.Time
	buildTime   time.Duration

	// Build lifecycle
	// Framework exception: Context stored in struct because Bubble Tea's Init/Update/View
	// pattern doesn't allow passing context through function parameters.
	parent     context.Context    //nolint:containedctx // See framework exception above
	ctx        context.Context    //nolint:containedctx // Current build, derived from parent
	cancel     context.CancelFunc // Cancel function for ctx
	updateChan chan Update        // Channel for build updates
	epoch      int                // Increments each restart to track stale updates

	// File I/O
	outputPath string
	dryRun     bool

	// UI state
	width        int
	height       int
	quitting     bool
	statusMsg    string
	statusMsgAge time.Time
	focusedPanel string

	// Track browsing
	cursorPos int
	viewport  viewport.Model
	undoMgr   *UndoManager
}

// Key bindings
type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Reset key.Binding
	Quit  key.Binding
	// Track navigation
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	// Editing
	Exclude key.Binding
	Undo    key.Binding
	Redo    key.Binding
	// Build control
	Reseed    key.Binding
	Heuristic key.Binding
	Adaptive  key.Binding
	Save      key.Binding
	// Panel switching
	Tab key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "navigate"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "navigate"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "decrease param"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "increase param"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset params"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home/g", "first track"),
	),
	End: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("end/G", "last track"),
	),
	Exclude: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "exclude track"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "redo"),
	),
	Reseed: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new draw"),
	),
	Heuristic: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle heuristic"),
	),
	Adaptive: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "toggle adaptive"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save playlist"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch panel"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	paramStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedParamStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("240")).
				Foreground(lipgloss.Color("15")).
				Bold(true).
				Padding(0, 1)

	playlistHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Foreground(lipgloss.Color("15"))
)

// Run starts the TUI mode with injected dependencies
// The final playlist is written to opts.OutputPath on exit unless opts.DryRun is set.
func Run(ctx context.Context, opts Options, deps Dependencies) error {
	tracks, err := deps.Catalog.Load(ctx)
	if err != nil {
		return err
	}

	m := initModel(ctx, tracks, opts, deps)

	if opts.Watch && opts.MusicDir != "" {
		watcher, err := newCatalogWatcher(opts.MusicDir, m.localConfig.Extensions)
		if err != nil {
			log.Warn().Err(err).Str("root", opts.MusicDir).Msg("catalog watching disabled")
		} else {
			m.watcher = watcher

			defer func() { _ = watcher.Close() }()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return errors.Wrap(err, "TUI error")
	}

	final, ok := finalModel.(model)
	if !ok || len(final.tracks) == 0 {
		return nil
	}

	if final.dryRun {
		fmt.Println("\n--dry-run mode: playlist not written")

		return nil
	}

	if err := deps.Writer.Write(final.outputPath, final.tracks); err != nil {
		return errors.Wrap(err, "failed to save playlist")
	}

	fmt.Printf("\nSaved playlist (%d tracks, %s) to: %s\n", len(final.tracks), formatDuration(final.total), final.outputPath)

	return nil
}

// initModel creates the initial model with injected dependencies.
// Build contexts derive from parent so cancelling it stops every build.
func initModel(parent context.Context, tracks []playlist.Track, opts Options, deps Dependencies) model {
	cfg := deps.Config.Get()

	// Allocate localConfig on heap so parameter pointers remain valid
	localConfig := &cfg

	ctx, cancel := context.WithCancel(parent)

	return model{
		deps:        deps,
		localConfig: localConfig,
		paramMgr:    NewParamManager(buildParams(localConfig)),

		catalog:  tracks,
		excluded: map[string]bool{},

		target:     localConfig.Target(),
		buildStart: time.Now(),

		parent: parent,
		ctx:    ctx,
		cancel: cancel,
		// Build updates arrive once per sweep; a small buffer keeps the runner from stalling
		updateChan: make(chan Update, 10),

		outputPath: opts.OutputPath,
		dryRun:     opts.DryRun,

		viewport:     viewport.New(0, 0), // Width and height set on first WindowSizeMsg
		focusedPanel: panelPlaylist,

		undoMgr: NewUndoManager(maxUndoStackSize),
	}
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.startBuild(m.ctx, m.availableTracks(), m.epoch),
		waitForUpdate(m.updateChan),
		waitForCatalogChange(m.watcher),
	)
}

// startBuild runs the build in a goroutine and returns a command
func (m *model) startBuild(ctx context.Context, tracks []playlist.Track, epoch int) tea.Cmd {
	runner := m.deps.Runner
	cfg := *m.localConfig
	updates := m.updateChan

	return func() tea.Msg {
		runner.Run(ctx, tracks, cfg, updates, epoch)

		return nil
	}
}

// waitForUpdate waits for build updates and returns them as messages
func waitForUpdate(updateChan <-chan Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updateChan
		if !ok {
			return nil
		}

		return update
	}
}

// loadCatalog rescans the music library in the background
func (m *model) loadCatalog() tea.Cmd {
	loader := m.deps.Catalog
	ctx := m.ctx

	return func() tea.Msg {
		tracks, err := loader.Load(ctx)

		return catalogLoadedMsg{tracks: tracks, err: err}
	}
}

// availableTracks returns the catalog without excluded tracks
func (m *model) availableTracks() []playlist.Track {
	if len(m.excluded) == 0 {
		return m.catalog
	}

	out := make([]playlist.Track, 0, len(m.catalog))
	for _, t := range m.catalog {
		if !m.excluded[t.Path] {
			out = append(out, t)
		}
	}

	return out
}

// syncConfig copies parameter values to the shared config and restarts the build
func (m *model) syncConfig() tea.Cmd {
	if p := m.paramMgr.GetSelected(); p != nil {
		ev := log.Debug().Str("param", p.Name)
		if p.IsInt {
			ev = ev.Int("value", *p.IntValue)
		} else {
			ev = ev.Float64("value", *p.Value)
		}

		ev.Msg("parameter changed")
	}

	m.deps.Config.Update(*m.localConfig)

	return m.restartBuild()
}

// restartBuild invalidates pending updates and queues a new build
func (m *model) restartBuild() tea.Cmd {
	// Increment epoch immediately so updates from the old build are ignored
	m.epoch++

	log.Debug().Int("epoch", m.epoch).Msg("restarting build")

	return func() tea.Msg {
		return buildRestartMsg{}
	}
}

// setStatusMsg sets a transient status message with current timestamp
func (m *model) setStatusMsg(msg string) {
	m.statusMsg = msg
	m.statusMsgAge = time.Now()
}

// ensureCursorVisible adjusts viewport offset to keep cursor visible with middle-of-screen scrolling
func (m *model) ensureCursorVisible() {
	vm := NewViewportManager(m.viewport.Height, m.cursorPos, len(m.tracks))
	m.viewport.SetYOffset(vm.CalculateOffset())
}

// currentState snapshots the state restored by undo/redo
func (m *model) currentState() PlaylistState {
	return PlaylistState{
		Tracks:    m.tracks,
		Excluded:  m.excluded,
		CursorPos: m.cursorPos,
	}
}

// restoreState applies a state from the undo manager
func (m *model) restoreState(state PlaylistState) {
	m.tracks = state.Tracks
	m.excluded = maps.Clone(state.Excluded)

	if m.excluded == nil {
		m.excluded = map[string]bool{}
	}

	m.cursorPos = state.CursorPos
	m.clampCursor()
	m.ensureCursorVisible()
}

// clampCursor keeps the cursor inside the track list
func (m *model) clampCursor() {
	if m.cursorPos >= len(m.tracks) {
		m.cursorPos = len(m.tracks) - 1
	}

	if m.cursorPos < 0 {
		m.cursorPos = 0
	}
}

// excludeTrack drops the track under the cursor from the catalog and rebuilds
func (m *model) excludeTrack() tea.Cmd {
	if len(m.tracks) == 0 {
		return nil
	}

	m.undoMgr.Push(m.currentState())

	track := m.tracks[m.cursorPos]
	m.excluded = maps.Clone(m.excluded)
	m.excluded[track.Path] = true

	m.tracks = append(append([]playlist.Track{}, m.tracks[:m.cursorPos]...), m.tracks[m.cursorPos+1:]...)
	m.clampCursor()

	m.setStatusMsg(fmt.Sprintf("Excluded %s (Undo: %d, Redo: %d)", truncate(track.Title, 30), m.undoMgr.UndoSize(), m.undoMgr.RedoSize()))
	m.updateViewportContent()

	return m.restartBuild()
}

// undo restores the previous exclusion set and rebuilds
func (m *model) undo() tea.Cmd {
	state, ok := m.undoMgr.Undo(m.currentState())
	if !ok {
		m.setStatusMsg("Nothing to undo")

		return nil
	}

	m.restoreState(state)
	m.setStatusMsg(fmt.Sprintf("Undo (Undo: %d, Redo: %d)", m.undoMgr.UndoSize(), m.undoMgr.RedoSize()))
	m.updateViewportContent()

	return m.restartBuild()
}

// redo reapplies an undone exclusion and rebuilds
func (m *model) redo() tea.Cmd {
	state, ok := m.undoMgr.Redo(m.currentState())
	if !ok {
		m.setStatusMsg("Nothing to redo")

		return nil
	}

	m.restoreState(state)
	m.setStatusMsg(fmt.Sprintf("Redo (Undo: %d, Redo: %d)", m.undoMgr.UndoSize(), m.undoMgr.RedoSize()))
	m.updateViewportContent()

	return m.restartBuild()
}

// save writes the current playlist to disk
func (m *model) save() {
	if m.dryRun {
		m.setStatusMsg("Dry run: playlist not written")

		return
	}

	if err := m.deps.Writer.Write(m.outputPath, m.tracks); err != nil {
		log.Error().Err(err).Str("path", m.outputPath).Msg("save failed")
		m.setStatusMsg("Save failed: " + err.Error())

		return
	}

	log.Debug().Int("tracks", len(m.tracks)).Str("path", m.outputPath).Msg("playlist saved")
	m.setStatusMsg(fmt.Sprintf("Saved %d tracks to %s", len(m.tracks), m.outputPath))
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}

// formatDuration renders a duration as h:mm:ss or m:ss
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	mins := int(d%time.Hour) / int(time.Minute)
	secs := int(d%time.Minute) / int(time.Second)

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, secs)
	}

	return fmt.Sprintf("%d:%02d", mins, secs)
}
