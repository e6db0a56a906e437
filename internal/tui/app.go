// internal/tui/app.go
//
// The interactive wizard. It follows The Elm Architecture used by bubbletea:
// key presses become messages, Update moves the wizard.State forward, and
// View renders the current step.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/waypoint/internal/artifact"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
	"github.com/kingrea/waypoint/internal/logbook"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/session"
	"github.com/kingrea/waypoint/internal/wizard"
)

const (
	logPanelLines  = 6
	defaultWidth   = 100
	defaultHeight  = 30
	defaultGlamour = "dark"
)

// compiledMsg carries the outcome of a background compile.
type compiledMsg struct {
	packet *packet.Packet
	result session.Result
	err    error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook overrides the journey log.
func WithLogbook(book *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = book
	}
}

// WithSessions overrides where sessions are saved.
func WithSessions(store *session.Store) AppOption {
	return func(a *App) {
		if store != nil {
			a.sessions = store
		}
	}
}

// WithState resumes an existing wizard session.
func WithState(state *wizard.State) AppOption {
	return func(a *App) {
		a.state = state
	}
}

// WithClock overrides the clock used by a fresh wizard session.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithMetrics records wizard activity.
func WithMetrics(m *metrics.Metrics) AppOption {
	return func(a *App) {
		a.metrics = m
	}
}

// WithGuideStyle selects the glamour style used for review text.
func WithGuideStyle(style string) AppOption {
	return func(a *App) {
		if strings.TrimSpace(style) != "" {
			a.guideStyle = style
		}
	}
}

// App is the wizard model.
type App struct {
	registry *catalog.Registry
	compiler *packet.Compiler
	sessions *session.Store
	state    *wizard.State
	logbook  *logbook.Logbook
	metrics  *metrics.Metrics
	now      func() time.Time

	picker   list.Model
	inputs   []textinput.Model
	fields   []catalog.Field
	focus    int
	spinner  spinner.Model
	viewport viewport.Model

	guideStyle string
	packet     *packet.Packet
	result     session.Result
	statusMsg  string
	err        error

	width  int
	height int
}

// NewApp builds the wizard over a registry. cfg supplies the journey log and
// session directories when not overridden.
func NewApp(cfg *config.Config, registry *catalog.Registry, compiler *packet.Compiler, opts ...AppOption) (*App, error) {
	if registry == nil {
		return nil, fmt.Errorf("tui: registry is required")
	}
	a := &App{
		registry:   registry,
		compiler:   compiler,
		now:        time.Now,
		guideStyle: defaultGlamour,
		width:      defaultWidth,
		height:     defaultHeight,
	}
	if cfg != nil {
		if book, err := logbook.New(cfg.JourneyPath()); err == nil {
			a.logbook = book
		}
		a.sessions = session.New(artifact.NewStore(cfg.SessionsDir()), session.WithOutputDir(cfg.OutputDir()))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.state == nil {
		a.state = wizard.New(registry,
			wizard.WithClock(a.now),
			wizard.WithLogbook(a.logbook),
			wizard.WithMetrics(a.metrics),
		)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	a.spinner = sp
	a.viewport = viewport.New(a.width-6, a.height-12)

	a.picker = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	a.picker.Title = "What do you want to update?"
	a.picker.SetShowStatusBar(false)
	a.picker.SetFilteringEnabled(false)
	a.refreshPicker()
	a.enterStep()
	return a, nil
}

// State exposes the wizard session driven by the app.
func (a *App) State() *wizard.State { return a.state }

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case compiledMsg:
		return a.handleCompiled(msg)

	case spinner.TickMsg:
		if a.state.Step() != wizard.StepCompile {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.save()
			return a, tea.Quit
		}
		switch a.state.Step() {
		case wizard.StepSelect:
			return a.updateSelect(msg)
		case wizard.StepDetails:
			return a.updateDetails(msg)
		case wizard.StepReview:
			return a.updateReview(msg)
		case wizard.StepDone:
			return a.updateDone(msg)
		}
	}
	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	innerW := max(20, width-6)
	innerH := max(5, height-12-logPanelLines)
	a.picker.SetSize(innerW, innerH)
	a.viewport.Width = innerW
	a.viewport.Height = innerH
	for i := range a.inputs {
		a.inputs[i].Width = max(10, innerW-4)
	}
	a.refreshViewport()
}

// enterStep prepares the widgets for the step the wizard is on.
func (a *App) enterStep() {
	a.err = nil
	switch a.state.Step() {
	case wizard.StepSelect:
		a.refreshPicker()
		a.statusMsg = "Space → toggle    Enter → continue    q → quit"
	case wizard.StepDetails:
		a.loadPage()
		a.statusMsg = "Tab → next field    Enter → next page    Esc → back"
	case wizard.StepReview, wizard.StepDone:
		a.refreshViewport()
		a.viewport.GotoTop()
		if a.state.Step() == wizard.StepReview {
			a.statusMsg = "Enter → build packet    Esc → back    ↑/↓ → scroll"
		} else {
			a.statusMsg = "q → quit    Esc → back to review"
		}
	}
}

func (a *App) advance() tea.Cmd {
	if err := a.state.Next(); err != nil {
		a.err = err
		return nil
	}
	a.save()
	if a.state.Step() == wizard.StepCompile {
		return a.startCompile()
	}
	a.enterStep()
	return nil
}

func (a *App) back() {
	a.state.Back()
	a.enterStep()
}

func (a *App) save() {
	if a.sessions == nil || len(a.state.Selected()) == 0 {
		return
	}
	if err := a.sessions.SaveAnswers(a.state); err != nil {
		a.logbook.Warn("session save failed: %v", err)
	}
}

func (a *App) startCompile() tea.Cmd {
	if a.compiler == nil {
		a.err = fmt.Errorf("no form template source configured")
		a.state.Back()
		a.enterStep()
		return nil
	}
	a.statusMsg = "Building your packet..."
	state := a.state
	compiler := a.compiler
	sessions := a.sessions
	compile := func() tea.Msg {
		pkt, err := compiler.Compile(context.Background(), state.Processes(), state.Person())
		if err != nil {
			return compiledMsg{err: err}
		}
		if sessions == nil {
			return compiledMsg{packet: pkt}
		}
		result, err := sessions.SavePacket(state, pkt)
		return compiledMsg{packet: pkt, result: result, err: err}
	}
	return tea.Batch(a.spinner.Tick, compile)
}

func (a *App) handleCompiled(msg compiledMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.logbook.Error("packet failed: %v", msg.err)
		a.state.Back()
		a.enterStep()
		a.err = msg.err
		return a, nil
	}
	a.packet = msg.packet
	a.result = msg.result
	a.logbook.Step(a.state.ID(), string(wizard.StepCompile), "packet %s with %d documents", msg.packet.ID, len(msg.packet.Entries))
	_ = a.state.Next()
	a.enterStep()
	return a, nil
}

func (a *App) updateDone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "enter":
		return a, tea.Quit
	case "esc":
		a.state.Back()
		a.state.Back()
		a.enterStep()
		return a, nil
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state.Step() {
	case wizard.StepSelect:
		content = a.viewSelect()
	case wizard.StepDetails:
		content = a.viewDetails()
	case wizard.StepReview, wizard.StepDone:
		content = a.viewport.View()
	case wizard.StepCompile:
		content = fmt.Sprintf("%s Filling %d form(s)...", a.spinner.View(), len(a.state.Processes()))
	}
	sections := []string{
		headerStyle.Render("◆ WAYPOINT"),
		a.renderSteps(),
		boxStyle.Width(max(20, a.width-2)).Render(content),
	}
	if a.err != nil {
		sections = append(sections, errorStyle.Render(a.err.Error()))
	}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, mutedStyle.MarginTop(1).Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

func (a *App) renderSteps() string {
	labels := []struct {
		step  wizard.Step
		title string
	}{
		{wizard.StepSelect, "Choose"},
		{wizard.StepDetails, "Details"},
		{wizard.StepReview, "Review"},
		{wizard.StepCompile, "Build"},
		{wizard.StepDone, "Done"},
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.step == a.state.Step() {
			parts = append(parts, activeStep.Render(l.title))
			continue
		}
		parts = append(parts, mutedStyle.Render(l.title))
	}
	return strings.Join(parts, mutedStyle.Render(" → "))
}

func (a *App) renderLogPanel() string {
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := titleStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().Foreground(colorFaint).Render(strings.Join(lines, "\n"))
	return boxStyle.Render(head + "\n" + body)
}
