package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	healthdto "scrollkitty/internal/modules/health/dto"
	narrativedto "scrollkitty/internal/modules/narrative/dto"
	timelinedto "scrollkitty/internal/modules/timeline/dto"
	usagedto "scrollkitty/internal/modules/usage/dto"
	"scrollkitty/internal/ui/components"
	"scrollkitty/internal/ui/theme"
	kittyview "scrollkitty/internal/ui/views/kitty"
	timelineview "scrollkitty/internal/ui/views/timeline"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.

type healthPort interface {
	Status(ctx context.Context) (healthdto.StatusOutput, error)
}

type usagePort interface {
	Grant(ctx context.Context, appID, appName string, hp float64, minutes int) (usagedto.GrantOutput, error)
	Counters(ctx context.Context) (usagedto.CountersOutput, error)
	Reset(ctx context.Context) error
}

type timelinePort interface {
	List(ctx context.Context, limit int) ([]timelinedto.EventOutput, error)
}

type narrativePort interface {
	Evaluate(ctx context.Context, reason string) (narrativedto.EvaluateOutput, error)
	Intercept(ctx context.Context) (narrativedto.InterceptOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabKitty tabID = iota
	tabTimeline
	tabCount
)

var tabLabels = [tabCount]string{"Kitty", "Timeline"}

const timelineLimit = 100

// ─── async messages ───────────────────────────────────────────────────────────

type evaluatedMsg struct {
	out narrativedto.EvaluateOutput
	err error
}

type grantedMsg struct {
	out usagedto.GrantOutput
	err error
}

type resetMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Evaluate key.Binding
	Refresh  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Evaluate: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "ask the kitty")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Evaluate, k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the help overlay
// and the command palette; sub-views render.
type Model struct {
	usage     usagePort
	narrative narrativePort

	kittyView    kittyview.Model
	timelineView timelineview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(health healthPort, usage usagePort, timeline timelinePort, narrative narrativePort) Model {
	return Model{
		usage:        usage,
		narrative:    narrative,
		kittyView:    kittyview.New(kittyPortBridge{health: health, usage: usage, narrative: narrative}),
		timelineView: timelineview.New(timeline, timelineLimit),
		activeTab:    tabKitty,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.kittyView.Init(),
		m.timelineView.Init(),
		m.evaluateCmd("foreground"),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case evaluatedMsg:
		switch {
		case msg.err != nil:
			m.status = "evaluate: " + msg.err.Error()
		case msg.out.Fired && msg.out.Message != "":
			m.kittyView.Say(msg.out.Emoji, msg.out.Message)
			m.status = "the kitty said something (" + msg.out.Trigger + ")"
		default:
			m.status = "the kitty has nothing to add"
		}
		return m, m.refreshCmd()

	case grantedMsg:
		if msg.err != nil {
			m.status = "grant: " + msg.err.Error()
			return m, nil
		}
		if !msg.out.Applied {
			m.status = "that app is not tracked"
			return m, nil
		}
		m.status = fmt.Sprintf("health %d → %d (%s)", msg.out.HealthBefore, msg.out.HealthAfter, msg.out.Band)
		return m, m.evaluateCmd("grant")

	case resetMsg:
		if msg.err != nil {
			m.status = "reset: " + msg.err.Error()
			return m, nil
		}
		m.status = "health refilled"
		return m, m.refreshCmd()

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case kittyview.SnapshotLoadedMsg:
		if msg.Err == nil {
			apps := make([]string, len(msg.Status.Apps))
			for i, a := range msg.Status.Apps {
				apps[i] = a.AppID
			}
			m.palette.SetApps(apps)
			m.palette.SetBand(msg.Status.Band)
		}
		var cmd tea.Cmd
		m.kittyView, cmd = m.kittyView.Update(msg)
		return m, cmd

	case timelineview.EventsLoadedMsg:
		var cmd tea.Cmd
		m.timelineView, cmd = m.timelineView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabTimeline && m.timelineView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		case "?":
			m.showHelp = !m.showHelp
		case ":":
			return m, m.palette.Open()
		case "e":
			return m, m.evaluateCmd("request")
		case "r":
			m.status = "refreshing"
			return m, m.refreshCmd()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabKitty:
		m.kittyView, tabCmd = m.kittyView.Update(msg)
	case tabTimeline:
		m.timelineView, tabCmd = m.timelineView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabTimeline:
		content = m.timelineView.View()
	default:
		content = m.kittyView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "scrollkitty  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  e:evaluate  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

type grantRequest struct {
	appID   string
	hp      float64
	minutes int
}

// parseGrant reads "grant <app> <hp> [minutes]".
func parseGrant(parts []string) (grantRequest, error) {
	if len(parts) < 3 {
		return grantRequest{}, fmt.Errorf("usage: grant <app> <hp> [minutes]")
	}
	hp, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || hp < 0 {
		return grantRequest{}, fmt.Errorf("invalid hp %q", parts[2])
	}
	req := grantRequest{appID: parts[1], hp: hp}
	if len(parts) >= 4 {
		minutes, err := strconv.Atoi(parts[3])
		if err != nil || minutes < 0 {
			return grantRequest{}, fmt.Errorf("invalid minutes %q", parts[3])
		}
		req.minutes = minutes
	}
	return req, nil
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "grant":
		req, err := parseGrant(parts)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.grantCmd(req)
	case "evaluate":
		return m, m.evaluateCmd("request")
	case "intercept":
		m.activeTab = tabKitty
		return m, m.refreshCmd()
	case "reset":
		return m, m.resetCmd()
	case "refresh":
		return m, m.refreshCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.kittyView, _ = m.kittyView.Update(sz)
	m.timelineView, _ = m.timelineView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) refreshCmd() tea.Cmd {
	return tea.Batch(m.kittyView.Reload(), m.timelineView.Reload())
}

func (m Model) evaluateCmd(reason string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.narrative.Evaluate(context.Background(), reason)
		return evaluatedMsg{out: out, err: err}
	}
}

func (m Model) grantCmd(req grantRequest) tea.Cmd {
	return func() tea.Msg {
		out, err := m.usage.Grant(context.Background(), req.appID, "", req.hp, req.minutes)
		return grantedMsg{out: out, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: m.usage.Reset(context.Background())}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────

type kittyPortBridge struct {
	health    healthPort
	usage     usagePort
	narrative narrativePort
}

func (b kittyPortBridge) Status(ctx context.Context) (healthdto.StatusOutput, error) {
	return b.health.Status(ctx)
}
func (b kittyPortBridge) Counters(ctx context.Context) (usagedto.CountersOutput, error) {
	return b.usage.Counters(ctx)
}
func (b kittyPortBridge) Intercept(ctx context.Context) (narrativedto.InterceptOutput, error) {
	return b.narrative.Intercept(ctx)
}
