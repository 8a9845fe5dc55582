package timeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	timelinedto "scrollkitty/internal/modules/timeline/dto"
	"scrollkitty/internal/platform/healthband"
	"scrollkitty/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type TimelinePort interface {
	List(ctx context.Context, limit int) ([]timelinedto.EventOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type EventsLoadedMsg struct {
	Events []timelinedto.EventOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type eventItem struct {
	event timelinedto.EventOutput
}

func (i eventItem) Title() string {
	if i.event.Message != "" {
		return i.event.Emoji + " " + i.event.Message
	}
	return "Scrolled " + i.event.SourceAppName
}

func (i eventItem) Description() string {
	return fmt.Sprintf("%s  %d → %d", i.event.Timestamp.Format("Mon 15:04"), i.event.HealthBefore, i.event.HealthAfter)
}

func (i eventItem) FilterValue() string { return i.event.Message + " " + i.event.SourceAppName }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    TimelinePort
	limit   int
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port TimelinePort, limit int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Timeline"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, limit: limit, list: l, detail: vp, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the newest events again.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return EventsLoadedMsg{}
		}
		events, err := m.port.List(context.Background(), m.limit)
		return EventsLoadedMsg{Events: events, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case EventsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Timeline: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Timeline"
		// newest first on screen
		items := make([]list.Item, 0, len(msg.Events))
		for i := len(msg.Events) - 1; i >= 0; i-- {
			items = append(items, eventItem{event: msg.Events[i]})
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.list.Select(0)
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prev := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prev {
			m.detail.SetContent(m.renderDetail())
		}
		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading timeline…")
	}
	listW := m.width * 6 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 6 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(eventItem)
	if !ok {
		return theme.Muted.Render("Nothing has happened yet")
	}
	e := item.event
	band := string(healthband.Classify(e.HealthAfter))
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(e.Timestamp.Format("Monday 3:04 PM")) + "\n\n")
	sb.WriteString(theme.Muted.Render("type:   ") + e.Type + "\n")
	if e.Trigger != "" {
		sb.WriteString(theme.Muted.Render("why:    ") + e.Trigger + "\n")
	}
	if e.SourceAppName != "" {
		sb.WriteString(theme.Muted.Render("app:    ") + e.SourceAppName + "\n")
	}
	sb.WriteString(fmt.Sprintf("%s%d → %s\n", theme.Muted.Render("health: "), e.HealthBefore,
		theme.Band(band).Render(fmt.Sprintf("%d %s", e.HealthAfter, band))))
	if e.Message != "" {
		sb.WriteString("\n" + e.Emoji + " " + e.Message + "\n")
	}
	return sb.String()
}
