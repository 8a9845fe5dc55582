package kitty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	healthdto "scrollkitty/internal/modules/health/dto"
	narrativedto "scrollkitty/internal/modules/narrative/dto"
	usagedto "scrollkitty/internal/modules/usage/dto"
	"scrollkitty/internal/platform/duration"
	"scrollkitty/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type KittyPort interface {
	Status(ctx context.Context) (healthdto.StatusOutput, error)
	Counters(ctx context.Context) (usagedto.CountersOutput, error)
	Intercept(ctx context.Context) (narrativedto.InterceptOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type SnapshotLoadedMsg struct {
	Status    healthdto.StatusOutput
	Counters  usagedto.CountersOutput
	Intercept narrativedto.InterceptOutput
	Err       error
}

const barWidth = 30

var faces = map[string]string{
	"healthy":    " /\\_/\\\n( ^.^ )\n > ^ <",
	"worn":       " /\\_/\\\n( -.- )\n > ^ <",
	"struggling": " /\\_/\\\n( o.o )\n >   <",
	"critical":   " /\\_/\\\n( ;.; )\n  ...",
	"dead":       " /\\_/\\\n( x.x )\n  zzz",
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     KittyPort
	snapshot SnapshotLoadedMsg
	said     string
	spinner  spinner.Model
	loading  bool
	width    int
	height   int
}

func New(port KittyPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches a fresh snapshot.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return SnapshotLoadedMsg{}
		}
		ctx := context.Background()
		status, err := m.port.Status(ctx)
		if err != nil {
			return SnapshotLoadedMsg{Err: err}
		}
		counters, err := m.port.Counters(ctx)
		if err != nil {
			return SnapshotLoadedMsg{Err: err}
		}
		intercept, err := m.port.Intercept(ctx)
		if err != nil {
			return SnapshotLoadedMsg{Err: err}
		}
		return SnapshotLoadedMsg{Status: status, Counters: counters, Intercept: intercept}
	}
}

// Say shows the most recent narrative under the cat.
func (m *Model) Say(emoji, text string) {
	m.said = strings.TrimSpace(emoji + " " + text)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case SnapshotLoadedMsg:
		m.loading = false
		m.snapshot = msg
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Waking the kitty…")
	}
	if m.snapshot.Err != nil {
		return theme.Hot.Render("status unavailable: " + m.snapshot.Err.Error())
	}
	s := m.snapshot
	band := s.Status.Band

	var left strings.Builder
	left.WriteString(theme.Band(band).Render(faces[band]) + "\n\n")
	left.WriteString(HealthBar(s.Status.Aggregate, barWidth, band) + "\n")
	left.WriteString(theme.Band(band).Render(fmt.Sprintf("%d %s", s.Status.Aggregate, band)) + "\n")
	if m.said != "" {
		left.WriteString("\n" + lipgloss.NewStyle().Width(barWidth+10).Render(m.said) + "\n")
	}

	var right strings.Builder
	right.WriteString(theme.Title.Render("Today") + "\n")
	used := time.Duration(s.Counters.CumulativeSeconds) * time.Second
	right.WriteString(fmt.Sprintf("%s%s in %d grants\n", theme.Muted.Render("used:    "), duration.Format(used), s.Counters.GrantCount))
	if s.Counters.FirstGrantAt != nil {
		right.WriteString(theme.Muted.Render("first:   ") + s.Counters.FirstGrantAt.Format("3:04 PM") + "\n")
	}
	if s.Counters.LastGrantAt != nil {
		right.WriteString(theme.Muted.Render("last:    ") + s.Counters.LastGrantAt.Format("3:04 PM") + "\n")
	}
	right.WriteString("\n" + theme.Title.Render("Apps") + "\n")
	for _, a := range s.Status.Apps {
		right.WriteString(fmt.Sprintf("%-16s %5.1f / %.0f\n", a.AppID, a.CurrentHP, a.MaxHP))
	}
	right.WriteString("\n" + theme.Title.Render("If you open an app now") + "\n")
	if len(s.Intercept.AllowedLabels) == 0 {
		right.WriteString(theme.Muted.Render("no time left today") + "\n")
	} else {
		right.WriteString(strings.Join(s.Intercept.AllowedLabels, " · ") + "\n")
	}
	right.WriteString(theme.Muted.Render(s.Intercept.Redirect) + "\n")

	leftPane := theme.Pane.Width(m.width/2 - 2).Render(left.String())
	rightPane := theme.Pane.Width(m.width - m.width/2 - 2).Render(right.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
}

// HealthBar renders health out of 100 as a bar width cells wide.
func HealthBar(health, width int, band string) string {
	if width <= 0 {
		return ""
	}
	if health < 0 {
		health = 0
	}
	if health > 100 {
		health = 100
	}
	filled := health * width / 100
	if health > 0 && filled == 0 {
		filled = 1
	}
	return lipgloss.NewStyle().Foreground(theme.BandColor(band)).Render(strings.Repeat("█", filled)) +
		theme.Muted.Render(strings.Repeat("░", width-filled))
}
